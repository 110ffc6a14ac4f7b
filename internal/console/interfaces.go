package console

import "context"

// Backend executes one command line. The builtin grammar is a stand-in for
// a real command runner behind the same contract.
type Backend interface {
	Exec(ctx context.Context, command string) Result
}
