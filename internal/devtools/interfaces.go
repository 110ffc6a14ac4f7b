package devtools

import "autoscripter/internal/session"

// Dispatcher is satisfied by *session.Controller.
type Dispatcher interface {
	Dispatch(a session.Action) (session.Snapshot, error)
}
