package assistant

import "context"

// Responder is the AI backend contract: given the full transcript, produce
// the assistant's reply.
type Responder interface {
	Respond(ctx context.Context, transcript []Message) (string, error)
}
