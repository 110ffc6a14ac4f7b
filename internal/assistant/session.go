package assistant

import (
	"strings"
	"time"
)

// Session owns the transcript and the single in-flight request. Each
// accepted send gets a new ticket; a completion carrying a stale ticket is
// dropped.
type Session struct {
	messages []Message
	pending  bool
	ticket   uint64
}

func NewSession(initial []Message) *Session {
	return &Session{messages: append([]Message(nil), initial...)}
}

// Begin appends the user message and enters the awaiting state. Blank input
// and sends while a reply is pending are rejected.
func (s *Session) Begin(msg Message) (uint64, bool) {
	if strings.TrimSpace(msg.Content) == "" || s.pending {
		return 0, false
	}
	msg.Role = RoleUser
	s.messages = append(s.messages, msg)
	s.pending = true
	s.ticket++
	return s.ticket, true
}

// Complete appends the assistant reply if ticket is still current.
func (s *Session) Complete(ticket uint64, reply Message) bool {
	if !s.pending || ticket != s.ticket {
		return false
	}
	reply.Role = RoleAssistant
	s.messages = append(s.messages, reply)
	s.pending = false
	return true
}

// Clear empties the transcript and abandons any pending reply.
func (s *Session) Clear() {
	s.messages = nil
	if s.pending {
		s.pending = false
		s.ticket++
	}
}

func (s *Session) Pending() bool { return s.pending }

// Awaiting reports whether ticket is the reply still being waited for.
func (s *Session) Awaiting(ticket uint64) bool {
	return s.pending && s.ticket == ticket
}

func (s *Session) Messages() []Message {
	return append([]Message(nil), s.messages...)
}

func Welcome(id string, at time.Time) Message {
	return Message{ID: id, Role: RoleAssistant, Content: WelcomeText, Timestamp: at}
}
