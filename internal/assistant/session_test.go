package assistant

import "testing"

func TestBeginRejectsBlankAndConcurrentSends(t *testing.T) {
	s := NewSession(nil)
	if _, ok := s.Begin(Message{Content: "   \n"}); ok {
		t.Fatalf("expected whitespace input to be rejected")
	}
	ticket, ok := s.Begin(Message{ID: "u1", Content: "hello"})
	if !ok || !s.Pending() {
		t.Fatalf("expected first send to be accepted")
	}
	if _, ok := s.Begin(Message{ID: "u2", Content: "again"}); ok {
		t.Fatalf("expected second send to be rejected while pending")
	}
	if !s.Complete(ticket, Message{ID: "a1", Content: "hi"}) {
		t.Fatalf("expected completion with current ticket")
	}
	msgs := s.Messages()
	if len(msgs) != 2 || msgs[0].Role != RoleUser || msgs[1].Role != RoleAssistant {
		t.Fatalf("unexpected transcript: %#v", msgs)
	}
}

func TestClearDropsPendingCompletion(t *testing.T) {
	s := NewSession([]Message{Welcome("w", testTime)})
	ticket, _ := s.Begin(Message{ID: "u1", Content: "fix it"})
	s.Clear()
	if s.Pending() {
		t.Fatalf("clear must leave the awaiting state")
	}
	if s.Complete(ticket, Message{ID: "a1", Content: "late"}) {
		t.Fatalf("stale completion must be dropped")
	}
	if len(s.Messages()) != 0 {
		t.Fatalf("expected empty transcript, got %#v", s.Messages())
	}
}
