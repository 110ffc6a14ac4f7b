package session

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"autoscripter/internal/settings"
)

func TestDispatchRoutesActions(t *testing.T) {
	c, fake := newTestController(t, nil)

	steps := []struct {
		kind    string
		payload any
	}{
		{ActionOpenFile, map[string]string{"id": "2"}},
		{ActionUpdateTabContent, map[string]string{"id": "2", "content": "a\nb\nc"}},
		{ActionRunTerminalCommand, map[string]string{"text": "echo Hello"}},
		{ActionSetTheme, map[string]string{"theme": "Nord"}},
		{ActionToggleTerminal, nil},
	}
	for _, step := range steps {
		a, err := NewAction(step.kind, step.payload)
		if err != nil {
			t.Fatalf("NewAction(%s): %v", step.kind, err)
		}
		if _, err := c.Dispatch(a); err != nil {
			t.Fatalf("Dispatch(%s): %v", step.kind, err)
		}
	}
	fake.Advance(100 * time.Millisecond)

	snap := c.Snapshot()
	if snap.ActiveTabID != "2" || snap.Stats.LinesOfCode != 1 {
		t.Fatalf("unexpected editor state: active %q stats %+v", snap.ActiveTabID, snap.Stats)
	}
	if snap.Settings.Theme != settings.ThemeNord || !snap.UI.TerminalOpen {
		t.Fatalf("unexpected settings/ui: %+v %+v", snap.Settings, snap.UI)
	}
	if last := snap.Terminal[len(snap.Terminal)-1]; last.Content != "Hello" {
		t.Fatalf("unexpected terminal line %+v", last)
	}
}

func TestDispatchRejectsMalformedEnvelopes(t *testing.T) {
	c, _ := newTestController(t, nil)
	if _, err := c.Dispatch(Action{Type: "launchRocket"}); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
	if _, err := c.Dispatch(Action{Type: ActionAddXP}); err == nil {
		t.Fatalf("expected missing payload error")
	}
	if _, err := c.Dispatch(Action{Type: ActionAddXP, Payload: json.RawMessage(`{"amount":"x"}`)}); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, err := c.Dispatch(Action{Type: ActionSetTheme, Payload: json.RawMessage(`{"theme":"solarized"}`)}); err == nil {
		t.Fatalf("expected theme error")
	}
	if c.Snapshot().Version != 0 {
		t.Fatalf("rejected actions must not change state")
	}
}
