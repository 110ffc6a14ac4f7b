package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"autoscripter/internal/settings"
	"autoscripter/internal/workspace"
)

// Action is the wire envelope for one controller action.
type Action struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	ActionOpenTab                = "openTab"
	ActionOpenFile               = "openFile"
	ActionCloseTab               = "closeTab"
	ActionUpdateTabContent       = "updateTabContent"
	ActionSetActiveTab           = "setActiveTab"
	ActionSetFiles               = "setFiles"
	ActionSetSelectedFile        = "setSelectedFile"
	ActionAddXP                  = "addXP"
	ActionIncrementLinesOfCode   = "incrementLinesOfCode"
	ActionSendAssistantMessage   = "sendAssistantMessage"
	ActionClearAssistantMessages = "clearAssistantMessages"
	ActionRunTerminalCommand     = "runTerminalCommand"
	ActionUpdateSettings         = "updateSettings"
	ActionSetTheme               = "setTheme"
	ActionToggleSidebar          = "toggleSidebar"
	ActionToggleAIPanel          = "toggleAIPanel"
	ActionToggleTerminal         = "toggleTerminal"
)

var ErrUnknownAction = errors.New("unknown action")

type filePayload struct {
	File workspace.FileNode `json:"file"`
}

type idPayload struct {
	ID string `json:"id"`
}

type contentPayload struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

type filesPayload struct {
	Files []workspace.FileNode `json:"files"`
}

type amountPayload struct {
	Amount int `json:"amount"`
}

type textPayload struct {
	Text string `json:"text"`
}

type themePayload struct {
	Theme string `json:"theme"`
}

// NewAction builds an envelope from a payload value.
func NewAction(kind string, payload any) (Action, error) {
	if payload == nil {
		return Action{Type: kind}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Action{}, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return Action{Type: kind, Payload: raw}, nil
}

// Dispatch decodes an action envelope and applies it. Errors only report
// malformed envelopes; invalid ids are silent no-ops as with direct calls.
func (c *Controller) Dispatch(a Action) (Snapshot, error) {
	switch a.Type {
	case ActionOpenTab:
		var p filePayload
		if err := decode(a, &p); err != nil {
			return Snapshot{}, err
		}
		return c.OpenTab(p.File), nil
	case ActionOpenFile:
		var p idPayload
		if err := decode(a, &p); err != nil {
			return Snapshot{}, err
		}
		return c.OpenFile(p.ID), nil
	case ActionCloseTab:
		var p idPayload
		if err := decode(a, &p); err != nil {
			return Snapshot{}, err
		}
		return c.CloseTab(p.ID), nil
	case ActionUpdateTabContent:
		var p contentPayload
		if err := decode(a, &p); err != nil {
			return Snapshot{}, err
		}
		return c.UpdateTabContent(p.ID, p.Content), nil
	case ActionSetActiveTab:
		var p idPayload
		if err := decode(a, &p); err != nil {
			return Snapshot{}, err
		}
		return c.SetActiveTab(p.ID), nil
	case ActionSetFiles:
		var p filesPayload
		if err := decode(a, &p); err != nil {
			return Snapshot{}, err
		}
		return c.SetFiles(p.Files), nil
	case ActionSetSelectedFile:
		var p idPayload
		if err := decode(a, &p); err != nil {
			return Snapshot{}, err
		}
		return c.SetSelectedFile(p.ID), nil
	case ActionAddXP:
		var p amountPayload
		if err := decode(a, &p); err != nil {
			return Snapshot{}, err
		}
		return c.AddXP(p.Amount), nil
	case ActionIncrementLinesOfCode:
		var p amountPayload
		if err := decode(a, &p); err != nil {
			return Snapshot{}, err
		}
		return c.IncrementLinesOfCode(p.Amount), nil
	case ActionSendAssistantMessage:
		var p textPayload
		if err := decode(a, &p); err != nil {
			return Snapshot{}, err
		}
		return c.SendAssistantMessage(p.Text), nil
	case ActionClearAssistantMessages:
		return c.ClearAssistantMessages(), nil
	case ActionRunTerminalCommand:
		var p textPayload
		if err := decode(a, &p); err != nil {
			return Snapshot{}, err
		}
		return c.RunTerminalCommand(p.Text), nil
	case ActionUpdateSettings:
		var p settings.Patch
		if err := decode(a, &p); err != nil {
			return Snapshot{}, err
		}
		if p.Theme != nil {
			theme, err := settings.ParseTheme(string(*p.Theme))
			if err != nil {
				return Snapshot{}, err
			}
			p.Theme = &theme
		}
		return c.UpdateSettings(p), nil
	case ActionSetTheme:
		var p themePayload
		if err := decode(a, &p); err != nil {
			return Snapshot{}, err
		}
		theme, err := settings.ParseTheme(p.Theme)
		if err != nil {
			return Snapshot{}, err
		}
		return c.SetTheme(theme), nil
	case ActionToggleSidebar:
		return c.ToggleSidebar(), nil
	case ActionToggleAIPanel:
		return c.ToggleAIPanel(), nil
	case ActionToggleTerminal:
		return c.ToggleTerminal(), nil
	}
	return Snapshot{}, fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
}

func decode(a Action, v any) error {
	if len(a.Payload) == 0 {
		return fmt.Errorf("%s: missing payload", a.Type)
	}
	if err := json.Unmarshal(a.Payload, v); err != nil {
		return fmt.Errorf("%s: decode payload: %w", a.Type, err)
	}
	return nil
}
