package ui

import (
	"autoscripter/internal/gamify"
	"autoscripter/internal/session"
	"autoscripter/internal/settings"
)

// Controller receives user intents from the view. Calls are made off the
// render goroutine.
type Controller interface {
	OnQuit()
	OnResize(cols, rows int)
	OnOpenFile(fileID string)
	OnSelectTab(tabID string)
	OnCloseTab(tabID string)
	OnEditorChange(tabID, content string)
	OnSendAssistant(text string)
	OnClearAssistant()
	OnTerminalCommand(command string)
	OnToggleSidebar()
	OnToggleAIPanel()
	OnToggleTerminal()
	OnCycleTheme()
	OnUpdateSettings(patch settings.Patch)
}

type View interface {
	Run() error
	Stop()
	SetController(Controller)
	SetSnapshot(snap session.Snapshot)
	SetPresentation(p settings.Presentation)
	SyncEditor(sync session.EditorSync)
	NotifyAchievement(a gamify.Achievement)
	NotifyXP(award gamify.Award)
	FlashStatus(msg string)
}

type LayoutMode int

const (
	LayoutWide LayoutMode = iota
	LayoutMedium
	LayoutTooSmall
)

func (m LayoutMode) String() string {
	switch m {
	case LayoutWide:
		return "wide"
	case LayoutMedium:
		return "medium"
	default:
		return "too_small"
	}
}

type Focus int

const (
	FocusExplorer Focus = iota
	FocusEditor
	FocusAssistant
	FocusTerminal
)

func (f Focus) String() string {
	switch f {
	case FocusExplorer:
		return "explorer"
	case FocusEditor:
		return "editor"
	case FocusAssistant:
		return "assistant"
	default:
		return "terminal"
	}
}
