package session

import (
	"autoscripter/internal/assistant"
	"autoscripter/internal/console"
	"autoscripter/internal/gamify"
	"autoscripter/internal/settings"
	"autoscripter/internal/workspace"
)

// UIState holds the panel visibility flags.
type UIState struct {
	SidebarOpen  bool `json:"sidebarOpen"`
	AIPanelOpen  bool `json:"aiPanelOpen"`
	TerminalOpen bool `json:"terminalOpen"`
}

func DefaultUI() UIState {
	return UIState{SidebarOpen: true, AIPanelOpen: true}
}

// StatsView is gamify.Stats plus the values derived from xp.
type StatsView struct {
	gamify.Stats
	Level       int `json:"level"`
	XPIntoLevel int `json:"xpIntoLevel"`
	XPPerLevel  int `json:"xpPerLevel"`
}

// Snapshot is a deep copy of the session state at one version.
type Snapshot struct {
	SessionID        string               `json:"sessionId"`
	Version          uint64               `json:"version"`
	Files            []workspace.FileNode `json:"files"`
	SelectedFileID   string               `json:"selectedFileId,omitempty"`
	Tabs             []workspace.Tab      `json:"tabs"`
	ActiveTabID      string               `json:"activeTabId,omitempty"`
	Stats            StatsView            `json:"stats"`
	Messages         []assistant.Message  `json:"messages"`
	AwaitingResponse bool                 `json:"awaitingResponse"`
	Terminal         []console.Line       `json:"terminal"`
	Settings         settings.Settings    `json:"settings"`
	UI               UIState              `json:"ui"`
}

func (s Snapshot) ActiveTab() (workspace.Tab, bool) {
	for _, tab := range s.Tabs {
		if s.ActiveTabID != "" && tab.ID == s.ActiveTabID {
			return tab, true
		}
	}
	return workspace.Tab{}, false
}

type EventKind string

const (
	EventState        EventKind = "state"
	EventPresentation EventKind = "presentation"
	EventXP           EventKind = "xp"
	EventAchievement  EventKind = "achievement"
	EventEditorSync   EventKind = "editor_sync"
	EventCommand      EventKind = "command"
)

// EditorSync tells an embedded editor to replace its buffer because the
// active tab changed.
type EditorSync struct {
	TabID    string `json:"tabId"`
	Content  string `json:"content"`
	Language string `json:"language"`
}

// CommandRun describes one accepted terminal submission.
type CommandRun struct {
	Command    string `json:"command"`
	ExitStatus int    `json:"exitStatus"`
}

// Event is published to subscribers after a transition commits. Exactly one
// payload field is set, matching Kind.
type Event struct {
	Kind         EventKind              `json:"kind"`
	SessionID    string                 `json:"sessionId"`
	Version      uint64                 `json:"version"`
	Snapshot     *Snapshot              `json:"snapshot,omitempty"`
	Presentation *settings.Presentation `json:"presentation,omitempty"`
	Award        *gamify.Award          `json:"award,omitempty"`
	Achievement  *gamify.Achievement    `json:"achievement,omitempty"`
	Editor       *EditorSync            `json:"editor,omitempty"`
	Command      *CommandRun            `json:"command,omitempty"`
}
