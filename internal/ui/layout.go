package ui

import "autoscripter/internal/session"

const (
	minCols = 80
	minRows = 24
)

func DetermineLayoutMode(cols, rows int) LayoutMode {
	if cols < minCols || rows < minRows {
		return LayoutTooSmall
	}
	if cols >= 120 && rows >= 30 {
		return LayoutWide
	}
	return LayoutMedium
}

// paneLayout holds the outer size of every visible pane. A zero width or
// height means the pane is hidden.
type paneLayout struct {
	explorerW int
	editorW   int
	assistW   int
	bodyH     int
	terminalH int
}

// computeLayout splits the body between panes. In medium layouts the
// assistant takes the sidebar's place when both are open.
func computeLayout(mode LayoutMode, cols, rows int, ui session.UIState) paneLayout {
	var l paneLayout
	bodyH := max(3, rows-2)
	if ui.TerminalOpen {
		l.terminalH = min(12, max(5, bodyH/3))
		bodyH -= l.terminalH
	}
	l.bodyH = bodyH

	explorer, assist := 28, 44
	if mode == LayoutMedium {
		explorer, assist = 24, 34
	}
	showExplorer := ui.SidebarOpen
	showAssist := ui.AIPanelOpen
	if mode == LayoutMedium && showExplorer && showAssist {
		showExplorer = false
	}
	if showExplorer {
		l.explorerW = explorer
	}
	if showAssist {
		l.assistW = assist
	}
	l.editorW = max(20, cols-l.explorerW-l.assistW)
	return l
}

func (l paneLayout) visible(f Focus) bool {
	switch f {
	case FocusExplorer:
		return l.explorerW > 0
	case FocusAssistant:
		return l.assistW > 0
	case FocusTerminal:
		return l.terminalH > 0
	default:
		return true
	}
}
