package ui

import (
	"fmt"
	"strings"

	"autoscripter/internal/settings"
	"autoscripter/internal/workspace"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
)

func (r *Root) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	r.recordInputEvent(fmt.Sprintf("key:%v mod:%v text:%q", msg.Code, msg.Mod, msg.Text))

	if key.Matches(msg, r.keymap.Quit) {
		r.dispatchController(func(c Controller) { c.OnQuit() })
		return r, nil
	}
	if r.helpOpen {
		if msg.Code == tea.KeyEsc || key.Matches(msg, r.keymap.Help) {
			r.helpOpen = false
		}
		return r, nil
	}
	if r.settingsOpen {
		return r.handleSettingsKey(msg)
	}

	switch {
	case key.Matches(msg, r.keymap.NextFocus):
		return r, r.cycleFocus(1)
	case key.Matches(msg, r.keymap.PrevFocus):
		return r, r.cycleFocus(-1)
	case key.Matches(msg, r.keymap.Help):
		r.helpOpen = true
		return r, nil
	case key.Matches(msg, r.keymap.Settings):
		r.settingsOpen = true
		r.settingsIndex = 0
		return r, nil
	case key.Matches(msg, r.keymap.Sidebar):
		r.dispatchController(func(c Controller) { c.OnToggleSidebar() })
		return r, nil
	case key.Matches(msg, r.keymap.AIPanel):
		r.dispatchController(func(c Controller) { c.OnToggleAIPanel() })
		return r, nil
	case key.Matches(msg, r.keymap.Terminal):
		r.dispatchController(func(c Controller) { c.OnToggleTerminal() })
		return r, nil
	case key.Matches(msg, r.keymap.Theme):
		r.dispatchController(func(c Controller) { c.OnCycleTheme() })
		return r, nil
	case key.Matches(msg, r.keymap.PrevTab):
		r.selectRelativeTab(-1)
		return r, nil
	case key.Matches(msg, r.keymap.NextTab):
		r.selectRelativeTab(1)
		return r, nil
	case key.Matches(msg, r.keymap.CloseTab):
		if id := r.snap.ActiveTabID; id != "" {
			r.dispatchController(func(c Controller) { c.OnCloseTab(id) })
		}
		return r, nil
	case key.Matches(msg, r.keymap.ClearChat):
		r.dispatchController(func(c Controller) { c.OnClearAssistant() })
		return r, nil
	}

	switch r.focus {
	case FocusExplorer:
		return r.handleExplorerKey(msg)
	case FocusAssistant:
		return r.handleAssistantKey(msg)
	case FocusTerminal:
		return r.handleTerminalKey(msg)
	default:
		return r.handleEditorKey(msg)
	}
}

func (r *Root) handlePaste(msg tea.PasteMsg) (tea.Model, tea.Cmd) {
	r.recordInputEvent(fmt.Sprintf("paste:%d", len(msg.Content)))
	if r.helpOpen || r.settingsOpen || msg.Content == "" {
		return r, nil
	}
	var cmd tea.Cmd
	switch r.focus {
	case FocusEditor:
		if r.editorTabID == "" {
			return r, nil
		}
		r.editor.InsertString(msg.Content)
		r.commitEditorChange()
	case FocusAssistant:
		r.prompt, cmd = r.prompt.Update(msg)
	case FocusTerminal:
		r.shell, cmd = r.shell.Update(msg)
	}
	return r, cmd
}

func (r *Root) handleExplorerKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	rows := r.explorerRows()
	if len(rows) == 0 {
		return r, nil
	}
	switch msg.Code {
	case tea.KeyUp:
		r.explorerIndex = wrapIndex(r.explorerIndex-1, len(rows))
		return r, nil
	case tea.KeyDown:
		r.explorerIndex = wrapIndex(r.explorerIndex+1, len(rows))
		return r, nil
	case tea.KeyLeft:
		if node := rows[clampIndex(r.explorerIndex, len(rows))].node; node.IsFolder() {
			r.collapsed[node.ID] = true
		}
		return r, nil
	}
	if !key.Matches(msg, r.keymap.explorerEnter) {
		return r, nil
	}
	node := rows[clampIndex(r.explorerIndex, len(rows))].node
	if node.IsFolder() {
		r.collapsed[node.ID] = !r.collapsed[node.ID]
		r.explorerIndex = clampIndex(r.explorerIndex, len(r.explorerRows()))
		return r, nil
	}
	id := node.ID
	r.dispatchController(func(c Controller) { c.OnOpenFile(id) })
	return r, r.setFocus(FocusEditor)
}

func (r *Root) handleEditorKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if r.editorTabID == "" {
		return r, nil
	}
	if msg.Code == tea.KeyEsc {
		return r, r.setFocus(FocusExplorer)
	}
	var cmd tea.Cmd
	r.editor, cmd = r.editor.Update(msg)
	r.commitEditorChange()
	return r, cmd
}

func (r *Root) handleAssistantKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if msg.Code == tea.KeyEnter {
		text := strings.TrimSpace(r.prompt.Value())
		if text == "" {
			return r, nil
		}
		r.prompt.Reset()
		r.dispatchController(func(c Controller) { c.OnSendAssistant(text) })
		return r, nil
	}
	var cmd tea.Cmd
	r.prompt, cmd = r.prompt.Update(msg)
	return r, cmd
}

func (r *Root) handleTerminalKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.Code {
	case tea.KeyEnter:
		command := strings.TrimSpace(r.shell.Value())
		r.shell.Reset()
		if command == "" {
			return r, nil
		}
		r.shellHist = append(r.shellHist, command)
		r.shellCursor = len(r.shellHist)
		r.dispatchController(func(c Controller) { c.OnTerminalCommand(command) })
		return r, nil
	case tea.KeyUp:
		if r.shellCursor > 0 {
			r.shellCursor--
			r.shell.SetValue(r.shellHist[r.shellCursor])
		}
		return r, nil
	case tea.KeyDown:
		if r.shellCursor < len(r.shellHist)-1 {
			r.shellCursor++
			r.shell.SetValue(r.shellHist[r.shellCursor])
		} else {
			r.shellCursor = len(r.shellHist)
			r.shell.Reset()
		}
		return r, nil
	}
	var cmd tea.Cmd
	r.shell, cmd = r.shell.Update(msg)
	return r, cmd
}

type settingsRow struct {
	label string
	value func(settings.Settings) string
	// step returns the patch for moving the value by dir (-1 or +1).
	step func(s settings.Settings, dir int) settings.Patch
}

var themeCycle = []settings.Theme{settings.ThemeDark, settings.ThemeLight, settings.ThemeMonokai, settings.ThemeNord}

func settingsRows() []settingsRow {
	return []settingsRow{
		{
			label: "Theme",
			value: func(s settings.Settings) string { return string(s.Theme) },
			step: func(s settings.Settings, dir int) settings.Patch {
				next := NextTheme(s.Theme, dir)
				return settings.Patch{Theme: &next}
			},
		},
		{
			label: "Font size",
			value: func(s settings.Settings) string { return fmt.Sprintf("%d", s.FontSize) },
			step: func(s settings.Settings, dir int) settings.Patch {
				size := s.FontSize + dir
				return settings.Patch{FontSize: &size}
			},
		},
		{
			label: "Tab size",
			value: func(s settings.Settings) string { return fmt.Sprintf("%d", s.TabSize) },
			step: func(s settings.Settings, dir int) settings.Patch {
				size := 2
				if s.TabSize == 2 && dir > 0 || s.TabSize == 8 && dir < 0 {
					size = 4
				} else if s.TabSize == 4 && dir > 0 {
					size = 8
				}
				return settings.Patch{TabSize: &size}
			},
		},
		{
			label: "Auto save",
			value: func(s settings.Settings) string { return onOff(s.AutoSave) },
			step: func(s settings.Settings, _ int) settings.Patch {
				v := !s.AutoSave
				return settings.Patch{AutoSave: &v}
			},
		},
		{
			label: "Minimap",
			value: func(s settings.Settings) string { return onOff(s.Minimap) },
			step: func(s settings.Settings, _ int) settings.Patch {
				v := !s.Minimap
				return settings.Patch{Minimap: &v}
			},
		},
	}
}

// NextTheme walks the built-in theme list. Unknown themes restart at dark.
func NextTheme(current settings.Theme, dir int) settings.Theme {
	for i, t := range themeCycle {
		if t == current {
			return themeCycle[wrapIndex(i+dir, len(themeCycle))]
		}
	}
	return settings.ThemeDark
}

func (r *Root) handleSettingsKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	rows := settingsRows()
	switch {
	case msg.Code == tea.KeyEsc || key.Matches(msg, r.keymap.Settings):
		r.settingsOpen = false
	case msg.Code == tea.KeyUp:
		r.settingsIndex = wrapIndex(r.settingsIndex-1, len(rows))
	case msg.Code == tea.KeyDown:
		r.settingsIndex = wrapIndex(r.settingsIndex+1, len(rows))
	case msg.Code == tea.KeyLeft, msg.Code == tea.KeyRight, msg.Code == tea.KeyEnter:
		dir := 1
		if msg.Code == tea.KeyLeft {
			dir = -1
		}
		patch := rows[clampIndex(r.settingsIndex, len(rows))].step(r.snap.Settings, dir)
		r.dispatchController(func(c Controller) { c.OnUpdateSettings(patch) })
	}
	return r, nil
}

func (r *Root) selectRelativeTab(dir int) {
	tabs := r.snap.Tabs
	if len(tabs) == 0 {
		return
	}
	idx := 0
	for i, tab := range tabs {
		if tab.ID == r.snap.ActiveTabID {
			idx = i
			break
		}
	}
	id := tabs[wrapIndex(idx+dir, len(tabs))].ID
	if id == r.snap.ActiveTabID {
		return
	}
	r.dispatchController(func(c Controller) { c.OnSelectTab(id) })
}

func (r *Root) cycleFocus(dir int) tea.Cmd {
	l := r.currentLayout()
	next := r.focus
	for i := 0; i < 4; i++ {
		next = Focus(wrapIndex(int(next)+dir, 4))
		if l.visible(next) {
			break
		}
	}
	return r.setFocus(next)
}

func (r *Root) setFocus(f Focus) tea.Cmd {
	r.focus = f
	r.editor.Blur()
	r.prompt.Blur()
	r.shell.Blur()
	switch f {
	case FocusEditor:
		return r.editor.Focus()
	case FocusAssistant:
		return r.prompt.Focus()
	case FocusTerminal:
		return r.shell.Focus()
	}
	return nil
}

// ensureFocusVisible moves focus to the editor when its pane was hidden.
func (r *Root) ensureFocusVisible() {
	if !r.currentLayout().visible(r.focus) {
		_ = r.setFocus(FocusEditor)
	}
}

func (r *Root) currentLayout() paneLayout {
	mode := DetermineLayoutMode(r.cols, r.rows)
	if mode == LayoutTooSmall {
		mode = LayoutMedium
	}
	return computeLayout(mode, r.cols, r.rows, r.snap.UI)
}

type explorerRow struct {
	node  workspace.FileNode
	depth int
}

// explorerRows flattens the tree, skipping the children of collapsed folders.
func (r *Root) explorerRows() []explorerRow {
	var out []explorerRow
	var walk func(nodes []workspace.FileNode, depth int)
	walk = func(nodes []workspace.FileNode, depth int) {
		for _, n := range nodes {
			out = append(out, explorerRow{node: n, depth: depth})
			if n.IsFolder() && !r.collapsed[n.ID] {
				walk(n.Children, depth+1)
			}
		}
	}
	walk(r.snap.Files, 0)
	return out
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
