package ui

import (
	"strings"
	"sync"
	"testing"
	"time"

	"autoscripter/internal/gamify"
	"autoscripter/internal/session"
	"autoscripter/internal/settings"
	"autoscripter/internal/workspace"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
)

type mockController struct {
	mu       sync.Mutex
	calls    []string
	opened   []string
	edits    map[string]string
	commands []string
	prompts  []string
	patches  []settings.Patch
}

func (m *mockController) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockController) OnQuit()           { m.record("quit") }
func (m *mockController) OnResize(int, int) { m.record("resize") }
func (m *mockController) OnOpenFile(id string) {
	m.mu.Lock()
	m.opened = append(m.opened, id)
	m.mu.Unlock()
	m.record("open")
}
func (m *mockController) OnSelectTab(string) { m.record("select") }
func (m *mockController) OnCloseTab(string)  { m.record("close") }
func (m *mockController) OnEditorChange(tabID, content string) {
	m.mu.Lock()
	if m.edits == nil {
		m.edits = map[string]string{}
	}
	m.edits[tabID] = content
	m.mu.Unlock()
	m.record("edit")
}
func (m *mockController) OnSendAssistant(text string) {
	m.mu.Lock()
	m.prompts = append(m.prompts, text)
	m.mu.Unlock()
	m.record("send")
}
func (m *mockController) OnClearAssistant() { m.record("clear_chat") }
func (m *mockController) OnTerminalCommand(cmd string) {
	m.mu.Lock()
	m.commands = append(m.commands, cmd)
	m.mu.Unlock()
	m.record("command")
}
func (m *mockController) OnToggleSidebar()  { m.record("sidebar") }
func (m *mockController) OnToggleAIPanel()  { m.record("ai") }
func (m *mockController) OnToggleTerminal() { m.record("terminal") }
func (m *mockController) OnCycleTheme()     { m.record("theme") }
func (m *mockController) OnUpdateSettings(p settings.Patch) {
	m.mu.Lock()
	m.patches = append(m.patches, p)
	m.mu.Unlock()
	m.record("settings")
}

func (m *mockController) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}
	return n
}

func press(v *Root, code rune, mod tea.KeyMod, text string) {
	_, _ = v.Update(tea.KeyPressMsg{Code: code, Mod: mod, Text: text})
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func testSnapshot() session.Snapshot {
	return session.Snapshot{
		SessionID: "s1",
		Files: []workspace.FileNode{
			{ID: "1", Name: "src", Kind: workspace.KindFolder, Path: "/src", Children: []workspace.FileNode{
				{ID: "2", Name: "main.ts", Kind: workspace.KindFile, Path: "/src/main.ts", Content: "one\ntwo", Language: "typescript"},
			}},
			{ID: "3", Name: "README.md", Kind: workspace.KindFile, Path: "/README.md", Content: "# hi", Language: "markdown"},
		},
		Stats:    session.StatsView{Level: 1, XPPerLevel: gamify.XPPerLevel},
		Settings: settings.Defaults(),
		UI:       session.DefaultUI(),
	}
}

func newTestView(t *testing.T) (*Root, *mockController) {
	t.Helper()
	v := New(Options{ASCIIOnly: true, MotionLevel: "off"})
	ctrl := &mockController{}
	v.SetController(ctrl)
	v.SetSnapshot(testSnapshot())
	return v, ctrl
}

func TestTabCycleSkipsHiddenPanes(t *testing.T) {
	v, _ := newTestView(t)
	want := []Focus{FocusEditor, FocusAssistant, FocusExplorer}
	for _, f := range want {
		press(v, tea.KeyTab, 0, "")
		if v.focus != f {
			t.Fatalf("expected focus %v, got %v", f, v.focus)
		}
	}
	press(v, tea.KeyTab, tea.ModShift, "")
	if v.focus != FocusAssistant {
		t.Fatalf("expected shift+tab to go back, got %v", v.focus)
	}
}

func TestHiddenPaneLosesFocus(t *testing.T) {
	v, _ := newTestView(t)
	press(v, tea.KeyTab, 0, "")
	press(v, tea.KeyTab, 0, "")
	if v.focus != FocusAssistant {
		t.Fatalf("expected assistant focus, got %v", v.focus)
	}
	snap := testSnapshot()
	snap.UI.AIPanelOpen = false
	v.SetSnapshot(snap)
	if v.focus != FocusEditor {
		t.Fatalf("expected focus to fall back to editor, got %v", v.focus)
	}
}

func TestExplorerEnterOpensFilesAndTogglesFolders(t *testing.T) {
	v, ctrl := newTestView(t)
	if got := len(v.explorerRows()); got != 3 {
		t.Fatalf("expected 3 explorer rows, got %d", got)
	}

	press(v, tea.KeyEnter, 0, "")
	if !v.collapsed["1"] || len(v.explorerRows()) != 2 {
		t.Fatalf("expected folder to collapse")
	}
	press(v, tea.KeyEnter, 0, "")

	press(v, tea.KeyDown, 0, "")
	press(v, tea.KeyEnter, 0, "")
	waitFor(t, "open file", func() bool { return ctrl.count("open") == 1 })
	ctrl.mu.Lock()
	opened := ctrl.opened[0]
	ctrl.mu.Unlock()
	if opened != "2" {
		t.Fatalf("expected main.ts to open, got %q", opened)
	}
	if v.focus != FocusEditor {
		t.Fatalf("expected editor focus after opening, got %v", v.focus)
	}
}

func TestSnapshotLoadsActiveTabAndEditsAreReported(t *testing.T) {
	v, ctrl := newTestView(t)
	snap := testSnapshot()
	snap.Tabs = []workspace.Tab{{ID: "t1", Title: "main.ts", Path: "/src/main.ts", Content: "one\ntwo", Language: "typescript"}}
	snap.ActiveTabID = "t1"
	v.SetSnapshot(snap)
	if v.editorTabID != "t1" || v.editor.Value() != "one\ntwo" {
		t.Fatalf("expected editor to load active tab, got %q %q", v.editorTabID, v.editor.Value())
	}

	v.editor.SetValue("one\ntwo\nthree")
	v.commitEditorChange()
	waitFor(t, "edit", func() bool { return ctrl.count("edit") == 1 })
	ctrl.mu.Lock()
	got := ctrl.edits["t1"]
	ctrl.mu.Unlock()
	if got != "one\ntwo\nthree" {
		t.Fatalf("unexpected edit content %q", got)
	}

	v.commitEditorChange()
	snap.Tabs[0].Content = "one\ntwo\nthree"
	snap.Tabs[0].Dirty = true
	v.SetSnapshot(snap)
	if v.editor.Value() != "one\ntwo\nthree" {
		t.Fatalf("echoed snapshot should not reset the buffer")
	}
	time.Sleep(20 * time.Millisecond)
	if ctrl.count("edit") != 1 {
		t.Fatalf("unchanged buffer should not be reported again")
	}
}

func TestSyncEditorReplacesBuffer(t *testing.T) {
	v, _ := newTestView(t)
	v.SyncEditor(session.EditorSync{TabID: "t2", Content: "# hi", Language: "markdown"})
	if v.editorTabID != "t2" || v.editor.Value() != "# hi" || v.editorLang != "markdown" {
		t.Fatalf("unexpected editor state %q %q %q", v.editorTabID, v.editor.Value(), v.editorLang)
	}
	v.SetSnapshot(testSnapshot())
	if v.editorTabID != "" {
		t.Fatalf("expected editor cleared when no tab is active")
	}
}

func TestTerminalEnterDispatchesAndRecallsHistory(t *testing.T) {
	v, ctrl := newTestView(t)
	snap := testSnapshot()
	snap.UI.TerminalOpen = true
	v.SetSnapshot(snap)
	v.setFocus(FocusTerminal)

	v.shell.SetValue("echo hi")
	press(v, tea.KeyEnter, 0, "")
	v.shell.SetValue("   ")
	press(v, tea.KeyEnter, 0, "")
	waitFor(t, "command", func() bool { return ctrl.count("command") == 1 })
	if v.shell.Value() != "" {
		t.Fatalf("expected input reset after enter")
	}

	press(v, tea.KeyUp, 0, "")
	if v.shell.Value() != "echo hi" {
		t.Fatalf("expected history recall, got %q", v.shell.Value())
	}
	press(v, tea.KeyDown, 0, "")
	if v.shell.Value() != "" {
		t.Fatalf("expected history to return to empty input, got %q", v.shell.Value())
	}
	time.Sleep(20 * time.Millisecond)
	if ctrl.count("command") != 1 {
		t.Fatalf("blank input should not dispatch")
	}
}

func TestAssistantEnterSendsTrimmedPrompt(t *testing.T) {
	v, ctrl := newTestView(t)
	v.setFocus(FocusAssistant)
	v.prompt.SetValue("  explain this  ")
	press(v, tea.KeyEnter, 0, "")
	waitFor(t, "send", func() bool { return ctrl.count("send") == 1 })
	ctrl.mu.Lock()
	got := ctrl.prompts[0]
	ctrl.mu.Unlock()
	if got != "explain this" {
		t.Fatalf("unexpected prompt %q", got)
	}
}

func TestFunctionKeysDispatchToggles(t *testing.T) {
	v, ctrl := newTestView(t)
	press(v, tea.KeyF2, 0, "")
	press(v, tea.KeyF3, 0, "")
	press(v, tea.KeyF4, 0, "")
	press(v, tea.KeyF5, 0, "")
	press(v, 'l', tea.ModCtrl, "")
	press(v, 'q', tea.ModCtrl, "")
	for _, name := range []string{"sidebar", "ai", "terminal", "theme", "clear_chat", "quit"} {
		waitFor(t, name, func() bool { return ctrl.count(name) == 1 })
	}
}

func TestTabKeysSelectNeighbours(t *testing.T) {
	v, ctrl := newTestView(t)
	snap := testSnapshot()
	snap.Tabs = []workspace.Tab{{ID: "a", Title: "a"}, {ID: "b", Title: "b"}}
	snap.ActiveTabID = "a"
	v.SetSnapshot(snap)
	press(v, tea.KeyF8, 0, "")
	press(v, 'w', tea.ModCtrl, "")
	waitFor(t, "select", func() bool { return ctrl.count("select") == 1 })
	waitFor(t, "close", func() bool { return ctrl.count("close") == 1 })
}

func TestSettingsOverlayAdjustsValues(t *testing.T) {
	v, ctrl := newTestView(t)
	press(v, tea.KeyF6, 0, "")
	if !v.settingsOpen {
		t.Fatalf("expected settings overlay")
	}
	press(v, tea.KeyRight, 0, "")
	press(v, tea.KeyDown, 0, "")
	press(v, tea.KeyRight, 0, "")
	waitFor(t, "settings", func() bool { return ctrl.count("settings") == 2 })

	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	var sawTheme, sawFont bool
	for _, p := range ctrl.patches {
		if p.Theme != nil && *p.Theme == settings.ThemeLight {
			sawTheme = true
		}
		if p.FontSize != nil && *p.FontSize == 15 {
			sawFont = true
		}
	}
	if !sawTheme || !sawFont {
		t.Fatalf("unexpected patches %+v", ctrl.patches)
	}
	press(v, tea.KeyEsc, 0, "")
	if v.settingsOpen {
		t.Fatalf("expected esc to close settings")
	}
}

func TestNextThemeWraps(t *testing.T) {
	if got := NextTheme(settings.ThemeNord, 1); got != settings.ThemeDark {
		t.Fatalf("expected wrap to dark, got %q", got)
	}
	if got := NextTheme(settings.ThemeDark, -1); got != settings.ThemeNord {
		t.Fatalf("expected wrap to nord, got %q", got)
	}
	if got := NextTheme("solarized", 1); got != settings.ThemeDark {
		t.Fatalf("expected unknown theme to restart, got %q", got)
	}
}

func TestPresentationSwitchesPalette(t *testing.T) {
	v, _ := newTestView(t)
	v.SetPresentation(settings.PresentationFor(settings.ThemeLight))
	if v.theme.Dark || v.pres.Theme != settings.ThemeLight {
		t.Fatalf("expected light palette")
	}
	if !ThemeFor("unknown").Dark {
		t.Fatalf("unknown themes should render dark")
	}
}

func TestNotificationsAndRendering(t *testing.T) {
	v, _ := newTestView(t)
	v.cols, v.rows = 140, 40
	v.NotifyXP(gamify.Award{Amount: 50, Reason: gamify.ReasonAssistant})
	if v.statusFlash != "+50 XP (assistant)" {
		t.Fatalf("unexpected flash %q", v.statusFlash)
	}
	v.NotifyAchievement(gamify.Achievement{ID: "first-line", Title: "Hello World", Icon: "*"})
	if v.toast == nil || v.toastPos != 1 {
		t.Fatalf("expected toast to be shown immediately without motion")
	}

	out := ansi.Strip(v.renderWorkspace() + "\n" + v.renderToast())
	for _, want := range []string{"Universal Auto Scripter IDE", "Explorer", "AI Assistant", "Hello World"} {
		if !strings.Contains(out, want) {
			t.Fatalf("render missing %q", want)
		}
	}

	v.cols, v.rows = 60, 20
	if out := ansi.Strip(v.renderWorkspace()); !strings.Contains(out, "Terminal too small") {
		t.Fatalf("expected too-small message")
	}
}
