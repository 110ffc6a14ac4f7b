package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"autoscripter/internal/assistant"
	"autoscripter/internal/clock"
	"autoscripter/internal/console"
	"autoscripter/internal/settings"
	"autoscripter/internal/workspace"
)

var testStart = time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)

func counterIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func testFiles() []workspace.FileNode {
	return []workspace.FileNode{
		{ID: "1", Name: "src", Kind: workspace.KindFolder, Path: "/src", Children: []workspace.FileNode{
			{ID: "2", Name: "main.ts", Kind: workspace.KindFile, Path: "/src/main.ts", Content: "a\nb", Language: "typescript"},
			{ID: "3", Name: "app.tsx", Kind: workspace.KindFile, Path: "/src/app.tsx", Content: "x", Language: "typescript"},
		}},
		{ID: "4", Name: "README.md", Kind: workspace.KindFile, Path: "/README.md", Content: "# hi", Language: "markdown"},
	}
}

func newTestController(t *testing.T, mutate func(*Options)) (*Controller, *clock.Fake) {
	t.Helper()
	fake := clock.NewFake(testStart)
	opts := Options{
		ID:            "s1",
		Clock:         fake,
		Files:         testFiles(),
		NewID:         counterIDs(),
		ResponseDelay: func() time.Duration { return 1500 * time.Millisecond },
	}
	if mutate != nil {
		mutate(&opts)
	}
	c := New(opts)
	t.Cleanup(c.Close)
	return c, fake
}

func fileByID(t *testing.T, c *Controller, id string) workspace.FileNode {
	t.Helper()
	var found workspace.FileNode
	ok := false
	workspace.Walk(c.Snapshot().Files, func(n workspace.FileNode) bool {
		if n.ID == id {
			found, ok = n, true
			return false
		}
		return true
	})
	if !ok {
		t.Fatalf("file %s not in tree", id)
	}
	return found
}

func TestNewSessionDefaults(t *testing.T) {
	c, _ := newTestController(t, nil)
	snap := c.Snapshot()
	if snap.SessionID != "s1" || snap.Version != 0 {
		t.Fatalf("unexpected identity: %q v%d", snap.SessionID, snap.Version)
	}
	if !snap.UI.SidebarOpen || !snap.UI.AIPanelOpen || snap.UI.TerminalOpen {
		t.Fatalf("unexpected ui flags: %+v", snap.UI)
	}
	if snap.Settings != settings.Defaults() {
		t.Fatalf("unexpected settings: %+v", snap.Settings)
	}
	if len(snap.Messages) != 1 || snap.Messages[0].Content != assistant.WelcomeText {
		t.Fatalf("expected welcome message, got %+v", snap.Messages)
	}
	if len(snap.Terminal) != 2 || !strings.Contains(snap.Terminal[0].Content, console.ProductName) {
		t.Fatalf("expected banner, got %+v", snap.Terminal)
	}
	if snap.Stats.Level != 1 || snap.Stats.XPPerLevel != 1000 {
		t.Fatalf("unexpected stats: %+v", snap.Stats)
	}
	if len(snap.Stats.Achievements) != 4 {
		t.Fatalf("expected 4 achievements, got %d", len(snap.Stats.Achievements))
	}
}

func TestOpenTabAcceptsFileWithoutID(t *testing.T) {
	c, _ := newTestController(t, nil)
	scratch := workspace.FileNode{Name: "scratch.ts", Kind: workspace.KindFile, Path: "/scratch.ts", Content: "x"}
	snap := c.OpenTab(scratch)
	if snap.Version != 1 || len(snap.Tabs) != 1 || snap.Tabs[0].Path != "/scratch.ts" {
		t.Fatalf("expected tab for id-less file, got version=%d tabs=%+v", snap.Version, snap.Tabs)
	}
	snap = c.OpenTab(scratch)
	if len(snap.Tabs) != 1 {
		t.Fatalf("expected dedup by path, got %d tabs", len(snap.Tabs))
	}
}

func TestOpenTabDeduplicatesByPath(t *testing.T) {
	c, _ := newTestController(t, nil)
	main := fileByID(t, c, "2")
	c.OpenTab(main)
	c.OpenTab(fileByID(t, c, "4"))
	snap := c.OpenTab(main)
	count := 0
	for _, tab := range snap.Tabs {
		if tab.Path == main.Path {
			count++
			if snap.ActiveTabID != tab.ID {
				t.Fatalf("active tab %q, want %q", snap.ActiveTabID, tab.ID)
			}
		}
	}
	if count != 1 || len(snap.Tabs) != 2 {
		t.Fatalf("expected one tab for path, got %+v", snap.Tabs)
	}
}

func TestOpenFileSelectsAndIgnoresFolders(t *testing.T) {
	c, _ := newTestController(t, nil)
	snap := c.OpenFile("1")
	if len(snap.Tabs) != 0 || snap.Version != 0 {
		t.Fatalf("folder should not open: %+v", snap.Tabs)
	}
	snap = c.OpenFile("3")
	if snap.SelectedFileID != "3" || snap.ActiveTabID != "3" {
		t.Fatalf("unexpected selection %q active %q", snap.SelectedFileID, snap.ActiveTabID)
	}
	if snap = c.OpenFile("missing"); len(snap.Tabs) != 1 {
		t.Fatalf("unknown id should be a no-op")
	}
}

func TestCloseActiveTabFocusesLastRemaining(t *testing.T) {
	c, _ := newTestController(t, nil)
	c.OpenFile("2")
	c.OpenFile("3")
	c.OpenFile("4")
	c.SetActiveTab("2")
	snap := c.CloseTab("2")
	if snap.ActiveTabID != "4" {
		t.Fatalf("active tab %q, want 4", snap.ActiveTabID)
	}
	c.CloseTab("3")
	snap = c.CloseTab("4")
	if snap.ActiveTabID != "" || len(snap.Tabs) != 0 {
		t.Fatalf("expected no tabs, got active %q tabs %+v", snap.ActiveTabID, snap.Tabs)
	}
}

func TestUpdateTabContentAlwaysDirtyAndAwardsLines(t *testing.T) {
	c, _ := newTestController(t, nil)
	c.OpenFile("2")
	snap := c.UpdateTabContent("2", "a\nb")
	tab, _ := snap.ActiveTab()
	if !tab.Dirty {
		t.Fatalf("expected dirty tab")
	}
	snap = c.UpdateTabContent("2", "a\nb")
	tab, _ = snap.ActiveTab()
	if !tab.Dirty || snap.Stats.LinesOfCode != 0 || snap.Stats.XP != 0 {
		t.Fatalf("unchanged content should stay dirty without xp: %+v", snap.Stats)
	}
	snap = c.UpdateTabContent("2", "a\nb\nc\nd")
	if snap.Stats.LinesOfCode != 2 || snap.Stats.XP != 20 {
		t.Fatalf("expected 2 lines and 20 xp, got %+v", snap.Stats)
	}
	if snap.Stats.FilesEdited != 1 {
		t.Fatalf("files edited %d, want 1", snap.Stats.FilesEdited)
	}
	if !snap.Stats.Achievements[0].Unlocked {
		t.Fatalf("first-line should unlock")
	}
	if snap = c.UpdateTabContent("nope", "x"); snap.Stats.LinesOfCode != 2 {
		t.Fatalf("unknown tab should be ignored")
	}
}

func TestLevelFollowsXP(t *testing.T) {
	c, _ := newTestController(t, nil)
	cases := []struct {
		add   int
		xp    int
		level int
	}{
		{999, 999, 1},
		{1, 1000, 2},
		{1500, 2500, 3},
	}
	for _, tc := range cases {
		snap := c.AddXP(tc.add)
		if snap.Stats.XP != tc.xp || snap.Stats.Level != tc.level {
			t.Fatalf("xp %d level %d, want %d/%d", snap.Stats.XP, snap.Stats.Level, tc.xp, tc.level)
		}
	}
	if snap := c.AddXP(-5); snap.Stats.XP != 2500 {
		t.Fatalf("negative xp should be ignored")
	}
}

func TestIncrementLinesOfCodeAwardsTenPerLine(t *testing.T) {
	c, _ := newTestController(t, nil)
	snap := c.IncrementLinesOfCode(7)
	if snap.Stats.LinesOfCode != 7 || snap.Stats.XP != 70 {
		t.Fatalf("unexpected stats %+v", snap.Stats)
	}
}

func TestAssistantReplyArrivesAfterDelay(t *testing.T) {
	c, fake := newTestController(t, nil)
	snap := c.SendAssistantMessage("hello there")
	if !snap.AwaitingResponse || len(snap.Messages) != 2 {
		t.Fatalf("expected pending user message, got %+v", snap.Messages)
	}
	if snap = c.SendAssistantMessage("again"); len(snap.Messages) != 2 {
		t.Fatalf("second send while pending should be ignored")
	}
	fake.Advance(1499 * time.Millisecond)
	if c.Snapshot().AwaitingResponse != true {
		t.Fatalf("reply arrived early")
	}
	fake.Advance(time.Millisecond)
	snap = c.Snapshot()
	if snap.AwaitingResponse || len(snap.Messages) != 3 {
		t.Fatalf("expected reply, got %+v", snap.Messages)
	}
	last := snap.Messages[2]
	if last.Role != assistant.RoleAssistant || last.Content != assistant.Reply("hello there") {
		t.Fatalf("unexpected reply %+v", last)
	}
	if snap.Stats.XP != 50 || snap.Stats.AssistantExchanges != 1 {
		t.Fatalf("unexpected stats %+v", snap.Stats)
	}
	if snap := c.SendAssistantMessage("   "); len(snap.Messages) != 3 {
		t.Fatalf("blank message should be ignored")
	}
}

func TestClearCancelsPendingReply(t *testing.T) {
	c, fake := newTestController(t, nil)
	c.SendAssistantMessage("please fix this error")
	snap := c.ClearAssistantMessages()
	if len(snap.Messages) != 0 || snap.AwaitingResponse {
		t.Fatalf("expected empty transcript, got %+v", snap.Messages)
	}
	fake.Advance(5 * time.Second)
	snap = c.Snapshot()
	if len(snap.Messages) != 0 || snap.Stats.XP != 0 {
		t.Fatalf("stale reply leaked: %+v", snap.Messages)
	}
	if fake.Pending() != 0 {
		t.Fatalf("timer still armed")
	}
}

type failingResponder struct{}

func (failingResponder) Respond(context.Context, []assistant.Message) (string, error) {
	return "", errors.New("backend down")
}

func TestResponderFailureBecomesAssistantMessage(t *testing.T) {
	c, fake := newTestController(t, func(o *Options) { o.Responder = failingResponder{} })
	c.SendAssistantMessage("hi")
	fake.Advance(2 * time.Second)
	snap := c.Snapshot()
	if snap.AwaitingResponse || len(snap.Messages) != 3 {
		t.Fatalf("expected failure reply, got %+v", snap.Messages)
	}
	if !strings.Contains(snap.Messages[2].Content, "backend down") {
		t.Fatalf("unexpected failure text %q", snap.Messages[2].Content)
	}
	if snap.Stats.XP != 0 || snap.Stats.AssistantExchanges != 0 {
		t.Fatalf("failure should not award xp: %+v", snap.Stats)
	}
}

func TestTerminalEchoIsDeferred(t *testing.T) {
	c, fake := newTestController(t, nil)
	snap := c.RunTerminalCommand("echo hi")
	n := len(snap.Terminal)
	if snap.Terminal[n-1].Kind != console.KindInput || snap.Terminal[n-1].Content != "$ echo hi" {
		t.Fatalf("expected input line, got %+v", snap.Terminal[n-1])
	}
	fake.Advance(99 * time.Millisecond)
	if len(c.Snapshot().Terminal) != n {
		t.Fatalf("output arrived early")
	}
	fake.Advance(time.Millisecond)
	lines := c.Snapshot().Terminal
	if len(lines) != n+1 || lines[n].Content != "hi" || lines[n].Kind != console.KindOutput {
		t.Fatalf("expected output line, got %+v", lines)
	}
}

func TestTerminalUnknownCommand(t *testing.T) {
	c, fake := newTestController(t, nil)
	c.RunTerminalCommand("nope")
	fake.Advance(100 * time.Millisecond)
	lines := c.Snapshot().Terminal
	last := lines[len(lines)-1]
	if last.Kind != console.KindError || !strings.Contains(last.Content, "Command not found: nope") {
		t.Fatalf("unexpected line %+v", last)
	}
}

func TestTerminalClearDropsPendingOutput(t *testing.T) {
	c, fake := newTestController(t, nil)
	c.RunTerminalCommand("help")
	snap := c.RunTerminalCommand("clear")
	if len(snap.Terminal) != 0 {
		t.Fatalf("expected empty buffer, got %+v", snap.Terminal)
	}
	fake.Advance(time.Second)
	if lines := c.Snapshot().Terminal; len(lines) != 0 {
		t.Fatalf("deferred line after clear: %+v", lines)
	}
	if snap := c.RunTerminalCommand("   "); snap.Version != 2 {
		t.Fatalf("blank command should be ignored, version %d", snap.Version)
	}
}

func TestThemeChangesEmitPresentation(t *testing.T) {
	c, _ := newTestController(t, nil)
	events, cancel := c.Subscribe(16)
	defer cancel()

	light := settings.ThemeLight
	size := 16
	c.UpdateSettings(settings.Patch{FontSize: &size})
	c.UpdateSettings(settings.Patch{Theme: &light})
	c.SetTheme(settings.ThemeDark)

	var got []settings.Presentation
	for len(events) > 0 {
		ev := <-events
		if ev.Kind == EventPresentation {
			got = append(got, *ev.Presentation)
		}
	}
	if len(got) != 2 || got[0].Dark || !got[1].Dark {
		t.Fatalf("unexpected presentation events %+v", got)
	}
	if c.Snapshot().Settings.FontSize != 16 {
		t.Fatalf("font size not applied")
	}
}

func TestEventsCarryEditorSyncAndAchievements(t *testing.T) {
	c, _ := newTestController(t, nil)
	events, cancel := c.Subscribe(32)
	defer cancel()

	c.OpenFile("2")
	c.UpdateTabContent("2", "a\nb\nc")

	var kinds []EventKind
	var sync *EditorSync
	for len(events) > 0 {
		ev := <-events
		kinds = append(kinds, ev.Kind)
		if ev.Kind == EventEditorSync {
			sync = ev.Editor
		}
		if ev.Version == 0 || ev.SessionID != "s1" {
			t.Fatalf("event missing identity: %+v", ev)
		}
	}
	if sync == nil || sync.TabID != "2" || sync.Content != "a\nb" {
		t.Fatalf("unexpected editor sync %+v", sync)
	}
	want := []EventKind{EventEditorSync, EventState, EventXP, EventAchievement, EventState}
	if fmt.Sprint(kinds) != fmt.Sprint(want) {
		t.Fatalf("events %v, want %v", kinds, want)
	}
}

func TestToggles(t *testing.T) {
	c, _ := newTestController(t, nil)
	c.ToggleSidebar()
	c.ToggleAIPanel()
	snap := c.ToggleTerminal()
	if snap.UI.SidebarOpen || snap.UI.AIPanelOpen || !snap.UI.TerminalOpen {
		t.Fatalf("unexpected ui %+v", snap.UI)
	}
}

func TestCloseStopsTimersAndSubscribers(t *testing.T) {
	c, fake := newTestController(t, nil)
	events, _ := c.Subscribe(4)
	c.SendAssistantMessage("hi")
	c.RunTerminalCommand("date")
	for len(events) > 0 {
		<-events
	}
	c.Close()
	if fake.Pending() != 0 {
		t.Fatalf("timers left after close")
	}
	if _, ok := <-events; ok {
		t.Fatalf("expected closed channel")
	}
	before := c.Snapshot().Version
	if snap := c.AddXP(10); snap.Version != before {
		t.Fatalf("actions after close should be no-ops")
	}
}
