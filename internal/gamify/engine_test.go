package gamify

import (
	"math"
	"testing"
)

func TestLevelIsDerivedFromXP(t *testing.T) {
	cases := map[int]int{0: 1, 999: 1, 1000: 2, 2500: 3}
	for xp, want := range cases {
		if got := Level(xp); got != want {
			t.Fatalf("xp=%d: expected level %d, got %d", xp, want, got)
		}
	}
	e := NewEngine(nil)
	e.AddXP(999, ReasonManual)
	if e.Stats().Level() != 1 {
		t.Fatalf("expected level 1 at 999 xp")
	}
	e.AddXP(1, ReasonManual)
	if e.Stats().Level() != 2 || e.Stats().XPIntoLevel() != 0 {
		t.Fatalf("expected level 2 at 1000 xp, got %d", e.Stats().Level())
	}
}

func TestAddXPIgnoresNonPositiveAmounts(t *testing.T) {
	e := NewEngine(nil)
	e.AddXP(100, ReasonManual)
	if res := e.AddXP(-50, ReasonManual); len(res.Awards) != 0 {
		t.Fatalf("expected no award for negative amount")
	}
	if e.Stats().XP != 100 {
		t.Fatalf("xp must be monotonic, got %d", e.Stats().XP)
	}
}

func TestIncrementLinesAwardsTenXPPerLine(t *testing.T) {
	e := NewEngine(nil)
	res := e.IncrementLinesOfCode(7)
	st := e.Stats()
	if st.LinesOfCode != 7 {
		t.Fatalf("expected 7 lines, got %d", st.LinesOfCode)
	}
	if st.XP != 70 {
		t.Fatalf("expected 70 xp, got %d", st.XP)
	}
	if len(res.Awards) != 1 || res.Awards[0].Reason != ReasonLines {
		t.Fatalf("unexpected awards: %#v", res.Awards)
	}
}

func TestFirstLineUnlocksOnce(t *testing.T) {
	e := NewEngine(nil)
	res := e.IncrementLinesOfCode(1)
	if len(res.Unlocked) != 1 || res.Unlocked[0].ID != "first-line" {
		t.Fatalf("expected first-line unlock, got %#v", res.Unlocked)
	}
	res = e.IncrementLinesOfCode(1)
	if len(res.Unlocked) != 0 {
		t.Fatalf("expected no repeated unlock, got %#v", res.Unlocked)
	}
}

func TestSpeedDemonProgressIsClamped(t *testing.T) {
	e := NewEngine(nil)
	e.IncrementLinesOfCode(40)
	a := find(t, e.Stats(), "speed-demon")
	if a.Progress != 40 || a.MaxProgress != 100 || a.Unlocked {
		t.Fatalf("unexpected progress: %#v", a)
	}
	res := e.IncrementLinesOfCode(200)
	a = find(t, e.Stats(), "speed-demon")
	if a.Progress != 100 || !a.Unlocked {
		t.Fatalf("expected clamped unlocked achievement, got %#v", a)
	}
	if len(res.Unlocked) != 1 || res.Unlocked[0].ID != "speed-demon" {
		t.Fatalf("expected speed-demon in unlock list, got %#v", res.Unlocked)
	}
}

func TestAssistantExchangesUnlockEnthusiast(t *testing.T) {
	e := NewEngine(nil)
	var unlocked []Achievement
	for i := 0; i < 10; i++ {
		unlocked = append(unlocked, e.RecordAssistantExchange().Unlocked...)
	}
	st := e.Stats()
	if st.XP != 500 {
		t.Fatalf("expected 500 xp from 10 exchanges, got %d", st.XP)
	}
	if len(unlocked) != 1 || unlocked[0].ID != "ai-enthusiast" {
		t.Fatalf("expected ai-enthusiast unlock, got %#v", unlocked)
	}
}

func TestCollaborationNeverUnlocks(t *testing.T) {
	e := NewEngine(nil)
	e.IncrementLinesOfCode(500)
	for i := 0; i < 20; i++ {
		e.RecordAssistantExchange()
	}
	if find(t, e.Stats(), "collaboration-king").Unlocked {
		t.Fatalf("collaboration achievement must stay locked")
	}
}

func TestRecordFileEditCountsDistinctPaths(t *testing.T) {
	e := NewEngine(nil)
	e.RecordFileEdit("/a")
	e.RecordFileEdit("/a")
	e.RecordFileEdit("/b")
	if got := e.Stats().FilesEdited; got != 2 {
		t.Fatalf("expected 2 files edited, got %d", got)
	}
}

func TestStatsReturnsCopy(t *testing.T) {
	e := NewEngine(nil)
	st := e.Stats()
	st.Achievements[0].Unlocked = true
	if e.Stats().Achievements[0].Unlocked {
		t.Fatalf("mutating a stats copy must not leak into the engine")
	}
}

func find(t *testing.T, st Stats, id string) Achievement {
	t.Helper()
	for _, a := range st.Achievements {
		if a.ID == id {
			return a
		}
	}
	t.Fatalf("achievement %q not found", id)
	return Achievement{}
}

func TestXPSaturatesInsteadOfWrapping(t *testing.T) {
	e := NewEngine(nil)
	e.AddXP(math.MaxInt-10, ReasonManual)
	e.AddXP(math.MaxInt, ReasonManual)
	if got := e.Stats().XP; got != math.MaxInt {
		t.Fatalf("expected xp to saturate at MaxInt, got %d", got)
	}
	e.IncrementLinesOfCode(math.MaxInt)
	st := e.Stats()
	if st.XP != math.MaxInt || st.LinesOfCode != math.MaxInt {
		t.Fatalf("expected saturated stats, got xp=%d lines=%d", st.XP, st.LinesOfCode)
	}
	if st.Level() < 1 {
		t.Fatalf("level must stay positive, got %d", st.Level())
	}
}
