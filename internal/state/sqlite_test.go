package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openJournal(t *testing.T, path string) *SQLiteJournal {
	t.Helper()
	journal, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = journal.Close() })
	if err := journal.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return journal
}

func TestJournalSummaryPerSessionAndOverall(t *testing.T) {
	journal := openJournal(t, filepath.Join(t.TempDir(), "journal.db"))
	ctx := context.Background()
	now := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)

	for _, id := range []string{"a", "b"} {
		if err := journal.StartSession(ctx, id, now); err != nil {
			t.Fatalf("start session: %v", err)
		}
	}
	awards := []Award{
		{SessionID: "a", Amount: 10, Reason: "lines_of_code", TS: now},
		{SessionID: "a", Amount: 50, Reason: "assistant_exchange", TS: now.Add(time.Second)},
		{SessionID: "b", Amount: 5, Reason: "manual", TS: now},
		{SessionID: "b", Amount: 0, Reason: "manual", TS: now},
	}
	for _, a := range awards {
		if err := journal.RecordAward(ctx, a); err != nil {
			t.Fatalf("record award: %v", err)
		}
	}
	// Unlocks are deduplicated per session.
	for i := 0; i < 2; i++ {
		if err := journal.RecordUnlock(ctx, Unlock{SessionID: "a", AchievementID: "first-line", TS: now}); err != nil {
			t.Fatalf("record unlock: %v", err)
		}
	}
	if err := journal.RecordCommand(ctx, Command{SessionID: "a", Command: "help", TS: now}); err != nil {
		t.Fatalf("record command: %v", err)
	}
	if err := journal.RecordCommand(ctx, Command{SessionID: "a", Command: "nope", ExitStatus: 127, TS: now}); err != nil {
		t.Fatalf("record command: %v", err)
	}

	got, err := journal.Summary(ctx, "a")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	want := Summary{Sessions: 1, TotalXP: 60, Awards: 2, Unlocks: 1, Commands: 2, Failures: 1}
	if got != want {
		t.Fatalf("summary mismatch: got %+v want %+v", got, want)
	}

	all, err := journal.Summary(ctx, "")
	if err != nil {
		t.Fatalf("summary all: %v", err)
	}
	if all.Sessions != 2 || all.TotalXP != 65 || all.Awards != 3 {
		t.Fatalf("unexpected overall summary %+v", all)
	}
}

func TestJournalRecentAwardsNewestFirst(t *testing.T) {
	journal := openJournal(t, "")
	ctx := context.Background()
	now := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 4; i++ {
		award := Award{SessionID: "s", Amount: i * 10, Reason: "lines_of_code", TS: now.Add(time.Duration(i) * time.Minute)}
		if err := journal.RecordAward(ctx, award); err != nil {
			t.Fatalf("record award: %v", err)
		}
	}
	got, err := journal.RecentAwards(ctx, "s", 2)
	if err != nil {
		t.Fatalf("recent awards: %v", err)
	}
	if len(got) != 2 || got[0].Amount != 40 || got[1].Amount != 30 {
		t.Fatalf("unexpected awards %+v", got)
	}
	if !got[0].TS.Equal(now.Add(4 * time.Minute)) {
		t.Fatalf("timestamp not round-tripped: %v", got[0].TS)
	}
}

func TestJournalEndSession(t *testing.T) {
	journal := openJournal(t, "")
	ctx := context.Background()
	now := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	if err := journal.StartSession(ctx, "s", now); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := journal.EndSession(ctx, "s", now.Add(time.Hour)); err != nil {
		t.Fatalf("end: %v", err)
	}
	var ended string
	if err := journal.db.QueryRowContext(ctx, `SELECT ended_ts FROM sessions WHERE id = ?`, "s").Scan(&ended); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if ended != "2026-01-01T13:00:00Z" {
		t.Fatalf("unexpected ended_ts %q", ended)
	}
}
