package state

import (
	"context"
	"time"
)

// Journal is an append-only audit log of session activity. It is never read
// back into a live session.
type Journal interface {
	EnsureSchema(ctx context.Context) error
	StartSession(ctx context.Context, sessionID string, at time.Time) error
	EndSession(ctx context.Context, sessionID string, at time.Time) error
	RecordAward(ctx context.Context, award Award) error
	RecordUnlock(ctx context.Context, unlock Unlock) error
	RecordCommand(ctx context.Context, cmd Command) error
	Summary(ctx context.Context, sessionID string) (Summary, error)
	RecentAwards(ctx context.Context, sessionID string, limit int) ([]Award, error)
	Close() error
}

type Award struct {
	SessionID string
	Amount    int
	Reason    string
	TS        time.Time
}

type Unlock struct {
	SessionID     string
	AchievementID string
	TS            time.Time
}

type Command struct {
	SessionID  string
	Command    string
	ExitStatus int
	TS         time.Time
}

// Summary aggregates one session, or every session when the id is empty.
type Summary struct {
	Sessions int
	TotalXP  int
	Awards   int
	Unlocks  int
	Commands int
	Failures int
}
