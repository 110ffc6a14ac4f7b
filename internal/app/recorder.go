package app

import (
	"context"
	"time"

	"autoscripter/internal/clock"
	"autoscripter/internal/session"
	"autoscripter/internal/state"
)

const journalTimeout = 5 * time.Second

// Recorder copies a session's award, unlock and command events into the
// journal. The journal is write-only from the session's point of view.
type Recorder struct {
	journal state.Journal
	logger  Logger
	clock   clock.Clock
}

func NewRecorder(journal state.Journal, logger Logger, clk clock.Clock) *Recorder {
	if clk == nil {
		clk = clock.NewReal()
	}
	return &Recorder{journal: journal, logger: logger, clock: clk}
}

// Attach starts recording ctrl. The returned channel closes once the
// controller is closed and the session end has been written.
func (r *Recorder) Attach(ctrl *session.Controller) <-chan struct{} {
	done := make(chan struct{})
	id := ctrl.ID()
	events, _ := ctrl.Subscribe(0)
	r.write("journal.start_failed", id, func(ctx context.Context) error {
		return r.journal.StartSession(ctx, id, r.clock.Now())
	})
	go func() {
		defer close(done)
		for ev := range events {
			r.record(ev)
		}
		r.write("journal.end_failed", id, func(ctx context.Context) error {
			return r.journal.EndSession(ctx, id, r.clock.Now())
		})
	}()
	return done
}

func (r *Recorder) record(ev session.Event) {
	now := r.clock.Now()
	switch ev.Kind {
	case session.EventXP:
		if ev.Award == nil {
			return
		}
		r.write("journal.award_failed", ev.SessionID, func(ctx context.Context) error {
			return r.journal.RecordAward(ctx, state.Award{SessionID: ev.SessionID, Amount: ev.Award.Amount, Reason: ev.Award.Reason, TS: now})
		})
	case session.EventAchievement:
		if ev.Achievement == nil {
			return
		}
		r.logger.Info("session.achievement", map[string]any{"session_id": ev.SessionID, "achievement": ev.Achievement.ID})
		r.write("journal.unlock_failed", ev.SessionID, func(ctx context.Context) error {
			return r.journal.RecordUnlock(ctx, state.Unlock{SessionID: ev.SessionID, AchievementID: ev.Achievement.ID, TS: now})
		})
	case session.EventCommand:
		if ev.Command == nil {
			return
		}
		r.write("journal.command_failed", ev.SessionID, func(ctx context.Context) error {
			return r.journal.RecordCommand(ctx, state.Command{SessionID: ev.SessionID, Command: ev.Command.Command, ExitStatus: ev.Command.ExitStatus, TS: now})
		})
	}
}

func (r *Recorder) write(failure, sessionID string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		r.logger.Error(failure, map[string]any{"session_id": sessionID, "error": err.Error()})
	}
}
