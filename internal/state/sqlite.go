package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const memoryDSN = ":memory:"

type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLite opens the journal at path. An empty path keeps it in memory for
// the lifetime of the process.
func NewSQLite(path string) (*SQLiteJournal, error) {
	dsn := memoryDSN
	if strings.TrimSpace(path) != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		dsn = path
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	return &SQLiteJournal{db: db}, nil
}

func (s *SQLiteJournal) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			started_ts TEXT NOT NULL,
			ended_ts TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS xp_awards (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			amount INTEGER NOT NULL,
			reason TEXT NOT NULL,
			ts TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS unlocks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			achievement_id TEXT NOT NULL,
			ts TEXT NOT NULL,
			UNIQUE(session_id, achievement_id)
		);`,
		`CREATE TABLE IF NOT EXISTS commands (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			command TEXT NOT NULL,
			exit_status INTEGER NOT NULL DEFAULT 0,
			ts TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS xp_awards_session ON xp_awards(session_id, id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteJournal) StartSession(ctx context.Context, sessionID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions(id, started_ts) VALUES(?, ?)`,
		sessionID,
		stamp(at),
	)
	return err
}

func (s *SQLiteJournal) EndSession(ctx context.Context, sessionID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET ended_ts = ? WHERE id = ?`, stamp(at), sessionID)
	return err
}

func (s *SQLiteJournal) RecordAward(ctx context.Context, award Award) error {
	if award.Amount <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO xp_awards(session_id, amount, reason, ts) VALUES(?,?,?,?)`,
		award.SessionID,
		award.Amount,
		strings.TrimSpace(award.Reason),
		stamp(award.TS),
	)
	return err
}

// RecordUnlock is idempotent per session and achievement.
func (s *SQLiteJournal) RecordUnlock(ctx context.Context, unlock Unlock) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO unlocks(session_id, achievement_id, ts) VALUES(?,?,?)`,
		unlock.SessionID,
		unlock.AchievementID,
		stamp(unlock.TS),
	)
	return err
}

func (s *SQLiteJournal) RecordCommand(ctx context.Context, cmd Command) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO commands(session_id, command, exit_status, ts) VALUES(?,?,?,?)`,
		cmd.SessionID,
		cmd.Command,
		cmd.ExitStatus,
		stamp(cmd.TS),
	)
	return err
}

func (s *SQLiteJournal) Summary(ctx context.Context, sessionID string) (Summary, error) {
	var out Summary
	all := ifThen(sessionID == "", 1, 0)
	row := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM sessions WHERE ? = 1 OR id = ?),
			(SELECT COALESCE(SUM(amount),0) FROM xp_awards WHERE ? = 1 OR session_id = ?),
			(SELECT COUNT(*) FROM xp_awards WHERE ? = 1 OR session_id = ?),
			(SELECT COUNT(*) FROM unlocks WHERE ? = 1 OR session_id = ?),
			(SELECT COUNT(*) FROM commands WHERE ? = 1 OR session_id = ?),
			(SELECT COUNT(*) FROM commands WHERE exit_status <> 0 AND (? = 1 OR session_id = ?))
	`, all, sessionID, all, sessionID, all, sessionID, all, sessionID, all, sessionID, all, sessionID)
	if err := row.Scan(&out.Sessions, &out.TotalXP, &out.Awards, &out.Unlocks, &out.Commands, &out.Failures); err != nil {
		return Summary{}, err
	}
	return out, nil
}

// RecentAwards returns the newest awards first. An empty id reads every
// session.
func (s *SQLiteJournal) RecentAwards(ctx context.Context, sessionID string, limit int) ([]Award, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, amount, reason, ts
		FROM xp_awards
		WHERE ? = 1 OR session_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, ifThen(sessionID == "", 1, 0), sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Award, 0, limit)
	for rows.Next() {
		var (
			a     Award
			rawTS string
		)
		if err := rows.Scan(&a.SessionID, &a.Amount, &a.Reason, &rawTS); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(timeLayout, rawTS); err == nil {
			a.TS = ts
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteJournal) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func stamp(at time.Time) string {
	if at.IsZero() {
		at = time.Now()
	}
	return at.UTC().Format(timeLayout)
}

func ifThen(cond bool, yes, no int) int {
	if cond {
		return yes
	}
	return no
}
