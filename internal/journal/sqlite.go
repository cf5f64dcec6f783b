// Package journal records store action outcomes in SQLite so the CLI can
// show what was done and what the server answered.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/me/schedview/internal/store"

	_ "modernc.org/sqlite"
)

const (
	// writeTimeout bounds a single Observe insert.
	writeTimeout = 2 * time.Second
	// timeLayout is fixed width so created_at sorts as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// Entry is one recorded action.
type Entry struct {
	ID           int64     `json:"id" yaml:"id"`
	Seq          uint64    `json:"seq" yaml:"seq"`
	Action       string    `json:"action" yaml:"action"`
	PID          int       `json:"pid,omitempty" yaml:"pid,omitempty"`
	OK           bool      `json:"ok" yaml:"ok"`
	Message      string    `json:"message" yaml:"message"`
	Error        string    `json:"error,omitempty" yaml:"error,omitempty"`
	RefreshError string    `json:"refreshError,omitempty" yaml:"refreshError,omitempty"`
	StepTime     int       `json:"time" yaml:"time"`
	Duration     int64     `json:"durationMs" yaml:"durationMs"`
	CreatedAt    time.Time `json:"createdAt" yaml:"createdAt"`
}

// SQLiteJournal stores entries in a SQLite database. It implements
// store.Observer.
type SQLiteJournal struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the journal at dbPath and migrates it. Use
// ":memory:" for an in-memory journal.
func Open(ctx context.Context, dbPath string, logger *slog.Logger) (*SQLiteJournal, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// One connection: writes are serialized anyway and ":memory:" is per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}

	j := &SQLiteJournal{db: db, logger: logger.With("component", "journal")}
	if err := j.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return j, nil
}

// Close closes the underlying database connection.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

// Migrate creates all required tables and indexes.
func (j *SQLiteJournal) Migrate(ctx context.Context) error {
	j.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, j.db)
}

// Observe implements store.Observer. Write failures are logged, never
// returned to the store.
func (j *SQLiteJournal) Observe(o store.Outcome) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if _, err := j.Record(ctx, o); err != nil {
		j.logger.Warn("journal write failed", "action", o.Action, "seq", o.Seq, "error", err)
	}
}

// Record inserts o and returns the new entry id.
func (j *SQLiteJournal) Record(ctx context.Context, o store.Outcome) (int64, error) {
	j.logger.Debug("sql", "op", "insert", "table", "actions", "seq", o.Seq)

	at := o.At
	if at.IsZero() {
		at = time.Now()
	}
	res, err := j.db.ExecContext(ctx,
		`INSERT INTO actions (seq, action, pid, ok, message, error, refresh_error, step_time, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(o.Seq), string(o.Action), o.PID, boolToInt(o.OK()), o.Message,
		errString(o.Err), errString(o.RefreshErr), o.Time, o.Duration.Milliseconds(),
		at.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// List returns up to limit entries, newest first. limit <= 0 means 20.
func (j *SQLiteJournal) List(ctx context.Context, limit int) ([]Entry, error) {
	return j.list(ctx, "", limit)
}

// ListAction is List restricted to one action.
func (j *SQLiteJournal) ListAction(ctx context.Context, action store.Action, limit int) ([]Entry, error) {
	return j.list(ctx, string(action), limit)
}

func (j *SQLiteJournal) list(ctx context.Context, action string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	j.logger.Debug("sql", "op", "select", "table", "actions", "action", action, "limit", limit)

	query := `SELECT id, seq, action, pid, ok, message, error, refresh_error, step_time, duration_ms, created_at
		FROM actions`
	args := []any{}
	if action != "" {
		query += ` WHERE action = ?`
		args = append(args, action)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var seq int64
		var ok int
		var createdAt string
		if err := rows.Scan(&e.ID, &seq, &e.Action, &e.PID, &ok, &e.Message, &e.Error,
			&e.RefreshError, &e.StepTime, &e.Duration, &createdAt); err != nil {
			return nil, err
		}
		e.Seq = uint64(seq)
		e.OK = ok != 0
		if e.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count returns the number of recorded entries.
func (j *SQLiteJournal) Count(ctx context.Context) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM actions`).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return n, err
}

// Prune deletes entries older than before and returns how many were removed.
func (j *SQLiteJournal) Prune(ctx context.Context, before time.Time) (int64, error) {
	j.logger.Debug("sql", "op", "delete", "table", "actions", "before", before)
	res, err := j.db.ExecContext(ctx, `DELETE FROM actions WHERE created_at < ?`,
		before.UTC().Format(timeLayout))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
