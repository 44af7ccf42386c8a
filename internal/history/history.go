// Package history journals lifecycle operations in a local sqlite
// database. Commands write entries after each operation; `incman
// history` reads them back. Journaling is best effort and never fails
// the operation it records.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Entry outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Entry is one recorded operation.
type Entry struct {
	At       time.Time
	Op       string // launch, start, stop, toggle, restart, delete, install
	Instance string // empty for host-level operations
	Outcome  string
	Detail   string // error text or extra context
	Duration time.Duration
}

// DefaultPath places the journal under the user state directory.
func DefaultPath() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "incman", "history.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "incman", "history.db")
	}
	return filepath.Join(home, ".local", "state", "incman", "history.db")
}

// Store is the sqlite-backed journal.
type Store struct {
	db *sql.DB
}

// Open creates the journal database and its schema if missing.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set history db journal mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set history db busy timeout: %w", err)
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS operations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	at TEXT NOT NULL,
	op TEXT NOT NULL,
	instance TEXT NOT NULL DEFAULT '',
	outcome TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL DEFAULT 0
)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends one entry. A zero At means now.
func (s *Store) Record(ctx context.Context, e Entry) error {
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO operations (at, op, instance, outcome, detail, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		at.UTC().Format(time.RFC3339),
		e.Op,
		e.Instance,
		e.Outcome,
		e.Detail,
		e.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record operation: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. A non-positive
// limit means 20.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT at, op, instance, outcome, detail, duration_ms
		 FROM operations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	defer rows.Close()

	out := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		var at string
		var durationMS int64
		if err := rows.Scan(&at, &e.Op, &e.Instance, &e.Outcome, &e.Detail, &durationMS); err != nil {
			return nil, fmt.Errorf("scan operation row: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return nil, fmt.Errorf("parse operation time %q: %w", at, err)
		}
		e.At = parsed
		e.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operation rows: %w", err)
	}
	return out, nil
}
