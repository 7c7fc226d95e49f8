// Package store implements the SQLite mirror store for the tool server.
// The database file is shared with the desktop application's sync process,
// which owns schema creation and migration; this package only opens an
// existing file. Every multi-statement mutation runs inside one transaction
// so the other process never observes a partial write.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	sqlite3 "modernc.org/sqlite"

	"github.com/driftpress/driftpress/pkg/types"
)

// SQLite result codes surfaced on lock contention.
const (
	codeBusy   = 5 // SQLITE_BUSY
	codeLocked = 6 // SQLITE_LOCKED
)

// txAttempts is how many times a contended transaction is retried after the
// driver's own busy_timeout has expired.
const txAttempts = 3

// Store is the handle to the shared mirror database. It is passed explicitly
// into every handler call; there is no process-wide instance, so tests can
// run isolated stores in parallel.
type Store struct {
	db          *sql.DB
	lockTimeout time.Duration
}

// Open opens an existing mirror database. Returns ErrMissingDB when the file
// does not exist: the sync process initializes the schema, never this one.
// The connection is configured for multi-process access (WAL journaling plus
// a bounded busy timeout).
func Open(path string, lockTimeout time.Duration) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", types.ErrMissingDB, path)
		}
		return nil, fmt.Errorf("stat mirror db: %w", err)
	}

	if lockTimeout <= 0 {
		lockTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)",
		path, lockTimeout.Milliseconds(),
	)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mirror db: %w", err)
	}
	// One connection: the server processes one tool call at a time, and a
	// single connection keeps transactions on a single SQLite handle.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mirror db: %w", err)
	}

	return &Store{db: db, lockTimeout: lockTimeout}, nil
}

// Close releases the database handle. Idempotent.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on error. Lock contention from the second process is retried a
// bounded number of times; exhaustion surfaces as ErrLockTimeout so the
// handler can report it as a tool error instead of hanging the read loop.
func (s *Store) withTx(fn func(tx *sql.Tx) error) error {
	if s.db == nil {
		return types.ErrStoreClosed
	}

	op := func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction: %w", err)
		}
		defer tx.Rollback()

		if err := fn(tx); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing transaction: %w", err)
		}
		return nil
	}

	err := retry.Do(op,
		retry.Attempts(txAttempts),
		retry.Delay(100*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(isLocked),
		retry.LastErrorOnly(true),
	)
	if err != nil && isLocked(err) {
		return fmt.Errorf("%w: %v", types.ErrLockTimeout, err)
	}
	return err
}

// isLocked reports whether err is SQLite lock contention.
func isLocked(err error) bool {
	var serr *sqlite3.Error
	if errors.As(err, &serr) {
		code := serr.Code() & 0xff
		return code == codeBusy || code == codeLocked
	}
	// The driver does not always surface a typed error.
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// formatTime formats t the way the mirror stores timestamps.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime parses a stored timestamp, tolerating the empty string the sync
// process writes for never-synced rows.
func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return &t, nil
}
