// Append-only change log.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/driftpress/driftpress/pkg/types"
)

// appendChange writes one change-log row inside a transaction and returns
// the entry as written. Rows are never edited or deleted afterwards.
func appendChange(tx *sql.Tx, postID int64, field, oldValue, newValue string, now time.Time) (types.ChangeEntry, error) {
	entry := types.ChangeEntry{
		ChangeID:  generateChangeID(),
		PostID:    postID,
		Field:     field,
		OldValue:  oldValue,
		NewValue:  newValue,
		ChangedAt: now,
	}
	_, err := tx.Exec(
		"INSERT INTO change_log (change_id, post_id, field, old_value, new_value, changed_at) VALUES (?, ?, ?, ?, ?, ?)",
		entry.ChangeID, entry.PostID, entry.Field, entry.OldValue, entry.NewValue, formatTime(now),
	)
	if err != nil {
		return types.ChangeEntry{}, fmt.Errorf("appending change log: %w", err)
	}
	return entry, nil
}

// generateChangeID generates a UUID v7 so change ids sort by time.
func generateChangeID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fall back to UUID v4 if v7 generation fails.
		return uuid.New().String()
	}
	return id.String()
}

// History returns the post's most recent change-log entries, newest first.
// The handler clamps limit before calling.
func (s *Store) History(postID int64, limit int) ([]types.ChangeEntry, error) {
	if s.db == nil {
		return nil, types.ErrStoreClosed
	}

	rows, err := s.db.Query(
		`SELECT change_id, post_id, field, old_value, new_value, changed_at
		 FROM change_log WHERE post_id = ?
		 ORDER BY changed_at DESC, change_id DESC LIMIT ?`,
		postID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching history: %w", err)
	}
	defer rows.Close()

	entries := []types.ChangeEntry{}
	for rows.Next() {
		var e types.ChangeEntry
		var changedAt string
		if err := rows.Scan(&e.ChangeID, &e.PostID, &e.Field, &e.OldValue, &e.NewValue, &changedAt); err != nil {
			return nil, fmt.Errorf("scanning change: %w", err)
		}
		t, err := parseTime(changedAt)
		if err != nil {
			return nil, err
		}
		if t != nil {
			e.ChangedAt = *t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}
	return entries, nil
}

// countChangesSince counts change-log rows appended at or after cutoff.
func (s *Store) countChangesSince(cutoff time.Time) (int64, error) {
	var n int64
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM change_log WHERE changed_at >= ?", formatTime(cutoff),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting recent changes: %w", err)
	}
	return n, nil
}
