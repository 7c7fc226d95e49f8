// Derived aggregate statistics. Nothing here is cached or stored.
package store

import (
	"fmt"
	"time"

	"github.com/driftpress/driftpress/pkg/types"
)

// Stats computes the aggregate view over the mirror. postType narrows the
// total, dirty, and by-status counts; the by-type breakdown is always
// unfiltered so callers can see the whole mirror at a glance.
func (s *Store) Stats(postType string) (*types.Stats, error) {
	if s.db == nil {
		return nil, types.ErrStoreClosed
	}

	where := ""
	var args []any
	if postType != "" {
		where = " WHERE post_type = ?"
		args = append(args, postType)
	}

	stats := &types.Stats{
		ByStatus: make(map[string]int64),
		ByType:   make(map[string]int64),
	}

	if err := s.db.QueryRow("SELECT COUNT(*) FROM posts"+where, args...).Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("counting posts: %w", err)
	}

	dirtyQuery := "SELECT COUNT(*) FROM posts WHERE dirty = 1"
	dirtyArgs := []any{}
	if postType != "" {
		dirtyQuery += " AND post_type = ?"
		dirtyArgs = append(dirtyArgs, postType)
	}
	if err := s.db.QueryRow(dirtyQuery, dirtyArgs...).Scan(&stats.Dirty); err != nil {
		return nil, fmt.Errorf("counting dirty posts: %w", err)
	}

	statusRows, err := s.db.Query("SELECT status, COUNT(*) FROM posts"+where+" GROUP BY status", args...)
	if err != nil {
		return nil, fmt.Errorf("counting by status: %w", err)
	}
	defer statusRows.Close()
	for statusRows.Next() {
		var status string
		var n int64
		if err := statusRows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning status count: %w", err)
		}
		stats.ByStatus[status] = n
	}
	if err := statusRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating status counts: %w", err)
	}

	// By-type breakdown ignores the type filter on purpose.
	typeRows, err := s.db.Query("SELECT post_type, COUNT(*) FROM posts GROUP BY post_type")
	if err != nil {
		return nil, fmt.Errorf("counting by type: %w", err)
	}
	defer typeRows.Close()
	for typeRows.Next() {
		var postType string
		var n int64
		if err := typeRows.Scan(&postType, &n); err != nil {
			return nil, fmt.Errorf("scanning type count: %w", err)
		}
		stats.ByType[postType] = n
	}
	if err := typeRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating type counts: %w", err)
	}

	var lastSynced *string
	if err := s.db.QueryRow("SELECT MAX(synced_at) FROM posts").Scan(&lastSynced); err != nil {
		return nil, fmt.Errorf("finding last sync: %w", err)
	}
	if lastSynced != nil {
		t, err := parseTime(*lastSynced)
		if err != nil {
			return nil, err
		}
		stats.LastSynced = t
	}

	changes, err := s.countChangesSince(time.Now().UTC().Add(-24 * time.Hour))
	if err != nil {
		return nil, err
	}
	stats.Changes24h = changes

	return stats, nil
}
