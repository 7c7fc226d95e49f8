// Posts table access: list, get, and the transactional field/meta update.
package store

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/driftpress/driftpress/internal/validate"
	"github.com/driftpress/driftpress/pkg/types"
)

// ListFilter narrows a ListPosts query. Zero values mean "no filter". Limit
// and Offset are applied as given; the tool handler clamps them first.
type ListFilter struct {
	PostType string
	Status   string
	Dirty    *bool
	Search   string
	Limit    int
	Offset   int
}

// ListPosts returns the matching page of posts plus the total match count
// before pagination, ordered by last update, newest first.
func (s *Store) ListPosts(filter ListFilter) ([]types.Post, int64, error) {
	if s.db == nil {
		return nil, 0, types.ErrStoreClosed
	}

	var conditions []string
	var args []any

	if filter.PostType != "" {
		conditions = append(conditions, "post_type = ?")
		args = append(args, filter.PostType)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Dirty != nil {
		conditions = append(conditions, "dirty = ?")
		if *filter.Dirty {
			args = append(args, 1)
		} else {
			args = append(args, 0)
		}
	}
	if filter.Search != "" {
		pattern := "%" + validate.EscapeLike(filter.Search) + "%"
		conditions = append(conditions, `(title LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM posts"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting posts: %w", err)
	}

	query := "SELECT id, post_type, title, slug, status, content, excerpt, dirty, synced_at, updated_at FROM posts" +
		where + " ORDER BY updated_at DESC, id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching posts: %w", err)
	}
	defer rows.Close()

	posts := []types.Post{}
	for rows.Next() {
		post, err := hydratePost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("hydrating post: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating posts: %w", err)
	}

	return posts, total, nil
}

// GetPost retrieves a post by id. Returns ErrNotFound when no row exists.
func (s *Store) GetPost(id int64) (*types.Post, error) {
	if s.db == nil {
		return nil, types.ErrStoreClosed
	}

	row := s.db.QueryRow(
		"SELECT id, post_type, title, slug, status, content, excerpt, dirty, synced_at, updated_at FROM posts WHERE id = ?",
		id,
	)
	post, err := hydratePostRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: id %d", types.ErrNotFound, id)
		}
		return nil, fmt.Errorf("getting post %d: %w", id, err)
	}
	return post, nil
}

// UpdatePost applies a subset of basic fields and a meta map to one post.
// Only values that actually differ are written; each written field or meta
// key appends one change-log row, and any write flips the dirty flag. The
// whole update is one transaction. A no-op update succeeds and reports zero
// changes.
func (s *Store) UpdatePost(id int64, fields types.PostFields, meta map[string]any) ([]types.ChangeEntry, error) {
	var changes []types.ChangeEntry

	err := s.withTx(func(tx *sql.Tx) error {
		current, err := getPostTx(tx, id)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		changes = nil

		type fieldChange struct {
			column   string
			oldValue string
			newValue string
		}
		var changed []fieldChange

		check := func(column, oldValue string, newValue *string) {
			if newValue != nil && *newValue != oldValue {
				changed = append(changed, fieldChange{column, oldValue, *newValue})
			}
		}
		check("title", current.Title, fields.Title)
		check("slug", current.Slug, fields.Slug)
		check("status", current.Status, fields.Status)
		check("content", current.Content, fields.Content)
		check("excerpt", current.Excerpt, fields.Excerpt)

		for _, fc := range changed {
			if _, err := tx.Exec(
				fmt.Sprintf("UPDATE posts SET %s = ? WHERE id = ?", fc.column), fc.newValue, id,
			); err != nil {
				return fmt.Errorf("updating %s: %w", fc.column, err)
			}
			entry, err := appendChange(tx, id, fc.column, fc.oldValue, fc.newValue, now)
			if err != nil {
				return err
			}
			changes = append(changes, entry)
		}

		for _, key := range sortedKeys(meta) {
			raw, err := types.EncodeMeta(meta[key])
			if err != nil {
				return fmt.Errorf("encoding meta %q: %w", key, err)
			}
			oldRaw, exists, err := getMetaRaw(tx, id, key)
			if err != nil {
				return err
			}
			if exists && oldRaw == raw {
				continue
			}
			if err := upsertMeta(tx, id, key, raw); err != nil {
				return err
			}
			entry, err := appendChange(tx, id, types.ChangeFieldMetaPrefix+key, oldRaw, raw, now)
			if err != nil {
				return err
			}
			changes = append(changes, entry)
		}

		if len(changes) == 0 {
			return nil
		}
		return markDirty(tx, id, now)
	})
	if err != nil {
		return nil, err
	}
	return changes, nil
}

// markDirty flips the dirty flag and bumps updated_at inside a transaction
// that has already written at least one change.
func markDirty(tx *sql.Tx, id int64, now time.Time) error {
	if _, err := tx.Exec(
		"UPDATE posts SET dirty = 1, updated_at = ? WHERE id = ?", formatTime(now), id,
	); err != nil {
		return fmt.Errorf("marking post %d dirty: %w", id, err)
	}
	return nil
}

// getPostTx reads a post inside a transaction. Returns ErrNotFound when no
// row exists.
func getPostTx(tx *sql.Tx, id int64) (*types.Post, error) {
	row := tx.QueryRow(
		"SELECT id, post_type, title, slug, status, content, excerpt, dirty, synced_at, updated_at FROM posts WHERE id = ?",
		id,
	)
	post, err := hydratePostRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: id %d", types.ErrNotFound, id)
		}
		return nil, fmt.Errorf("getting post %d: %w", id, err)
	}
	return post, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPost(sc scanner) (*types.Post, error) {
	var p types.Post
	var dirty int
	var syncedAt sql.NullString
	var updatedAt string
	if err := sc.Scan(&p.ID, &p.PostType, &p.Title, &p.Slug, &p.Status,
		&p.Content, &p.Excerpt, &dirty, &syncedAt, &updatedAt); err != nil {
		return nil, err
	}
	p.Dirty = dirty != 0
	if syncedAt.Valid {
		t, err := parseTime(syncedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing synced_at: %w", err)
		}
		p.SyncedAt = t
	}
	t, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	if t != nil {
		p.UpdatedAt = *t
	}
	return &p, nil
}

// hydratePostRow converts a single SQLite row into a *types.Post.
func hydratePostRow(row *sql.Row) (*types.Post, error) {
	return scanPost(row)
}

// hydratePost converts a row from sql.Rows into a *types.Post.
func hydratePost(rows *sql.Rows) (*types.Post, error) {
	return scanPost(rows)
}

// sortedKeys returns the map's keys in deterministic order so change-log
// rows for one update always append in the same sequence.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
