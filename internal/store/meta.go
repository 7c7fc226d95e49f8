// Post meta access and the dirty-taxonomy marker.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/driftpress/driftpress/pkg/types"
)

// MetaForPost returns all meta entries for a post, decoded. The map includes
// internal entries such as the dirty-taxonomy marker; callers that do not
// want them can skip keys with a leading underscore.
func (s *Store) MetaForPost(postID int64) (map[string]types.MetaValue, error) {
	if s.db == nil {
		return nil, types.ErrStoreClosed
	}

	rows, err := s.db.Query(
		"SELECT meta_key, meta_value FROM post_meta WHERE post_id = ?", postID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying post_meta: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]types.MetaValue)
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("scanning post_meta: %w", err)
		}
		meta[key] = types.DecodeMeta(raw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating post_meta: %w", err)
	}
	return meta, nil
}

// getMetaRaw reads one stored meta value inside a transaction. The second
// return reports whether the row exists at all.
func getMetaRaw(tx *sql.Tx, postID int64, key string) (string, bool, error) {
	var raw string
	err := tx.QueryRow(
		"SELECT meta_value FROM post_meta WHERE post_id = ? AND meta_key = ?",
		postID, key,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading meta %q: %w", key, err)
	}
	return raw, true, nil
}

// upsertMeta writes one meta row inside a transaction.
func upsertMeta(tx *sql.Tx, postID int64, key, raw string) error {
	_, err := tx.Exec(
		`INSERT INTO post_meta (post_id, meta_key, meta_value) VALUES (?, ?, ?)
		 ON CONFLICT(post_id, meta_key) DO UPDATE SET meta_value = excluded.meta_value`,
		postID, key, raw,
	)
	if err != nil {
		return fmt.Errorf("upserting meta %q: %w", key, err)
	}
	return nil
}

// markTaxonomyDirty records taxonomy in the post's dirty-taxonomy marker.
// Idempotent: a taxonomy already present is not appended again. The marker
// is append-only from this process; the push process clears it.
func markTaxonomyDirty(tx *sql.Tx, postID int64, taxonomy string) error {
	raw, exists, err := getMetaRaw(tx, postID, types.DirtyTaxonomiesMetaKey)
	if err != nil {
		return err
	}

	var list []string
	if exists {
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			// A corrupt marker is rebuilt rather than propagated.
			list = nil
		}
	}
	for _, name := range list {
		if name == taxonomy {
			return nil
		}
	}
	list = append(list, taxonomy)

	encoded, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encoding dirty taxonomies: %w", err)
	}
	return upsertMeta(tx, postID, types.DirtyTaxonomiesMetaKey, string(encoded))
}
