// Namespaced plugin data: grouped reads and the read-merge-write update.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/driftpress/driftpress/pkg/types"
)

// PluginDataForPost returns the post's plugin data grouped by namespace then
// data key, decoded the same way as meta values.
func (s *Store) PluginDataForPost(postID int64) (map[string]map[string]types.MetaValue, error) {
	if s.db == nil {
		return nil, types.ErrStoreClosed
	}

	rows, err := s.db.Query(
		"SELECT plugin, data_key, data_value FROM plugin_data WHERE post_id = ? ORDER BY plugin, data_key",
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying plugin_data: %w", err)
	}
	defer rows.Close()

	grouped := make(map[string]map[string]types.MetaValue)
	for rows.Next() {
		var plugin, key, raw string
		if err := rows.Scan(&plugin, &key, &raw); err != nil {
			return nil, fmt.Errorf("scanning plugin_data: %w", err)
		}
		if grouped[plugin] == nil {
			grouped[plugin] = make(map[string]types.MetaValue)
		}
		grouped[plugin][key] = types.DecodeMeta(raw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plugin_data: %w", err)
	}
	return grouped, nil
}

// MergePluginData deep-merges patch into the stored blob for (postID,
// plugin, key) and returns the merged value. The read, merge, and write all
// happen inside one transaction so two racing callers cannot lose an
// update. Sub-fields the patch does not name survive untouched, including
// keys this process has never heard of. Appends one change-log row and
// marks the post dirty.
func (s *Store) MergePluginData(postID int64, plugin, key string, patch map[string]any) (map[string]any, error) {
	var merged map[string]any

	err := s.withTx(func(tx *sql.Tx) error {
		if _, err := getPostTx(tx, postID); err != nil {
			return err
		}

		oldRaw, exists, err := getPluginRaw(tx, postID, plugin, key)
		if err != nil {
			return err
		}

		existing := map[string]any{}
		if exists {
			if err := json.Unmarshal([]byte(oldRaw), &existing); err != nil {
				return fmt.Errorf("decoding stored %s/%s blob: %w", plugin, key, err)
			}
		}

		merged = deepMerge(existing, patch)

		newRaw, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("encoding merged blob: %w", err)
		}

		if _, err := tx.Exec(
			`INSERT INTO plugin_data (post_id, plugin, data_key, data_value) VALUES (?, ?, ?, ?)
			 ON CONFLICT(post_id, plugin, data_key) DO UPDATE SET data_value = excluded.data_value`,
			postID, plugin, key, string(newRaw),
		); err != nil {
			return fmt.Errorf("writing plugin_data: %w", err)
		}

		now := time.Now().UTC()
		if _, err := appendChange(tx, postID, plugin, oldRaw, string(newRaw), now); err != nil {
			return err
		}
		return markDirty(tx, postID, now)
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// getPluginRaw reads one stored plugin-data value inside a transaction.
func getPluginRaw(tx *sql.Tx, postID int64, plugin, key string) (string, bool, error) {
	var raw string
	err := tx.QueryRow(
		"SELECT data_value FROM plugin_data WHERE post_id = ? AND plugin = ? AND data_key = ?",
		postID, plugin, key,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading plugin_data %s/%s: %w", plugin, key, err)
	}
	return raw, true, nil
}

// deepMerge returns dst with src applied on top. Nested maps merge
// recursively; any other value in src replaces the one in dst. dst is
// modified in place and returned.
func deepMerge(dst, src map[string]any) map[string]any {
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]any)
		dstMap, dstIsMap := dst[k].(map[string]any)
		if srcIsMap && dstIsMap {
			dst[k] = deepMerge(dstMap, srcMap)
			continue
		}
		if srcIsMap {
			// Copy so later merges cannot alias the patch.
			dst[k] = deepMerge(map[string]any{}, srcMap)
			continue
		}
		dst[k] = v
	}
	return dst
}
