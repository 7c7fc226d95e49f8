// Taxonomy terms and post-term assignments.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/driftpress/driftpress/pkg/types"
)

// ListTerms returns every term, or one taxonomy's terms when taxonomy is
// non-empty, ordered by taxonomy then name.
func (s *Store) ListTerms(taxonomy string) ([]types.Term, error) {
	if s.db == nil {
		return nil, types.ErrStoreClosed
	}

	query := "SELECT term_id, taxonomy, name, slug, parent_id FROM terms"
	var args []any
	if taxonomy != "" {
		query += " WHERE taxonomy = ?"
		args = append(args, taxonomy)
	}
	query += " ORDER BY taxonomy, name"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching terms: %w", err)
	}
	defer rows.Close()

	terms := []types.Term{}
	for rows.Next() {
		var t types.Term
		var parent sql.NullInt64
		if err := rows.Scan(&t.TermID, &t.Taxonomy, &t.Name, &t.Slug, &parent); err != nil {
			return nil, fmt.Errorf("scanning term: %w", err)
		}
		if parent.Valid {
			t.ParentID = &parent.Int64
		}
		terms = append(terms, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating terms: %w", err)
	}
	return terms, nil
}

// TermCount returns how many terms exist in a taxonomy. Zero means the
// taxonomy is unknown to the mirror.
func (s *Store) TermCount(taxonomy string) (int64, error) {
	if s.db == nil {
		return 0, types.ErrStoreClosed
	}
	var n int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM terms WHERE taxonomy = ?", taxonomy).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting terms for %q: %w", taxonomy, err)
	}
	return n, nil
}

// TermIDSet returns the set of term ids known in a taxonomy, for membership
// checks before a replacement.
func (s *Store) TermIDSet(taxonomy string) (map[int64]bool, error) {
	if s.db == nil {
		return nil, types.ErrStoreClosed
	}

	rows, err := s.db.Query("SELECT term_id FROM terms WHERE taxonomy = ?", taxonomy)
	if err != nil {
		return nil, fmt.Errorf("fetching term ids for %q: %w", taxonomy, err)
	}
	defer rows.Close()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning term id: %w", err)
		}
		ids[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating term ids: %w", err)
	}
	return ids, nil
}

// TermsForPost returns the post's assigned terms grouped by taxonomy.
func (s *Store) TermsForPost(postID int64) (map[string][]types.Term, error) {
	if s.db == nil {
		return nil, types.ErrStoreClosed
	}

	rows, err := s.db.Query(
		`SELECT t.term_id, t.taxonomy, t.name, t.slug, t.parent_id
		 FROM post_terms pt
		 INNER JOIN terms t ON t.term_id = pt.term_id AND t.taxonomy = pt.taxonomy
		 WHERE pt.post_id = ?
		 ORDER BY t.taxonomy, t.name`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching post terms: %w", err)
	}
	defer rows.Close()

	grouped := make(map[string][]types.Term)
	for rows.Next() {
		var t types.Term
		var parent sql.NullInt64
		if err := rows.Scan(&t.TermID, &t.Taxonomy, &t.Name, &t.Slug, &parent); err != nil {
			return nil, fmt.Errorf("scanning post term: %w", err)
		}
		if parent.Valid {
			t.ParentID = &parent.Int64
		}
		grouped[t.Taxonomy] = append(grouped[t.Taxonomy], t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating post terms: %w", err)
	}
	return grouped, nil
}

// postTermIDs reads the post's current assignment ids for one taxonomy
// inside a transaction.
func postTermIDs(tx *sql.Tx, postID int64, taxonomy string) ([]int64, error) {
	rows, err := tx.Query(
		"SELECT term_id FROM post_terms WHERE post_id = ? AND taxonomy = ? ORDER BY term_id",
		postID, taxonomy,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching assignments: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning assignment: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assignments: %w", err)
	}
	return ids, nil
}

// ReplacePostTerms atomically replaces the post's assignment set for one
// taxonomy, records the taxonomy in the dirty-taxonomy marker, marks the
// post dirty, and appends one change-log row holding the old and new id
// sets. The caller validates the taxonomy and every id first; this method
// assumes clean input and still leaves no partial replacement on failure.
func (s *Store) ReplacePostTerms(postID int64, taxonomy string, ids []int64) (old []int64, err error) {
	err = s.withTx(func(tx *sql.Tx) error {
		if _, err := getPostTx(tx, postID); err != nil {
			return err
		}

		current, err := postTermIDs(tx, postID, taxonomy)
		if err != nil {
			return err
		}
		old = current

		if _, err := tx.Exec(
			"DELETE FROM post_terms WHERE post_id = ? AND taxonomy = ?", postID, taxonomy,
		); err != nil {
			return fmt.Errorf("clearing assignments: %w", err)
		}
		for _, id := range ids {
			if _, err := tx.Exec(
				"INSERT INTO post_terms (post_id, term_id, taxonomy) VALUES (?, ?, ?)",
				postID, id, taxonomy,
			); err != nil {
				return fmt.Errorf("inserting assignment %d: %w", id, err)
			}
		}

		if err := markTaxonomyDirty(tx, postID, taxonomy); err != nil {
			return err
		}

		now := time.Now().UTC()
		oldJSON, err := json.Marshal(current)
		if err != nil {
			return fmt.Errorf("encoding old assignments: %w", err)
		}
		newJSON, err := json.Marshal(ids)
		if err != nil {
			return fmt.Errorf("encoding new assignments: %w", err)
		}
		if _, err := appendChange(tx, postID, types.ChangeFieldTermsPrefix+taxonomy,
			string(oldJSON), string(newJSON), now); err != nil {
			return err
		}

		return markDirty(tx, postID, now)
	})
	if err != nil {
		return nil, err
	}
	return old, nil
}
