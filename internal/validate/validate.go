// Package validate holds the pure validation functions the tool handlers
// run before opening any transaction. Nothing here touches the store;
// rejected input never partially mutates state.
package validate

import (
	"fmt"
	"strings"

	"github.com/driftpress/driftpress/pkg/types"
)

// StatusError reports a status value outside the closed status set.
type StatusError struct {
	Value   string
	Allowed []string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("invalid status %q: must be one of %s",
		e.Value, strings.Join(e.Allowed, ", "))
}

// Status checks a status value against the closed CMS status set.
func Status(status string) error {
	if !types.ValidStatus(status) {
		return &StatusError{Value: status, Allowed: types.PostStatuses}
	}
	return nil
}

// UnknownTaxonomyError reports a taxonomy with zero known terms. A taxonomy
// the mirror has never seen is indistinguishable from a typo, so both are
// rejected the same way.
type UnknownTaxonomyError struct {
	Taxonomy string
}

func (e *UnknownTaxonomyError) Error() string {
	return fmt.Sprintf("unknown taxonomy %q: no terms exist for it", e.Taxonomy)
}

// TaxonomyHasTerms rejects a taxonomy name for which the mirror holds no
// terms. termCount is the store's count for that taxonomy.
func TaxonomyHasTerms(taxonomy string, termCount int64) error {
	if termCount == 0 {
		return &UnknownTaxonomyError{Taxonomy: taxonomy}
	}
	return nil
}

// PartitionTermIDs splits ids into those present in known and those not,
// preserving request order. Callers report the invalid partition verbatim so
// the caller of the tool sees exactly which ids were bad.
func PartitionTermIDs(ids []int64, known map[int64]bool) (valid, invalid []int64) {
	valid = []int64{}
	invalid = []int64{}
	for _, id := range ids {
		if known[id] {
			valid = append(valid, id)
		} else {
			invalid = append(invalid, id)
		}
	}
	return valid, invalid
}

// DedupeTermIDs removes repeated ids, keeping the first occurrence's
// position. The assignment table keys on (post, term, taxonomy), so a
// repeated id in a replacement list means the same single assignment.
func DedupeTermIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// EscapeLike escapes SQLite LIKE metacharacters in user-supplied search text
// so it matches literally. The query must use ESCAPE '\'.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
