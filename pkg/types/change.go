package types

import "time"

// ChangeEntry is one append-only change-log record. Entries are written
// whenever a mutation flips or keeps a post dirty; they are never edited or
// deleted by this process.
type ChangeEntry struct {
	ChangeID  string    `json:"change_id"` // UUID v7, generated on append.
	PostID    int64     `json:"post_id"`
	Field     string    `json:"field"` // e.g. "title", "meta.subtitle", "terms.category", "seo".
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	ChangedAt time.Time `json:"changed_at"`
}

// Change-log field-name prefixes for non-basic-field mutations. Plugin-data
// merges log under the bare plugin name, e.g. "seo".
const (
	ChangeFieldMetaPrefix  = "meta."
	ChangeFieldTermsPrefix = "terms."
)
