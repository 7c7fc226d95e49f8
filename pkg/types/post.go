package types

import "time"

// Post statuses mirror the remote CMS status vocabulary. The set is closed;
// the sync process never writes anything outside it and the tool server
// rejects updates that would.
const (
	StatusPublish = "publish"
	StatusDraft   = "draft"
	StatusPending = "pending"
	StatusPrivate = "private"
	StatusTrash   = "trash"
	StatusFuture  = "future"
)

// PostStatuses lists the recognized status values in display order.
var PostStatuses = []string{
	StatusPublish,
	StatusDraft,
	StatusPending,
	StatusPrivate,
	StatusTrash,
	StatusFuture,
}

// validPostStatuses is the set of recognized status values.
var validPostStatuses = map[string]bool{
	StatusPublish: true,
	StatusDraft:   true,
	StatusPending: true,
	StatusPrivate: true,
	StatusTrash:   true,
	StatusFuture:  true,
}

// ValidStatus reports whether s is a recognized post status.
func ValidStatus(s string) bool {
	return validPostStatuses[s]
}

// Post represents one mirrored CMS post. Posts are created by the sync
// process; the tool server only mutates content fields and the dirty flag.
type Post struct {
	ID        int64      `json:"id"`
	PostType  string     `json:"post_type"`
	Title     string     `json:"title"`
	Slug      string     `json:"slug"`
	Status    string     `json:"status"`
	Content   string     `json:"content"`
	Excerpt   string     `json:"excerpt"`
	Dirty     bool       `json:"dirty"`
	SyncedAt  *time.Time `json:"synced_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// PostFields holds the basic-field subset of an update request. Nil pointers
// mean "leave unchanged"; the zero value is a no-op update.
type PostFields struct {
	Title   *string `json:"title,omitempty"`
	Slug    *string `json:"slug,omitempty"`
	Status  *string `json:"status,omitempty"`
	Content *string `json:"content,omitempty"`
	Excerpt *string `json:"excerpt,omitempty"`
}
