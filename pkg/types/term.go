package types

// Term is a single classification value within a taxonomy. Term IDs are
// unique only within their taxonomy, so (TermID, Taxonomy) is the identity.
// Terms are created by the sync process and read-only here.
type Term struct {
	TermID   int64  `json:"term_id"`
	Taxonomy string `json:"taxonomy"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ParentID *int64 `json:"parent_id,omitempty"`
}
