// Typed argument structs, decoded strictly after schema validation. No
// handler ever reaches into an untyped argument map.
package tools

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/driftpress/driftpress/pkg/types"
)

type listPostsArgs struct {
	Type   string `json:"type,omitempty"`
	Status string `json:"status,omitempty"`
	Dirty  *bool  `json:"dirty,omitempty"`
	Search string `json:"search,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

type getPostArgs struct {
	ID int64 `json:"id"`
}

type updatePostArgs struct {
	ID      int64          `json:"id"`
	Title   *string        `json:"title,omitempty"`
	Slug    *string        `json:"slug,omitempty"`
	Status  *string        `json:"status,omitempty"`
	Content *string        `json:"content,omitempty"`
	Excerpt *string        `json:"excerpt,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// fields converts the argument subset to the store's field representation.
func (a updatePostArgs) fields() types.PostFields {
	return types.PostFields{
		Title:   a.Title,
		Slug:    a.Slug,
		Status:  a.Status,
		Content: a.Content,
		Excerpt: a.Excerpt,
	}
}

type updateSeoArgs struct {
	ID int64 `json:"id"`
	types.SeoPatch
}

type listTermsArgs struct {
	Taxonomy string `json:"taxonomy,omitempty"`
}

type setPostTermsArgs struct {
	ID       int64   `json:"id"`
	Taxonomy string  `json:"taxonomy"`
	TermIDs  []int64 `json:"term_ids"`
}

type getStatsArgs struct {
	Type string `json:"type,omitempty"`
}

type getHistoryArgs struct {
	ID    int64 `json:"id"`
	Limit int   `json:"limit,omitempty"`
}

// decodeArgs unmarshals raw into dst, rejecting unknown fields. Runs after
// schema validation, so a decode failure here is a server bug, not caller
// input.
func decodeArgs(raw json.RawMessage, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decoding arguments: %w", err)
	}
	return nil
}

// clampLimit forces limit into [1, max], substituting def when absent.
func clampLimit(limit, def, max int) int {
	if limit == 0 {
		return def
	}
	if limit < 1 {
		return 1
	}
	if limit > max {
		return max
	}
	return limit
}

// clampOffset forces offset to be non-negative.
func clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
