package types

import "encoding/json"

// Plugin-data addressing for the SEO extension blob.
const (
	SeoPlugin  = "seo"
	SeoDataKey = "meta"
)

// DirtyTaxonomiesMetaKey is the post_meta key holding the per-post list of
// taxonomies with pending assignment changes. The push process clears it;
// this process only appends.
const DirtyTaxonomiesMetaKey = "_dirty_taxonomies"

// SeoPatch is a partial update of the SEO plugin-data blob. Nil fields are
// left untouched in the stored value; the merge never overwrites what the
// patch does not name.
type SeoPatch struct {
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	Canonical   *string         `json:"canonical,omitempty"`
	OpenGraph   *OpenGraphPatch `json:"open_graph,omitempty"`
	Robots      *RobotsPatch    `json:"robots,omitempty"`
}

// OpenGraphPatch is the open-graph sub-object of a SeoPatch.
type OpenGraphPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Image       *string `json:"image,omitempty"`
}

// RobotsPatch is the robots sub-object of a SeoPatch.
type RobotsPatch struct {
	NoIndex  *bool `json:"noindex,omitempty"`
	NoFollow *bool `json:"nofollow,omitempty"`
}

// IsEmpty reports whether the patch names no fields at all.
func (p SeoPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Canonical == nil &&
		p.OpenGraph == nil && p.Robots == nil
}

// ToMap converts the patch to a nested map containing only the named fields,
// suitable for a deep merge into the stored blob. The round trip through
// JSON drops every nil pointer.
func (p SeoPatch) ToMap() (map[string]any, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
