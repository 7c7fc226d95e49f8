package types

import "time"

// Stats is the derived aggregate view over the mirror. Nothing here is
// stored; every field is computed on demand.
type Stats struct {
	Total      int64            `json:"total"`
	Dirty      int64            `json:"dirty"`
	ByStatus   map[string]int64 `json:"by_status"`
	ByType     map[string]int64 `json:"by_type"`
	LastSynced *time.Time       `json:"last_synced,omitempty"`
	Changes24h int64            `json:"changes_24h"`
}
