// The handlers behind the tool catalogue. Each validates before its
// transaction; side effects are confined to store mutation, change-log
// appends, the dirty flag, and the dirty-taxonomy marker.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/driftpress/driftpress/internal/store"
	"github.com/driftpress/driftpress/internal/validate"
	"github.com/driftpress/driftpress/pkg/types"
)

// Paging bounds.
const (
	listDefaultLimit    = 20
	listMaxLimit        = 200
	historyDefaultLimit = 20
	historyMaxLimit     = 100
)

// listPostsResult is the list_posts payload. Total counts every match
// before pagination so callers can page.
type listPostsResult struct {
	Total  int64        `json:"total"`
	Count  int          `json:"count"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
	Posts  []types.Post `json:"posts"`
}

func handleListPosts(s *store.Store, raw json.RawMessage) (any, error) {
	var args listPostsArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	limit := clampLimit(args.Limit, listDefaultLimit, listMaxLimit)
	offset := clampOffset(args.Offset)

	posts, total, err := s.ListPosts(store.ListFilter{
		PostType: args.Type,
		Status:   args.Status,
		Dirty:    args.Dirty,
		Search:   args.Search,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, err
	}

	return listPostsResult{
		Total:  total,
		Count:  len(posts),
		Limit:  limit,
		Offset: offset,
		Posts:  posts,
	}, nil
}

// getPostResult is the get_post payload: the post with its satellite data.
type getPostResult struct {
	Post       types.Post                            `json:"post"`
	Meta       map[string]types.MetaValue            `json:"meta"`
	Terms      map[string][]types.Term               `json:"terms"`
	PluginData map[string]map[string]types.MetaValue `json:"plugin_data"`
}

func handleGetPost(s *store.Store, raw json.RawMessage) (any, error) {
	var args getPostArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	post, err := s.GetPost(args.ID)
	if err != nil {
		return nil, err
	}
	meta, err := s.MetaForPost(args.ID)
	if err != nil {
		return nil, err
	}
	terms, err := s.TermsForPost(args.ID)
	if err != nil {
		return nil, err
	}
	pluginData, err := s.PluginDataForPost(args.ID)
	if err != nil {
		return nil, err
	}

	return getPostResult{
		Post:       *post,
		Meta:       meta,
		Terms:      terms,
		PluginData: pluginData,
	}, nil
}

// updatePostResult reports exactly what an update changed so the caller can
// audit the effect.
type updatePostResult struct {
	PostID  int64               `json:"post_id"`
	Changed []types.ChangeEntry `json:"changed"`
	Changes int                 `json:"change_count"`
	Dirty   bool                `json:"dirty"`
}

func handleUpdatePost(s *store.Store, raw json.RawMessage) (any, error) {
	var args updatePostArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	// Validation runs before the transaction opens; rejected input never
	// touches the store.
	if args.Status != nil {
		if err := validate.Status(*args.Status); err != nil {
			return nil, err
		}
	}

	changes, err := s.UpdatePost(args.ID, args.fields(), args.Meta)
	if err != nil {
		return nil, err
	}

	return updatePostResult{
		PostID:  args.ID,
		Changed: changes,
		Changes: len(changes),
		Dirty:   len(changes) > 0,
	}, nil
}

// updateSeoResult carries the merged blob as stored after the update.
type updateSeoResult struct {
	PostID int64          `json:"post_id"`
	Seo    map[string]any `json:"seo"`
}

func handleUpdateSeo(s *store.Store, raw json.RawMessage) (any, error) {
	var args updateSeoArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	patch, err := args.ToMap()
	if err != nil {
		return nil, fmt.Errorf("encoding patch: %w", err)
	}

	merged, err := s.MergePluginData(args.ID, types.SeoPlugin, types.SeoDataKey, patch)
	if err != nil {
		return nil, err
	}

	return updateSeoResult{PostID: args.ID, Seo: merged}, nil
}

// listTermsResult is the list_terms payload; exactly one of Terms or
// Grouped is set depending on whether a taxonomy filter was given.
type listTermsResult struct {
	Taxonomy string                  `json:"taxonomy,omitempty"`
	Terms    []types.Term            `json:"terms,omitempty"`
	Grouped  map[string][]types.Term `json:"taxonomies,omitempty"`
}

func handleListTerms(s *store.Store, raw json.RawMessage) (any, error) {
	var args listTermsArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	terms, err := s.ListTerms(args.Taxonomy)
	if err != nil {
		return nil, err
	}

	if args.Taxonomy != "" {
		return listTermsResult{Taxonomy: args.Taxonomy, Terms: terms}, nil
	}

	grouped := make(map[string][]types.Term)
	for _, t := range terms {
		grouped[t.Taxonomy] = append(grouped[t.Taxonomy], t)
	}
	return listTermsResult{Grouped: grouped}, nil
}

// termPartition is the machine-usable detail of a rejected replacement.
type termPartition struct {
	ValidIDs   []int64 `json:"valid_ids"`
	InvalidIDs []int64 `json:"invalid_ids"`
}

// setPostTermsResult reports the replaced assignment set.
type setPostTermsResult struct {
	PostID          int64   `json:"post_id"`
	Taxonomy        string  `json:"taxonomy"`
	PreviousTermIDs []int64 `json:"previous_term_ids"`
	TermIDs         []int64 `json:"term_ids"`
}

func handleSetPostTerms(s *store.Store, raw json.RawMessage) (any, error) {
	var args setPostTermsArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	// A repeated id names the same assignment; collapse before validating
	// so the insert loop never trips the table's primary key.
	args.TermIDs = validate.DedupeTermIDs(args.TermIDs)

	count, err := s.TermCount(args.Taxonomy)
	if err != nil {
		return nil, err
	}
	if err := validate.TaxonomyHasTerms(args.Taxonomy, count); err != nil {
		return nil, err
	}

	known, err := s.TermIDSet(args.Taxonomy)
	if err != nil {
		return nil, err
	}
	valid, invalid := validate.PartitionTermIDs(args.TermIDs, known)
	if len(invalid) > 0 {
		// The whole call aborts; existing assignments stay untouched.
		return nil, &callError{
			msg:    fmt.Sprintf("term ids %v do not exist in taxonomy %q", invalid, args.Taxonomy),
			detail: termPartition{ValidIDs: valid, InvalidIDs: invalid},
		}
	}

	previous, err := s.ReplacePostTerms(args.ID, args.Taxonomy, args.TermIDs)
	if err != nil {
		return nil, err
	}

	return setPostTermsResult{
		PostID:          args.ID,
		Taxonomy:        args.Taxonomy,
		PreviousTermIDs: previous,
		TermIDs:         args.TermIDs,
	}, nil
}

func handleGetStats(s *store.Store, raw json.RawMessage) (any, error) {
	var args getStatsArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	stats, err := s.Stats(args.Type)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// getHistoryResult is the get_history payload, newest entry first.
type getHistoryResult struct {
	PostID  int64               `json:"post_id"`
	Count   int                 `json:"count"`
	Entries []types.ChangeEntry `json:"entries"`
}

func handleGetHistory(s *store.Store, raw json.RawMessage) (any, error) {
	var args getHistoryArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	if _, err := s.GetPost(args.ID); err != nil {
		return nil, err
	}

	limit := clampLimit(args.Limit, historyDefaultLimit, historyMaxLimit)
	entries, err := s.History(args.ID, limit)
	if err != nil {
		return nil, err
	}

	return getHistoryResult{PostID: args.ID, Count: len(entries), Entries: entries}, nil
}
