package store_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/driftpress/driftpress/internal/store"
	"github.com/driftpress/driftpress/internal/store/storetest"
	"github.com/driftpress/driftpress/pkg/types"
)

func TestOpen_MissingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.db")

	_, err := store.Open(path, time.Second)
	if !errors.Is(err, types.ErrMissingDB) {
		t.Fatalf("expected ErrMissingDB, got %v", err)
	}
}

func TestClose_Idempotent(t *testing.T) {
	s, err := store.Open(storetest.CreateDB(t), time.Second)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestListPosts_All(t *testing.T) {
	s := storetest.OpenSeeded(t)

	posts, total, err := s.ListPosts(store.ListFilter{Limit: 20})
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if total != 3 {
		t.Errorf("expected total 3, got %d", total)
	}
	if len(posts) != 3 {
		t.Errorf("expected 3 posts, got %d", len(posts))
	}
}

func TestListPosts_Filters(t *testing.T) {
	s := storetest.OpenSeeded(t)

	tests := []struct {
		name      string
		filter    store.ListFilter
		wantTotal int64
	}{
		{"by type", store.ListFilter{PostType: "page", Limit: 20}, 1},
		{"by status", store.ListFilter{Status: "draft", Limit: 20}, 1},
		{"by search", store.ListFilter{Search: "Hello", Limit: 20}, 1},
		{"search matches content", store.ListFilter{Search: "About this", Limit: 20}, 1},
		{"no match", store.ListFilter{Search: "zzz", Limit: 20}, 0},
		{"wildcards literal", store.ListFilter{Search: "100%", Limit: 20}, 0},
		{"combined", store.ListFilter{PostType: "post", Status: "publish", Limit: 20}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, total, err := s.ListPosts(tt.filter)
			if err != nil {
				t.Fatalf("ListPosts failed: %v", err)
			}
			if total != tt.wantTotal {
				t.Errorf("expected total %d, got %d", tt.wantTotal, total)
			}
			if int64(len(posts)) != tt.wantTotal {
				t.Errorf("expected %d posts, got %d", tt.wantTotal, len(posts))
			}
		})
	}
}

func TestListPosts_DirtyFilter(t *testing.T) {
	s := storetest.OpenSeeded(t)

	title := "Edited"
	if _, err := s.UpdatePost(101, types.PostFields{Title: &title}, nil); err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}

	dirty := true
	posts, total, err := s.ListPosts(store.ListFilter{Dirty: &dirty, Limit: 20})
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if total != 1 || len(posts) != 1 {
		t.Fatalf("expected exactly one dirty post, got total %d", total)
	}
	if posts[0].ID != 101 {
		t.Errorf("expected post 101, got %d", posts[0].ID)
	}

	clean := false
	_, total, err = s.ListPosts(store.ListFilter{Dirty: &clean, Limit: 20})
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if total != 2 {
		t.Errorf("expected 2 clean posts, got %d", total)
	}
}

func TestListPosts_Pagination(t *testing.T) {
	s := storetest.OpenSeeded(t)

	posts, total, err := s.ListPosts(store.ListFilter{Limit: 2})
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if total != 3 {
		t.Errorf("expected total 3 regardless of page size, got %d", total)
	}
	if len(posts) != 2 {
		t.Errorf("expected page of 2, got %d", len(posts))
	}

	rest, total, err := s.ListPosts(store.ListFilter{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if total != 3 {
		t.Errorf("expected total 3, got %d", total)
	}
	if len(rest) != 1 {
		t.Errorf("expected remaining 1, got %d", len(rest))
	}
	if len(rest) == 1 && rest[0].ID == posts[0].ID {
		t.Error("offset page repeated a post from the first page")
	}
}

func TestGetPost(t *testing.T) {
	s := storetest.OpenSeeded(t)

	post, err := s.GetPost(100)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if post.Title != "Hello World" || post.Status != "publish" || post.PostType != "post" {
		t.Errorf("unexpected post: %+v", post)
	}
	if post.Dirty {
		t.Error("fixture post should start clean")
	}
	if post.SyncedAt == nil {
		t.Error("expected synced_at to be set")
	}
}

func TestGetPost_NotFound(t *testing.T) {
	s := storetest.OpenSeeded(t)

	_, err := s.GetPost(9999)
	if !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdatePost_Fields(t *testing.T) {
	s := storetest.OpenSeeded(t)

	title := "Hello Mirror"
	status := "draft"
	changes, err := s.UpdatePost(100, types.PostFields{Title: &title, Status: &status}, nil)
	if err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}

	byField := map[string]types.ChangeEntry{}
	for _, c := range changes {
		byField[c.Field] = c
	}
	if c, ok := byField["title"]; !ok || c.OldValue != "Hello World" || c.NewValue != "Hello Mirror" {
		t.Errorf("unexpected title change: %+v", byField["title"])
	}
	if c, ok := byField["status"]; !ok || c.OldValue != "publish" || c.NewValue != "draft" {
		t.Errorf("unexpected status change: %+v", byField["status"])
	}
	for _, c := range changes {
		if c.ChangeID == "" {
			t.Error("change entry missing id")
		}
		if c.PostID != 100 {
			t.Errorf("change entry has wrong post id %d", c.PostID)
		}
	}

	post, err := s.GetPost(100)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if post.Title != "Hello Mirror" || post.Status != "draft" {
		t.Errorf("update not persisted: %+v", post)
	}
	if !post.Dirty {
		t.Error("expected post to be marked dirty")
	}
}

func TestUpdatePost_Meta(t *testing.T) {
	s := storetest.OpenSeeded(t)

	meta := map[string]any{
		"subtitle": "Rewritten",
		"views":    42,
	}
	changes, err := s.UpdatePost(100, types.PostFields{}, meta)
	if err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}

	byField := map[string]types.ChangeEntry{}
	for _, c := range changes {
		byField[c.Field] = c
	}
	if c := byField["meta.subtitle"]; c.OldValue != "A fixture post" || c.NewValue != "Rewritten" {
		t.Errorf("unexpected subtitle change: %+v", c)
	}
	if c := byField["meta.views"]; c.OldValue != "" || c.NewValue != "42" {
		t.Errorf("unexpected views change: %+v", c)
	}

	stored, err := s.MetaForPost(100)
	if err != nil {
		t.Fatalf("MetaForPost failed: %v", err)
	}
	if stored["subtitle"].Value != "Rewritten" {
		t.Errorf("expected subtitle updated, got %v", stored["subtitle"])
	}
	if stored["views"].Value != float64(42) || !stored["views"].Decoded {
		t.Errorf("expected decoded numeric meta, got %+v", stored["views"])
	}
}

func TestUpdatePost_NoOp(t *testing.T) {
	s := storetest.OpenSeeded(t)

	title := "Hello World"
	changes, err := s.UpdatePost(100, types.PostFields{Title: &title},
		map[string]any{"subtitle": "A fixture post"})
	if err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}
	if len(changes) != 0 {
		t.Errorf("expected no changes for identical values, got %d", len(changes))
	}

	post, err := s.GetPost(100)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if post.Dirty {
		t.Error("no-op update must not mark the post dirty")
	}

	history, err := s.History(100, 50)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("no-op update must not append change-log rows, got %d", len(history))
	}
}

func TestUpdatePost_NotFound(t *testing.T) {
	s := storetest.OpenSeeded(t)

	title := "x"
	_, err := s.UpdatePost(9999, types.PostFields{Title: &title}, nil)
	if !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
