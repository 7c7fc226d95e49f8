// Package storetest creates mirror databases for tests. In production the
// desktop application's sync process owns the schema; the DDL here exists
// only so tests can stand up a realistic mirror in a temp directory.
package storetest

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/driftpress/driftpress/internal/store"
)

// Schema DDL matching what the sync process creates.
var schemaDDL = []string{
	`CREATE TABLE posts (
    id INTEGER PRIMARY KEY,
    post_type TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    slug TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'draft',
    content TEXT NOT NULL DEFAULT '',
    excerpt TEXT NOT NULL DEFAULT '',
    dirty INTEGER NOT NULL DEFAULT 0,
    synced_at TEXT,
    updated_at TEXT NOT NULL DEFAULT ''
);`,
	`CREATE TABLE post_meta (
    post_id INTEGER NOT NULL,
    meta_key TEXT NOT NULL,
    meta_value TEXT NOT NULL,
    PRIMARY KEY (post_id, meta_key)
);`,
	`CREATE TABLE terms (
    term_id INTEGER NOT NULL,
    taxonomy TEXT NOT NULL,
    name TEXT NOT NULL,
    slug TEXT NOT NULL DEFAULT '',
    parent_id INTEGER,
    PRIMARY KEY (term_id, taxonomy)
);`,
	`CREATE TABLE post_terms (
    post_id INTEGER NOT NULL,
    term_id INTEGER NOT NULL,
    taxonomy TEXT NOT NULL,
    PRIMARY KEY (post_id, term_id, taxonomy)
);`,
	`CREATE TABLE plugin_data (
    post_id INTEGER NOT NULL,
    plugin TEXT NOT NULL,
    data_key TEXT NOT NULL,
    data_value TEXT NOT NULL,
    PRIMARY KEY (post_id, plugin, data_key)
);`,
	`CREATE TABLE change_log (
    change_id TEXT PRIMARY KEY,
    post_id INTEGER NOT NULL,
    field TEXT NOT NULL,
    old_value TEXT NOT NULL DEFAULT '',
    new_value TEXT NOT NULL DEFAULT '',
    changed_at TEXT NOT NULL
);`,
	`CREATE INDEX idx_posts_status ON posts(status);`,
	`CREATE INDEX idx_posts_type ON posts(post_type);`,
	`CREATE INDEX idx_posts_dirty ON posts(dirty);`,
	`CREATE INDEX idx_change_log_post ON change_log(post_id, changed_at);`,
}

// CreateDB creates an empty mirror database in a temp directory and returns
// its path.
func CreateDB(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "mirror.db")
	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	defer db.Close()

	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return path
}

// Open creates an empty mirror database and opens a Store on it. The store
// is closed when the test finishes.
func Open(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.Open(CreateDB(t), 2*time.Second)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// OpenSeeded creates a mirror database with representative content and
// opens a Store on it. The fixture holds three posts (two posts, one page),
// a category and tag taxonomy, assignments for post 100, some meta, and an
// SEO blob.
func OpenSeeded(t *testing.T) *store.Store {
	t.Helper()

	path := CreateDB(t)
	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	stmts := []struct {
		sql  string
		args []any
	}{
		{`INSERT INTO posts (id, post_type, title, slug, status, content, excerpt, dirty, synced_at, updated_at)
		  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			[]any{100, "post", "Hello World", "hello-world", "publish", "Welcome to the mirror.", "Welcome", 0, now, now}},
		{`INSERT INTO posts (id, post_type, title, slug, status, content, excerpt, dirty, synced_at, updated_at)
		  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			[]any{101, "post", "Second Post", "second-post", "draft", "Draft body.", "", 0, now, now}},
		{`INSERT INTO posts (id, post_type, title, slug, status, content, excerpt, dirty, synced_at, updated_at)
		  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			[]any{200, "page", "About", "about", "publish", "About this site.", "", 0, now, now}},
		{`INSERT INTO terms (term_id, taxonomy, name, slug) VALUES (?, ?, ?, ?)`,
			[]any{10, "category", "News", "news"}},
		{`INSERT INTO terms (term_id, taxonomy, name, slug) VALUES (?, ?, ?, ?)`,
			[]any{11, "category", "Opinion", "opinion"}},
		{`INSERT INTO terms (term_id, taxonomy, name, slug) VALUES (?, ?, ?, ?)`,
			[]any{20, "post_tag", "golang", "golang"}},
		{`INSERT INTO post_terms (post_id, term_id, taxonomy) VALUES (?, ?, ?)`,
			[]any{100, 10, "category"}},
		{`INSERT INTO post_terms (post_id, term_id, taxonomy) VALUES (?, ?, ?)`,
			[]any{100, 20, "post_tag"}},
		{`INSERT INTO post_meta (post_id, meta_key, meta_value) VALUES (?, ?, ?)`,
			[]any{100, "subtitle", "A fixture post"}},
		{`INSERT INTO plugin_data (post_id, plugin, data_key, data_value) VALUES (?, ?, ?, ?)`,
			[]any{100, "seo", "meta", `{"title":"X","description":"old"}`}},
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt.sql, stmt.args...); err != nil {
			db.Close()
			t.Fatalf("seed: %v", err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close seed db: %v", err)
	}

	s, err := store.Open(path, 2*time.Second)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
