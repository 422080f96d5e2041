package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenInMemoryCreatesSchema(t *testing.T) {
	s, err := Open(context.Background(), Options{Path: InMemoryPath})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	tables := []string{"nodes", "relationships", "labels", "node_labels", "rel_types",
		"property_indexes", "property_constraints", "vector_indexes", "vector_entries",
		"text_index_config"}
	for _, name := range tables {
		row := s.DB().QueryRowContext(context.Background(),
			`SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?`, name)
		var count int
		if err := row.Scan(&count); err != nil {
			t.Fatalf("query sqlite_master for %s: %v", name, err)
		}
		if count != 1 {
			t.Fatalf("expected table %s to exist after migration", name)
		}
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "grafito.db")
	first, err := Open(ctx, Options{Path: path})
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	first.Close()

	second, err := Open(ctx, Options{Path: path})
	if err != nil {
		t.Fatalf("second open on an already-migrated db: %v", err)
	}
	defer second.Close()
}

func TestPing(t *testing.T) {
	s, err := Open(context.Background(), Options{Path: InMemoryPath})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestPathReturnsConfiguredPath(t *testing.T) {
	s, err := Open(context.Background(), Options{Path: InMemoryPath})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if s.Path() != InMemoryPath {
		t.Fatalf("expected path %q, got %q", InMemoryPath, s.Path())
	}
}
