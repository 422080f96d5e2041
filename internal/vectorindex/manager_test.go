package vectorindex

import (
	"context"
	"testing"

	"github.com/grafito-db/grafito/internal/registry"
	"github.com/grafito-db/grafito/internal/storage"
	"github.com/grafito-db/grafito/pkg/embedder"
)

func openTestStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(context.Background(), storage.Options{Path: storage.InMemoryPath})
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestManagerCreateIndexAndUpsert(t *testing.T) {
	store := openTestStore(t)
	embedders := registry.New[embedder.Embedder]()
	mgr, err := NewManager(context.Background(), store.DB(), embedders)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	ctx := context.Background()
	if err := mgr.CreateIndex(ctx, Config{Name: "docs", Dimension: 3, Backend: "bruteforce", Metric: MetricCosine}); err != nil {
		t.Fatalf("create index: %v", err)
	}
	if err := mgr.Upsert(ctx, "docs", 1, []float32{1, 0, 0}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := mgr.Upsert(ctx, "docs", 2, []float32{0, 1, 0}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	results, err := mgr.Search(ctx, "docs", []float32{1, 0, 0}, SearchOptions{K: 1})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ID != 1 {
		t.Fatalf("expected node 1 as the nearest match, got %+v", results)
	}
}

func TestManagerUpsertRejectsWrongDimension(t *testing.T) {
	store := openTestStore(t)
	embedders := registry.New[embedder.Embedder]()
	mgr, err := NewManager(context.Background(), store.DB(), embedders)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	ctx := context.Background()
	if err := mgr.CreateIndex(ctx, Config{Name: "docs", Dimension: 3, Backend: "bruteforce"}); err != nil {
		t.Fatalf("create index: %v", err)
	}
	if err := mgr.Upsert(ctx, "docs", 1, []float32{1, 0}); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestManagerSearchUnknownIndex(t *testing.T) {
	store := openTestStore(t)
	embedders := registry.New[embedder.Embedder]()
	mgr, err := NewManager(context.Background(), store.DB(), embedders)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := mgr.Search(context.Background(), "missing", []float32{1}, SearchOptions{K: 1}); err == nil {
		t.Fatal("expected not-found error for unknown index")
	}
}

func TestManagerEmbedTextRequiresAssociation(t *testing.T) {
	store := openTestStore(t)
	embedders := registry.New[embedder.Embedder]()
	mgr, err := NewManager(context.Background(), store.DB(), embedders)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	ctx := context.Background()
	if err := mgr.CreateIndex(ctx, Config{Name: "docs", Dimension: 3, Backend: "bruteforce"}); err != nil {
		t.Fatalf("create index: %v", err)
	}
	if _, err := mgr.EmbedText(ctx, "docs", "hello"); err == nil {
		t.Fatal("expected ConfigurationError when no embedding function is associated")
	}
}

func TestManagerReloadsPersistedIndexes(t *testing.T) {
	store := openTestStore(t)
	embedders := registry.New[embedder.Embedder]()
	ctx := context.Background()
	mgr, err := NewManager(ctx, store.DB(), embedders)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if err := mgr.CreateIndex(ctx, Config{Name: "docs", Dimension: 2, Backend: "bruteforce"}); err != nil {
		t.Fatalf("create index: %v", err)
	}
	if err := mgr.Upsert(ctx, "docs", 7, []float32{1, 1}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	reloaded, err := NewManager(ctx, store.DB(), embedders)
	if err != nil {
		t.Fatalf("reload manager: %v", err)
	}
	results, err := reloaded.Search(ctx, "docs", []float32{1, 1}, SearchOptions{K: 5})
	if err != nil {
		t.Fatalf("search after reload: %v", err)
	}
	if len(results) != 1 || results[0].ID != 7 {
		t.Fatalf("expected the persisted vector to survive reload, got %+v", results)
	}
}
