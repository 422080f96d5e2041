package textindex

import (
	"context"
	"testing"

	"github.com/grafito-db/grafito/internal/storage"
)

func openTestDB(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(context.Background(), storage.Options{Path: storage.InMemoryPath})
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertNode(t *testing.T, db Querier, id int64, propsJSON string) {
	t.Helper()
	if _, err := db.ExecContext(context.Background(),
		`INSERT INTO nodes (id, properties) VALUES (?, ?)`, id, propsJSON); err != nil {
		t.Fatalf("insert node: %v", err)
	}
}

func TestOnNodeWriteIndexesConfiguredProperty(t *testing.T) {
	store := openTestDB(t)
	ctx := context.Background()
	idx, err := Open(ctx, store.DB())
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	if err := idx.AddConfig(ctx, Config{EntityKind: "node", Property: "bio", Weight: 1}); err != nil {
		t.Fatalf("add config: %v", err)
	}
	insertNode(t, store.DB(), 1, `{"bio":"a grumpy lighthouse keeper"}`)
	if err := idx.OnNodeWrite(ctx, store.DB(), 1, nil, `{"bio":"a grumpy lighthouse keeper"}`); err != nil {
		t.Fatalf("on node write: %v", err)
	}
	results, err := idx.Search(ctx, "lighthouse", "", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].EntityID != 1 {
		t.Fatalf("expected node 1 to match, got %+v", results)
	}
}

func TestOnNodeWriteScopedToLabelSkipsOthers(t *testing.T) {
	store := openTestDB(t)
	ctx := context.Background()
	idx, err := Open(ctx, store.DB())
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	if err := idx.AddConfig(ctx, Config{EntityKind: "node", LabelOrType: "Person", Property: "bio", Weight: 1}); err != nil {
		t.Fatalf("add config: %v", err)
	}
	insertNode(t, store.DB(), 1, `{"bio":"underwater basket weaving"}`)
	if err := idx.OnNodeWrite(ctx, store.DB(), 1, []string{"Document"}, `{"bio":"underwater basket weaving"}`); err != nil {
		t.Fatalf("on node write: %v", err)
	}
	results, err := idx.Search(ctx, "basket", "", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no matches for an out-of-scope label, got %+v", results)
	}
}

func TestOnNodeDeleteRemovesDocument(t *testing.T) {
	store := openTestDB(t)
	ctx := context.Background()
	idx, err := Open(ctx, store.DB())
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	if err := idx.AddConfig(ctx, Config{EntityKind: "node", Property: "bio", Weight: 1}); err != nil {
		t.Fatalf("add config: %v", err)
	}
	insertNode(t, store.DB(), 1, `{"bio":"a traveling salesman"}`)
	if err := idx.OnNodeWrite(ctx, store.DB(), 1, nil, `{"bio":"a traveling salesman"}`); err != nil {
		t.Fatalf("on node write: %v", err)
	}
	if err := idx.OnNodeDelete(ctx, store.DB(), 1); err != nil {
		t.Fatalf("on node delete: %v", err)
	}
	results, err := idx.Search(ctx, "salesman", "", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected the document to be gone after delete, got %+v", results)
	}
}

func TestOnRelWriteAndDelete(t *testing.T) {
	store := openTestDB(t)
	ctx := context.Background()
	idx, err := Open(ctx, store.DB())
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	if err := idx.AddConfig(ctx, Config{EntityKind: "relationship", LabelOrType: "KNOWS", Property: "note", Weight: 1}); err != nil {
		t.Fatalf("add config: %v", err)
	}
	if err := idx.OnRelWrite(ctx, store.DB(), 1, "KNOWS", `{"note":"met at a conference"}`); err != nil {
		t.Fatalf("on rel write: %v", err)
	}
	results, err := idx.Search(ctx, "conference", "relationship", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one relationship match, got %+v", results)
	}
	if err := idx.OnRelDelete(ctx, store.DB(), 1); err != nil {
		t.Fatalf("on rel delete: %v", err)
	}
	results, err = idx.Search(ctx, "conference", "relationship", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no matches after delete, got %+v", results)
	}
}

func TestRebuildRepopulatesFromExistingRows(t *testing.T) {
	store := openTestDB(t)
	ctx := context.Background()
	idx, err := Open(ctx, store.DB())
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	insertNode(t, store.DB(), 1, `{"bio":"keeps bees as a hobby"}`)
	if err := idx.AddConfig(ctx, Config{EntityKind: "node", Property: "bio", Weight: 1}); err != nil {
		t.Fatalf("add config: %v", err)
	}
	results, err := idx.Search(ctx, "bees", "", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected AddConfig's rebuild to cover the pre-existing node, got %+v", results)
	}
}

func TestSearchScoresAreNonNegative(t *testing.T) {
	store := openTestDB(t)
	ctx := context.Background()
	idx, err := Open(ctx, store.DB())
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	if err := idx.AddConfig(ctx, Config{EntityKind: "node", Property: "bio", Weight: 1}); err != nil {
		t.Fatalf("add config: %v", err)
	}
	insertNode(t, store.DB(), 1, `{"bio":"loves distributed systems"}`)
	if err := idx.OnNodeWrite(ctx, store.DB(), 1, nil, `{"bio":"loves distributed systems"}`); err != nil {
		t.Fatalf("on node write: %v", err)
	}
	results, err := idx.Search(ctx, "distributed", "", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Score < 0 {
		t.Fatalf("expected a non-negative normalized score, got %+v", results)
	}
}
