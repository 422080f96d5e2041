package procs

import (
	"context"
	"testing"

	"github.com/grafito-db/grafito/internal/eval"
	"github.com/grafito-db/grafito/internal/graph"
	"github.com/grafito-db/grafito/internal/registry"
	"github.com/grafito-db/grafito/internal/storage"
	"github.com/grafito-db/grafito/internal/textindex"
	"github.com/grafito-db/grafito/internal/values"
	"github.com/grafito-db/grafito/internal/vectorindex"
	"github.com/grafito-db/grafito/pkg/embedder"
)

func newTestRegistry(t *testing.T) (*Registry, *storage.Store, *graph.Graph) {
	t.Helper()
	store, err := storage.Open(context.Background(), storage.Options{Path: storage.InMemoryPath})
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	constraints := graph.NewConstraintRegistry()
	g := graph.New(constraints)
	textIdx, err := textindex.Open(context.Background(), store.DB())
	if err != nil {
		t.Fatalf("open text index: %v", err)
	}
	g.Text = textIdx
	vectors, err := vectorindex.NewManager(context.Background(), store.DB(), registry.New[embedder.Embedder]())
	if err != nil {
		t.Fatalf("new vector manager: %v", err)
	}
	reg := New(Deps{
		Graph:       g,
		Constraints: constraints,
		Querier:     store.DB(),
		DB:          store.DB(),
		Vectors:     vectors,
		Text:        textIdx,
		Embedders:   registry.New[embedder.Embedder](),
	})
	return reg, store, g
}

func TestCallUnknownProcedure(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	_, _, err := reg.Call(context.Background(), "does.not.exist", nil, eval.Frame{})
	if err == nil {
		t.Fatal("expected an error for an unregistered procedure")
	}
}

func TestVectorCreateIndexUpsertAndSearch(t *testing.T) {
	reg, store, g := newTestRegistry(t)
	ctx := context.Background()

	if _, _, err := reg.Call(ctx, "db.vector.createIndex", []values.Value{
		values.Str("docs"), values.Int(3),
	}, eval.Frame{}); err != nil {
		t.Fatalf("create index: %v", err)
	}

	n, err := g.CreateNode(ctx, store.DB(), []string{"Doc"}, nil)
	if err != nil {
		t.Fatalf("create node: %v", err)
	}

	if _, _, err := reg.Call(ctx, "db.vector.upsert", []values.Value{
		values.Str("docs"), values.Int(n.ID),
		values.List([]values.Value{values.Float(1), values.Float(0), values.Float(0)}),
	}, eval.Frame{}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	frames, cols, err := reg.Call(ctx, "db.vector.search", []values.Value{
		values.Str("docs"),
		values.List([]values.Value{values.Float(1), values.Float(0), values.Float(0)}),
		values.Int(1),
	}, eval.Frame{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(cols) != 2 {
		t.Fatalf("expected 2 columns, got %+v", cols)
	}
	if len(frames) != 1 {
		t.Fatalf("expected one search hit, got %+v", frames)
	}
}

func TestTextCreateIndexAndSearch(t *testing.T) {
	reg, store, g := newTestRegistry(t)
	ctx := context.Background()

	if _, _, err := reg.Call(ctx, "db.text.createIndex", []values.Value{
		values.Str("node"), values.Str(""), values.Str("bio"),
	}, eval.Frame{}); err != nil {
		t.Fatalf("create text index: %v", err)
	}

	if _, err := g.CreateNode(ctx, store.DB(), []string{"Person"}, map[string]values.Value{
		"bio": values.Str("a grumpy lighthouse keeper"),
	}); err != nil {
		t.Fatalf("create node: %v", err)
	}

	frames, cols, err := reg.Call(ctx, "db.text.search", []values.Value{values.Str("lighthouse")}, eval.Frame{})
	if err != nil {
		t.Fatalf("text search: %v", err)
	}
	if len(cols) != 3 {
		t.Fatalf("expected 3 columns, got %+v", cols)
	}
	if len(frames) != 1 {
		t.Fatalf("expected one search hit, got %+v", frames)
	}
}

func TestVectorSearchWithoutManagerConfigured(t *testing.T) {
	reg := New(Deps{})
	_, _, err := reg.Call(context.Background(), "db.vector.search", []values.Value{values.Str("x")}, eval.Frame{})
	if err == nil {
		t.Fatal("expected a configuration error when no vector manager is set")
	}
}
