package graph

import (
	"context"
	"testing"

	"github.com/grafito-db/grafito/internal/storage"
	"github.com/grafito-db/grafito/internal/values"
)

func newTestGraph(t *testing.T) (*Graph, *storage.Store) {
	t.Helper()
	store, err := storage.Open(context.Background(), storage.Options{Path: storage.InMemoryPath})
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return New(NewConstraintRegistry()), store
}

func TestCreateAndGetNode(t *testing.T) {
	g, store := newTestGraph(t)
	ctx := context.Background()
	n, err := g.CreateNode(ctx, store.DB(), []string{"Person"}, map[string]values.Value{
		"name": values.Str("Ada"),
	})
	if err != nil {
		t.Fatalf("create node: %v", err)
	}
	got, err := g.GetNode(ctx, store.DB(), n.ID)
	if err != nil {
		t.Fatalf("get node: %v", err)
	}
	name, ok := got.Properties["name"]
	if !ok {
		t.Fatal("expected name property to be set")
	}
	s, _ := name.Str()
	if s != "Ada" {
		t.Fatalf("expected name Ada, got %q", s)
	}
	if len(got.Labels) != 1 || got.Labels[0] != "Person" {
		t.Fatalf("expected label Person, got %+v", got.Labels)
	}
}

func TestGetNodeMissingReturnsNotFound(t *testing.T) {
	g, store := newTestGraph(t)
	_, err := g.GetNode(context.Background(), store.DB(), 999)
	if err == nil {
		t.Fatal("expected a not-found error for a missing node")
	}
}

func TestUpdateNodeProperties(t *testing.T) {
	g, store := newTestGraph(t)
	ctx := context.Background()
	n, err := g.CreateNode(ctx, store.DB(), nil, map[string]values.Value{"age": values.Int(30)})
	if err != nil {
		t.Fatalf("create node: %v", err)
	}
	updated, err := g.UpdateNodeProperties(ctx, store.DB(), n.ID, map[string]values.Value{"age": values.Int(31)})
	if err != nil {
		t.Fatalf("update node: %v", err)
	}
	age, _ := updated.Properties["age"].Int()
	if age != 31 {
		t.Fatalf("expected updated age 31, got %d", age)
	}
}

func TestAddAndRemoveLabels(t *testing.T) {
	g, store := newTestGraph(t)
	ctx := context.Background()
	n, err := g.CreateNode(ctx, store.DB(), []string{"Person"}, nil)
	if err != nil {
		t.Fatalf("create node: %v", err)
	}
	if err := g.AddLabels(ctx, store.DB(), n.ID, []string{"Admin"}); err != nil {
		t.Fatalf("add labels: %v", err)
	}
	got, err := g.GetNode(ctx, store.DB(), n.ID)
	if err != nil {
		t.Fatalf("get node: %v", err)
	}
	if len(got.Labels) != 2 {
		t.Fatalf("expected 2 labels after add, got %+v", got.Labels)
	}
	if err := g.RemoveLabels(ctx, store.DB(), n.ID, []string{"Admin"}); err != nil {
		t.Fatalf("remove labels: %v", err)
	}
	got, err = g.GetNode(ctx, store.DB(), n.ID)
	if err != nil {
		t.Fatalf("get node: %v", err)
	}
	if len(got.Labels) != 1 || got.Labels[0] != "Person" {
		t.Fatalf("expected only Person label after remove, got %+v", got.Labels)
	}
}

func TestCreateRelationshipAndNeighbors(t *testing.T) {
	g, store := newTestGraph(t)
	ctx := context.Background()
	a, err := g.CreateNode(ctx, store.DB(), []string{"Person"}, nil)
	if err != nil {
		t.Fatalf("create node a: %v", err)
	}
	b, err := g.CreateNode(ctx, store.DB(), []string{"Person"}, nil)
	if err != nil {
		t.Fatalf("create node b: %v", err)
	}
	rel, err := g.CreateRelationship(ctx, store.DB(), a.ID, b.ID, "KNOWS", nil)
	if err != nil {
		t.Fatalf("create relationship: %v", err)
	}
	if rel.Type != "KNOWS" {
		t.Fatalf("expected type KNOWS, got %q", rel.Type)
	}
	neighbors, err := g.GetNeighbors(ctx, store.DB(), a.ID, DirOutgoing, "")
	if err != nil {
		t.Fatalf("get neighbors: %v", err)
	}
	if len(neighbors) != 1 || neighbors[0].ID != b.ID {
		t.Fatalf("expected b as the only outgoing neighbor, got %+v", neighbors)
	}
}

func TestDetachDeleteNodeRemovesIncidentRelationships(t *testing.T) {
	g, store := newTestGraph(t)
	ctx := context.Background()
	a, _ := g.CreateNode(ctx, store.DB(), nil, nil)
	b, _ := g.CreateNode(ctx, store.DB(), nil, nil)
	rel, err := g.CreateRelationship(ctx, store.DB(), a.ID, b.ID, "KNOWS", nil)
	if err != nil {
		t.Fatalf("create relationship: %v", err)
	}
	if err := g.DetachDeleteNode(ctx, store.DB(), a.ID); err != nil {
		t.Fatalf("detach delete: %v", err)
	}
	if _, err := g.GetNode(ctx, store.DB(), a.ID); err == nil {
		t.Fatal("expected node a to be gone")
	}
	if _, err := g.GetRelationship(ctx, store.DB(), rel.ID); err == nil {
		t.Fatal("expected the incident relationship to be gone too")
	}
}

func TestMatchNodesFiltersByLabelAndProperty(t *testing.T) {
	g, store := newTestGraph(t)
	ctx := context.Background()
	if _, err := g.CreateNode(ctx, store.DB(), []string{"Person"}, map[string]values.Value{"name": values.Str("Ada")}); err != nil {
		t.Fatalf("create node: %v", err)
	}
	if _, err := g.CreateNode(ctx, store.DB(), []string{"Person"}, map[string]values.Value{"name": values.Str("Bob")}); err != nil {
		t.Fatalf("create node: %v", err)
	}
	if _, err := g.CreateNode(ctx, store.DB(), []string{"Document"}, nil); err != nil {
		t.Fatalf("create node: %v", err)
	}
	matches, err := g.MatchNodes(ctx, store.DB(), NodeFilter{
		Labels:     []string{"Person"},
		Properties: map[string]values.Value{"name": values.Str("Ada")},
	})
	if err != nil {
		t.Fatalf("match nodes: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected exactly one match, got %+v", matches)
	}
}
