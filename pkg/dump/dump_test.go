package dump

import (
	"context"
	"strings"
	"testing"

	"github.com/grafito-db/grafito/internal/exec"
	"github.com/grafito-db/grafito/internal/graph"
	"github.com/grafito-db/grafito/internal/storage"
	"github.com/grafito-db/grafito/internal/values"
)

func newTestExecutor(t *testing.T) (*exec.Executor, *storage.Store) {
	t.Helper()
	st, err := storage.Open(context.Background(), storage.Options{Path: storage.InMemoryPath})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	reg := graph.NewConstraintRegistry()
	g := graph.New(reg)
	return &exec.Executor{Graph: g, Constraints: reg, Querier: st.DB(), MaxHops: 15}, st
}

func TestDumpRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	ex, st := newTestExecutor(t)

	alice, err := ex.Graph.CreateNode(ctx, ex.Querier, []string{"Person"}, map[string]values.Value{
		"name": values.Str("Alice"),
		"age":  values.Int(30),
	})
	if err != nil {
		t.Fatal(err)
	}
	bob, err := ex.Graph.CreateNode(ctx, ex.Querier, []string{"Person"}, map[string]values.Value{
		"name": values.Str("Bob"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ex.Graph.CreateRelationship(ctx, ex.Querier, alice.ID, bob.ID, "KNOWS", map[string]values.Value{
		"since": values.Int(2020),
	}); err != nil {
		t.Fatal(err)
	}

	script, err := Dump(ctx, ex.Graph, ex.Querier)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(script, "_dump_id") {
		t.Fatalf("expected dump script to use the synthetic dump id, got:\n%s", script)
	}

	ex2, _ := newExecutorSharingStore(t, st)
	if err := Restore(ctx, ex2, script, false); err != nil {
		t.Fatalf("restore failed: %v\nscript:\n%s", err, script)
	}

	nodes, err := ex2.Graph.MatchNodes(ctx, ex2.Querier, graph.NodeFilter{Labels: []string{"Person"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 4 {
		t.Fatalf("expected 4 Person nodes after restoring into the same store, got %d", len(nodes))
	}
	for _, n := range nodes {
		if _, ok := n.Properties["_dump_id"]; ok {
			t.Fatalf("expected _dump_id to be stripped after restore, node %d still has it", n.ID)
		}
	}

	rels, err := ex2.Graph.MatchRelationships(ctx, ex2.Querier, graph.RelFilter{Type: "KNOWS"})
	if err != nil {
		t.Fatal(err)
	}
	if len(rels) != 2 {
		t.Fatalf("expected 2 KNOWS relationships after restoring into the same store, got %d", len(rels))
	}
}

func TestDumpRestoreClearExisting(t *testing.T) {
	ctx := context.Background()
	ex, st := newTestExecutor(t)

	a, err := ex.Graph.CreateNode(ctx, ex.Querier, []string{"Keep"}, map[string]values.Value{"name": values.Str("a")})
	if err != nil {
		t.Fatal(err)
	}
	b, err := ex.Graph.CreateNode(ctx, ex.Querier, []string{"Keep"}, map[string]values.Value{"name": values.Str("b")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ex.Graph.CreateRelationship(ctx, ex.Querier, a.ID, b.ID, "LINK", nil); err != nil {
		t.Fatal(err)
	}

	script, err := Dump(ctx, ex.Graph, ex.Querier)
	if err != nil {
		t.Fatal(err)
	}

	// Created after the dump, so only clearExisting can remove it.
	if _, err := ex.Graph.CreateNode(ctx, ex.Querier, []string{"Scratch"}, nil); err != nil {
		t.Fatal(err)
	}

	ex2, _ := newExecutorSharingStore(t, st)
	if err := Restore(ctx, ex2, script, true); err != nil {
		t.Fatal(err)
	}

	scratch, err := ex2.Graph.MatchNodes(ctx, ex2.Querier, graph.NodeFilter{Labels: []string{"Scratch"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(scratch) != 0 {
		t.Fatalf("expected clearExisting to discard the pre-existing Scratch node, found %d", len(scratch))
	}
	keep, err := ex2.Graph.MatchNodes(ctx, ex2.Querier, graph.NodeFilter{Labels: []string{"Keep"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(keep) != 2 {
		t.Fatalf("expected 2 Keep nodes after restore, got %d", len(keep))
	}
}

func newExecutorSharingStore(t *testing.T, st *storage.Store) (*exec.Executor, *storage.Store) {
	t.Helper()
	reg := graph.NewConstraintRegistry()
	g := graph.New(reg)
	return &exec.Executor{Graph: g, Constraints: reg, Querier: st.DB(), MaxHops: 15}, st
}
