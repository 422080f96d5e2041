package exec

import (
	"context"
	"testing"

	"github.com/grafito-db/grafito/internal/graph"
	"github.com/grafito-db/grafito/internal/parser"
	"github.com/grafito-db/grafito/internal/storage"
	"github.com/grafito-db/grafito/internal/values"
)

func newTestExecutor(t *testing.T) (*Executor, *storage.Store) {
	t.Helper()
	store, err := storage.Open(context.Background(), storage.Options{Path: storage.InMemoryPath})
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	constraints := graph.NewConstraintRegistry()
	g := graph.New(constraints)
	return &Executor{
		Graph:       g,
		Constraints: constraints,
		Querier:     store.DB(),
		Params:      map[string]values.Value{},
		MaxHops:     15,
	}, store
}

func run(t *testing.T, ex *Executor, statement string) *Result {
	t.Helper()
	stmt, err := parser.Parse(statement)
	if err != nil {
		t.Fatalf("parse %q: %v", statement, err)
	}
	res, err := ex.Execute(context.Background(), stmt)
	if err != nil {
		t.Fatalf("execute %q: %v", statement, err)
	}
	return res
}

func TestExecuteCreateAndReturn(t *testing.T) {
	ex, _ := newTestExecutor(t)
	res := run(t, ex, `CREATE (n:Person {name: "Ada"}) RETURN n.name AS name`)
	if len(res.Rows) != 1 {
		t.Fatalf("expected one row, got %d", len(res.Rows))
	}
	name, _ := res.Rows[0]["name"].Str()
	if name != "Ada" {
		t.Fatalf("expected name Ada, got %q", name)
	}
}

func TestExecuteMatchWithWhereFilters(t *testing.T) {
	ex, _ := newTestExecutor(t)
	run(t, ex, `CREATE (n:Person {name: "Ada", age: 36})`)
	run(t, ex, `CREATE (n:Person {name: "Bob", age: 22})`)
	res := run(t, ex, `MATCH (n:Person) WHERE n.age > 30 RETURN n.name AS name`)
	if len(res.Rows) != 1 {
		t.Fatalf("expected one match over 30, got %d rows", len(res.Rows))
	}
	name, _ := res.Rows[0]["name"].Str()
	if name != "Ada" {
		t.Fatalf("expected Ada, got %q", name)
	}
}

func TestExecuteSetUpdatesProperty(t *testing.T) {
	ex, _ := newTestExecutor(t)
	run(t, ex, `CREATE (n:Person {name: "Ada", age: 30})`)
	run(t, ex, `MATCH (n:Person {name: "Ada"}) SET n.age = 31`)
	res := run(t, ex, `MATCH (n:Person {name: "Ada"}) RETURN n.age AS age`)
	age, _ := res.Rows[0]["age"].Int()
	if age != 31 {
		t.Fatalf("expected age 31, got %d", age)
	}
}

func TestExecuteDeleteRemovesNode(t *testing.T) {
	ex, _ := newTestExecutor(t)
	run(t, ex, `CREATE (n:Person {name: "Ada"})`)
	run(t, ex, `MATCH (n:Person {name: "Ada"}) DELETE n`)
	res := run(t, ex, `MATCH (n:Person) RETURN n.name AS name`)
	if len(res.Rows) != 0 {
		t.Fatalf("expected no rows after delete, got %+v", res.Rows)
	}
}

func TestExecuteUnionDeduplicates(t *testing.T) {
	ex, _ := newTestExecutor(t)
	run(t, ex, `CREATE (n:Person {name: "Ada"})`)
	res := run(t, ex, `MATCH (n:Person) RETURN n.name AS name UNION MATCH (m:Person) RETURN m.name AS name`)
	if len(res.Rows) != 1 {
		t.Fatalf("expected UNION to dedupe identical rows, got %d", len(res.Rows))
	}
}

func TestExecuteUnionAllKeepsDuplicates(t *testing.T) {
	ex, _ := newTestExecutor(t)
	run(t, ex, `CREATE (n:Person {name: "Ada"})`)
	res := run(t, ex, `MATCH (n:Person) RETURN n.name AS name UNION ALL MATCH (m:Person) RETURN m.name AS name`)
	if len(res.Rows) != 2 {
		t.Fatalf("expected UNION ALL to keep duplicates, got %d", len(res.Rows))
	}
}

func TestExecuteCreateRelationshipAndTraverse(t *testing.T) {
	ex, _ := newTestExecutor(t)
	run(t, ex, `CREATE (a:Person {name: "Ada"})-[:KNOWS]->(b:Person {name: "Bob"})`)
	res := run(t, ex, `MATCH (a:Person {name: "Ada"})-[:KNOWS]->(b:Person) RETURN b.name AS name`)
	if len(res.Rows) != 1 {
		t.Fatalf("expected one traversal match, got %d", len(res.Rows))
	}
	name, _ := res.Rows[0]["name"].Str()
	if name != "Bob" {
		t.Fatalf("expected Bob, got %q", name)
	}
}
