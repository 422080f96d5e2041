package parser

import (
	"testing"

	"github.com/grafito-db/grafito/internal/ast"
)

func TestParseSimpleMatchReturn(t *testing.T) {
	stmt, err := Parse(`MATCH (n:Person) RETURN n.name AS name`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(stmt.Parts) != 1 {
		t.Fatalf("expected one query part, got %d", len(stmt.Parts))
	}
	clauses := stmt.Parts[0].Clauses
	if len(clauses) != 2 {
		t.Fatalf("expected 2 clauses, got %d", len(clauses))
	}
	match, ok := clauses[0].(*ast.MatchClause)
	if !ok {
		t.Fatalf("expected first clause to be MATCH, got %T", clauses[0])
	}
	if len(match.Pattern.Paths) != 1 || len(match.Pattern.Paths[0].Nodes) != 1 {
		t.Fatalf("expected one node pattern, got %+v", match.Pattern)
	}
	node := match.Pattern.Paths[0].Nodes[0]
	if node.Variable != "n" || len(node.Labels) != 1 || node.Labels[0] != "Person" {
		t.Fatalf("expected node (n:Person), got %+v", node)
	}
	ret, ok := clauses[1].(*ast.ReturnClause)
	if !ok {
		t.Fatalf("expected second clause to be RETURN, got %T", clauses[1])
	}
	if len(ret.Items) != 1 || ret.Items[0].Alias != "name" {
		t.Fatalf("expected return item aliased name, got %+v", ret.Items)
	}
}

func TestParseCreateWithRelationship(t *testing.T) {
	stmt, err := Parse(`CREATE (a:Person)-[:KNOWS]->(b:Person)`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	create, ok := stmt.Parts[0].Clauses[0].(*ast.CreateClause)
	if !ok {
		t.Fatalf("expected CREATE clause, got %T", stmt.Parts[0].Clauses[0])
	}
	path := create.Pattern.Paths[0]
	if len(path.Nodes) != 2 || len(path.Rels) != 1 {
		t.Fatalf("expected a-[rel]->b shape, got %+v", path)
	}
	if path.Rels[0].Direction != ast.DirRight {
		t.Fatalf("expected rightward relationship, got %v", path.Rels[0].Direction)
	}
	if len(path.Rels[0].Types) != 1 || path.Rels[0].Types[0] != "KNOWS" {
		t.Fatalf("expected KNOWS relationship type, got %+v", path.Rels[0].Types)
	}
}

func TestParseVariableLengthRelationship(t *testing.T) {
	stmt, err := Parse(`MATCH (a)-[:KNOWS*1..3]->(b) RETURN a`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	match := stmt.Parts[0].Clauses[0].(*ast.MatchClause)
	rel := match.Pattern.Paths[0].Rels[0]
	if !rel.VarLength || rel.MinHops != 1 || rel.MaxHops != 3 {
		t.Fatalf("expected variable length 1..3, got %+v", rel)
	}
}

func TestParseUnionAll(t *testing.T) {
	stmt, err := Parse(`MATCH (n) RETURN n.name AS name UNION ALL MATCH (m) RETURN m.name AS name`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(stmt.Parts) != 2 {
		t.Fatalf("expected 2 union parts, got %d", len(stmt.Parts))
	}
	if len(stmt.UnionAll) != 1 || !stmt.UnionAll[0] {
		t.Fatalf("expected UNION ALL marker, got %+v", stmt.UnionAll)
	}
}

func TestParseParameterExpression(t *testing.T) {
	stmt, err := Parse(`CREATE (n:Person {name: $name})`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	create := stmt.Parts[0].Clauses[0].(*ast.CreateClause)
	props := create.Pattern.Paths[0].Nodes[0].Properties
	if props == nil {
		t.Fatal("expected node properties to be set")
	}
}

func TestParseRejectsUnterminatedString(t *testing.T) {
	_, err := Parse(`RETURN "unterminated`)
	if err == nil {
		t.Fatal("expected an error for an unterminated string literal")
	}
}

func TestParseRejectsMismatchedParens(t *testing.T) {
	_, err := Parse(`MATCH (n RETURN n`)
	if err == nil {
		t.Fatal("expected a parse error for an unclosed node pattern")
	}
}

func TestParseWhereClauseAttachesToMatch(t *testing.T) {
	stmt, err := Parse(`MATCH (n:Person) WHERE n.age > 30 RETURN n`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	match := stmt.Parts[0].Clauses[0].(*ast.MatchClause)
	if match.Where == nil {
		t.Fatal("expected a WHERE predicate attached to the MATCH clause")
	}
}
