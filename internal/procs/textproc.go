package procs

import (
	"context"

	"github.com/grafito-db/grafito/internal/eval"
	"github.com/grafito-db/grafito/internal/gerrors"
	"github.com/grafito-db/grafito/internal/textindex"
	"github.com/grafito-db/grafito/internal/values"
)

// procTextCreateIndex implements db.text.createIndex(entityKind,
// labelOrType, property, weight?) (§4.9): registers a new (entity,
// label-or-type, property) triple and rebuilds existing content to cover
// it.
func procTextCreateIndex(ctx context.Context, deps Deps, args []values.Value, caller eval.Frame) ([]eval.Frame, []string, error) {
	if deps.Text == nil {
		return nil, nil, &gerrors.ConfigurationError{Option: "text", Message: "no text index configured"}
	}
	kind, ok := argStr(args, 0)
	if !ok || (kind != "node" && kind != "relationship") {
		return nil, nil, &gerrors.QueryExecutionError{Message: "db.text.createIndex requires entityKind \"node\" or \"relationship\""}
	}
	labelOrType, _ := argStr(args, 1)
	property, ok := argStr(args, 2)
	if !ok {
		return nil, nil, &gerrors.QueryExecutionError{Message: "db.text.createIndex requires a property name"}
	}
	weight := 1.0
	if len(args) > 3 {
		if n, ok := args[3].Number(); ok {
			weight = n
		}
	}
	c := textindex.Config{EntityKind: kind, LabelOrType: labelOrType, Property: property, Weight: weight}
	if err := deps.Text.AddConfig(ctx, c); err != nil {
		return nil, nil, err
	}
	return nil, nil, nil
}

// procTextRebuild implements db.text.rebuild() (§4.9): a full repopulate
// of the FTS virtual table from current graph content.
func procTextRebuild(ctx context.Context, deps Deps, args []values.Value, caller eval.Frame) ([]eval.Frame, []string, error) {
	if deps.Text == nil {
		return nil, nil, &gerrors.ConfigurationError{Option: "text", Message: "no text index configured"}
	}
	if err := deps.Text.Rebuild(ctx); err != nil {
		return nil, nil, err
	}
	return nil, nil, nil
}

// procTextSearch implements db.text.search(query, kind?, limit?) (§4.9),
// yielding (entity_kind, entity, score) rows: the entity is a node or
// relationship map, and the score is the raw BM25 score normalized to a
// non-negative similarity.
func procTextSearch(ctx context.Context, deps Deps, args []values.Value, caller eval.Frame) ([]eval.Frame, []string, error) {
	if deps.Text == nil {
		return nil, nil, &gerrors.ConfigurationError{Option: "text", Message: "no text index configured"}
	}
	query, ok := argStr(args, 0)
	if !ok {
		return nil, nil, &gerrors.QueryExecutionError{Message: "db.text.search requires a query string"}
	}
	kind, _ := argStr(args, 1)
	limit := int(argInt(args, 2, 10))
	results, err := deps.Text.Search(ctx, query, kind, limit)
	if err != nil {
		return nil, nil, err
	}
	cols := []string{"entity_kind", "entity", "score"}
	out := make([]eval.Frame, 0, len(results))
	for _, r := range results {
		var entity values.Value
		switch r.EntityKind {
		case "node":
			n, err := deps.Graph.GetNode(ctx, deps.Querier, r.EntityID)
			if err != nil {
				continue
			}
			entity = procNodeToValue(n)
		case "relationship":
			rel, err := deps.Graph.GetRelationship(ctx, deps.Querier, r.EntityID)
			if err != nil {
				continue
			}
			entity = procRelToValue(rel)
		default:
			continue
		}
		out = append(out, eval.Frame{
			"entity_kind": values.Str(r.EntityKind),
			"entity":      entity,
			"score":       values.Float(r.Score),
		})
	}
	return out, cols, nil
}
