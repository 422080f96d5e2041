package exec

import (
	"context"

	"github.com/grafito-db/grafito/internal/ast"
	"github.com/grafito-db/grafito/internal/eval"
	"github.com/grafito-db/grafito/internal/gerrors"
	"github.com/grafito-db/grafito/internal/values"
)

func (ex *Executor) execShow(ctx context.Context, c *ast.ShowClause, in []eval.Frame) ([]eval.Frame, []string, error) {
	switch {
	case c.Indexes:
		descs, err := ex.Constraints.ShowIndexes(ctx, ex.Querier)
		if err != nil {
			return nil, nil, err
		}
		cols := []string{"name", "entityKind", "labelOrType", "property", "unique"}
		rows := make([]eval.Frame, 0, len(descs))
		for _, d := range descs {
			rows = append(rows, eval.Frame{
				"name":        values.Str(d.Name),
				"entityKind":  values.Str(d.EntityKind),
				"labelOrType": values.Str(d.LabelOrType),
				"property":    values.Str(d.Property),
				"unique":      values.Bool(d.Unique),
			})
		}
		return rows, cols, nil
	case c.Constraints:
		descs, err := ex.Constraints.ShowConstraints(ctx, ex.Querier)
		if err != nil {
			return nil, nil, err
		}
		cols := []string{"name", "kind", "entityKind", "labelOrType", "property", "scalarType"}
		rows := make([]eval.Frame, 0, len(descs))
		for _, d := range descs {
			rows = append(rows, eval.Frame{
				"name":        values.Str(d.Name),
				"kind":        values.Str(string(d.Kind)),
				"entityKind":  values.Str(d.EntityKind),
				"labelOrType": values.Str(d.LabelOrType),
				"property":    values.Str(d.Property),
				"scalarType":  values.Str(d.ScalarType),
			})
		}
		return rows, cols, nil
	default:
		return nil, nil, &gerrors.QueryExecutionError{Message: "SHOW requires INDEXES or CONSTRAINTS"}
	}
}

func (ex *Executor) execCreateIndex(ctx context.Context, c *ast.CreateIndexClause, in []eval.Frame) ([]eval.Frame, error) {
	if err := ex.Constraints.CreateIndex(ctx, ex.Querier, c.Name, c.EntityKind, c.LabelOrType, c.Property, c.Unique); err != nil {
		return nil, err
	}
	return in, nil
}

func (ex *Executor) execDropIndex(ctx context.Context, c *ast.DropIndexClause, in []eval.Frame) ([]eval.Frame, error) {
	if err := ex.Constraints.DropIndex(ctx, ex.Querier, c.Name); err != nil {
		return nil, err
	}
	return in, nil
}

func (ex *Executor) execCreateConstraint(ctx context.Context, c *ast.CreateConstraintClause, in []eval.Frame) ([]eval.Frame, error) {
	kind := gerrors.ConstraintKind(c.Kind)
	if err := ex.Constraints.CreateConstraint(ctx, ex.Querier, c.Name, kind, c.EntityKind, c.LabelOrType, c.Property, c.ScalarType); err != nil {
		return nil, err
	}
	return in, nil
}

func (ex *Executor) execDropConstraint(ctx context.Context, c *ast.DropConstraintClause, in []eval.Frame) ([]eval.Frame, error) {
	if err := ex.Constraints.DropConstraint(ctx, ex.Querier, c.Name); err != nil {
		return nil, err
	}
	return in, nil
}
