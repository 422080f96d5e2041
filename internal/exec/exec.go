// Package exec implements the clause executor (§4.7): the binding-frame
// pipeline that drives MATCH, CREATE, MERGE, SET, REMOVE, DELETE, WITH,
// UNWIND, RETURN, and UNION over internal/graph, using internal/eval for
// expression evaluation.
package exec

import (
	"context"
	"fmt"

	"github.com/grafito-db/grafito/internal/ast"
	"github.com/grafito-db/grafito/internal/eval"
	"github.com/grafito-db/grafito/internal/gerrors"
	"github.com/grafito-db/grafito/internal/graph"
	"github.com/grafito-db/grafito/internal/values"
)

// ProcCaller dispatches CALL ... YIELD statements; internal/procs
// implements this so internal/exec doesn't depend on the procedure
// registry directly (it only needs to invoke one).
type ProcCaller interface {
	Call(ctx context.Context, name string, args []values.Value, frame eval.Frame) ([]eval.Frame, []string, error)
}

// Executor runs one statement against a live graph and query connection.
type Executor struct {
	Graph       *graph.Graph
	Constraints *graph.ConstraintRegistry
	Querier     graph.Querier
	Params      map[string]values.Value
	MaxHops     int
	Procs       ProcCaller
}

// Result is the tabular output of a statement: column names in
// projection order, plus one row per output frame.
type Result struct {
	Columns []string
	Rows    []eval.Frame
}

// Execute runs stmt to completion.
func (ex *Executor) Execute(ctx context.Context, stmt *ast.Statement) (*Result, error) {
	if len(stmt.Parts) == 0 {
		return &Result{}, nil
	}
	first, cols, err := ex.runSingleQuery(ctx, stmt.Parts[0])
	if err != nil {
		return nil, err
	}
	rows := first
	for i, part := range stmt.Parts[1:] {
		next, nextCols, err := ex.runSingleQuery(ctx, part)
		if err != nil {
			return nil, err
		}
		if len(nextCols) != len(cols) {
			return nil, &gerrors.QueryExecutionError{Message: "UNION queries must return the same number of columns"}
		}
		rows = append(rows, next...)
		if !stmt.UnionAll[i] {
			rows = dedupFrames(rows, cols)
		}
	}
	return &Result{Columns: cols, Rows: rows}, nil
}

func dedupFrames(frames []eval.Frame, cols []string) []eval.Frame {
	seen := make(map[string]bool, len(frames))
	var out []eval.Frame
	for _, f := range frames {
		key := frameKey(f, cols)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out
}

func frameKey(f eval.Frame, cols []string) string {
	s := ""
	for _, c := range cols {
		v := f[c]
		enc, _ := values.Encode(v)
		s += c + "=" + enc + "\x1f"
	}
	return s
}

// runSingleQuery executes one linear clause chain, returning the final
// projected rows and their column names (empty if the chain ends without
// a RETURN).
func (ex *Executor) runSingleQuery(ctx context.Context, sq *ast.SingleQuery) ([]eval.Frame, []string, error) {
	frames := []eval.Frame{{}}
	var cols []string
	for _, clause := range sq.Clauses {
		var err error
		frames, cols, err = ex.runClause(ctx, clause, frames)
		if err != nil {
			return nil, nil, err
		}
	}
	return frames, cols, nil
}

func (ex *Executor) evaluator() *eval.Evaluator {
	e := eval.New(ex.Params)
	e.PatternEval = ex.evalPatternComprehension
	return e
}

func (ex *Executor) runClause(ctx context.Context, clause ast.Clause, in []eval.Frame) ([]eval.Frame, []string, error) {
	switch c := clause.(type) {
	case *ast.MatchClause:
		out, err := ex.execMatch(ctx, c, in)
		return out, nil, err
	case *ast.CreateClause:
		out, err := ex.execCreate(ctx, c, in)
		return out, nil, err
	case *ast.MergeClause:
		out, err := ex.execMerge(ctx, c, in)
		return out, nil, err
	case *ast.SetClause:
		out, err := ex.execSet(ctx, c, in)
		return out, nil, err
	case *ast.RemoveClause:
		out, err := ex.execRemove(ctx, c, in)
		return out, nil, err
	case *ast.DeleteClause:
		out, err := ex.execDelete(ctx, c, in)
		return out, nil, err
	case *ast.WithClause:
		return ex.execWith(ctx, c, in)
	case *ast.UnwindClause:
		out, err := ex.execUnwind(ctx, c, in)
		return out, nil, err
	case *ast.ReturnClause:
		return ex.execReturn(ctx, c, in)
	case *ast.CallClause:
		return ex.execCall(ctx, c, in)
	case *ast.ShowClause:
		return ex.execShow(ctx, c, in)
	case *ast.CreateIndexClause:
		out, err := ex.execCreateIndex(ctx, c, in)
		return out, nil, err
	case *ast.DropIndexClause:
		out, err := ex.execDropIndex(ctx, c, in)
		return out, nil, err
	case *ast.CreateConstraintClause:
		out, err := ex.execCreateConstraint(ctx, c, in)
		return out, nil, err
	case *ast.DropConstraintClause:
		out, err := ex.execDropConstraint(ctx, c, in)
		return out, nil, err
	default:
		return nil, nil, &gerrors.QueryExecutionError{Message: fmt.Sprintf("unsupported clause %T", clause)}
	}
}
