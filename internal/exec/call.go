package exec

import (
	"context"

	"github.com/grafito-db/grafito/internal/ast"
	"github.com/grafito-db/grafito/internal/eval"
	"github.com/grafito-db/grafito/internal/gerrors"
	"github.com/grafito-db/grafito/internal/values"
)

// execCall dispatches CALL procedure(...) YIELD ... (§4.8) to the
// registered ProcCaller, merging each returned frame into the calling
// frame and restricting columns to the YIELD list when given.
func (ex *Executor) execCall(ctx context.Context, c *ast.CallClause, in []eval.Frame) ([]eval.Frame, []string, error) {
	if ex.Procs == nil {
		return nil, nil, &gerrors.QueryExecutionError{Message: "no procedures registered"}
	}
	e := ex.evaluator()
	if len(in) == 0 {
		in = []eval.Frame{{}}
	}
	var out []eval.Frame
	var cols []string
	for _, frame := range in {
		args := make([]values.Value, len(c.Args))
		for i, a := range c.Args {
			v, err := e.Eval(a, frame)
			if err != nil {
				return nil, nil, err
			}
			args[i] = v
		}
		results, procCols, err := ex.Procs.Call(ctx, c.Procedure, args, frame)
		if err != nil {
			return nil, nil, err
		}
		if !c.YieldAll {
			for _, y := range c.Yield {
				if !containsCol(procCols, y) {
					return nil, nil, &gerrors.ParseError{Message: "unknown YIELD column " + y + " for procedure " + c.Procedure}
				}
			}
		}
		if cols == nil {
			if c.YieldAll || len(c.Yield) == 0 {
				cols = append(append([]string{}, allVariables([]eval.Frame{frame})...), procCols...)
			} else {
				cols = append(append([]string{}, allVariables([]eval.Frame{frame})...), c.Yield...)
			}
		}
		for _, r := range results {
			nf := frame.Clone()
			if c.YieldAll || len(c.Yield) == 0 {
				for _, pc := range procCols {
					nf[pc] = r[pc]
				}
			} else {
				for _, y := range c.Yield {
					nf[y] = r[y]
				}
			}
			out = append(out, nf)
		}
	}
	return out, cols, nil
}

func containsCol(cols []string, name string) bool {
	for _, c := range cols {
		if c == name {
			return true
		}
	}
	return false
}
