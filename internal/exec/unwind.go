package exec

import (
	"context"

	"github.com/grafito-db/grafito/internal/ast"
	"github.com/grafito-db/grafito/internal/eval"
	"github.com/grafito-db/grafito/internal/values"
)

// execUnwind expands each input frame into one output frame per element
// of the evaluated list expression (§4.7); a null or empty list drops the
// frame entirely, matching Cypher's UNWIND semantics.
func (ex *Executor) execUnwind(ctx context.Context, c *ast.UnwindClause, in []eval.Frame) ([]eval.Frame, error) {
	e := ex.evaluator()
	var out []eval.Frame
	for _, frame := range in {
		v, err := e.Eval(c.Expr, frame)
		if err != nil {
			return nil, err
		}
		items, ok := v.List()
		if !ok {
			if v.IsNull() {
				continue
			}
			items = []values.Value{v}
		}
		for _, item := range items {
			nf := frame.Clone()
			nf[c.Variable] = item
			out = append(out, nf)
		}
	}
	return out, nil
}
