package exec

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/grafito-db/grafito/internal/ast"
	"github.com/grafito-db/grafito/internal/eval"
	"github.com/grafito-db/grafito/internal/gerrors"
	"github.com/grafito-db/grafito/internal/values"
)

func (ex *Executor) execWith(ctx context.Context, c *ast.WithClause, in []eval.Frame) ([]eval.Frame, []string, error) {
	rows, cols, err := ex.project(ctx, in, c.Items, c.Star, c.Distinct, c.OrderBy, c.Skip, c.Limit)
	if err != nil {
		return nil, nil, err
	}
	if c.Where != nil {
		e := ex.evaluator()
		var filtered []eval.Frame
		for _, f := range rows {
			t, isNull, err := e.Truthy(c.Where, f)
			if err != nil {
				return nil, nil, err
			}
			if !isNull && t {
				filtered = append(filtered, f)
			}
		}
		rows = filtered
	}
	return rows, cols, nil
}

func (ex *Executor) execReturn(ctx context.Context, c *ast.ReturnClause, in []eval.Frame) ([]eval.Frame, []string, error) {
	return ex.project(ctx, in, c.Items, c.Star, c.Distinct, c.OrderBy, c.Skip, c.Limit)
}

func (ex *Executor) project(ctx context.Context, in []eval.Frame, items []*ast.ProjectionItem, star, distinct bool, orderBy []*ast.OrderItem, skip, limit ast.Expr) ([]eval.Frame, []string, error) {
	var cols []string
	var rows []eval.Frame
	var err error

	if star {
		cols = allVariables(in)
		rows = in
	} else if hasAggregate(items) {
		rows, cols, err = ex.aggregateProject(in, items)
	} else {
		rows, cols, err = ex.plainProject(in, items)
	}
	if err != nil {
		return nil, nil, err
	}

	if distinct {
		rows = dedupFrames(rows, cols)
	}

	if len(orderBy) > 0 {
		if err := ex.sortFrames(rows, orderBy); err != nil {
			return nil, nil, err
		}
	}

	rows, err = ex.applySkipLimit(rows, skip, limit)
	if err != nil {
		return nil, nil, err
	}

	return rows, cols, nil
}

func allVariables(in []eval.Frame) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for k := range in[0] {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func (ex *Executor) plainProject(in []eval.Frame, items []*ast.ProjectionItem) ([]eval.Frame, []string, error) {
	e := ex.evaluator()
	cols := make([]string, len(items))
	for i, item := range items {
		cols[i] = projectionAlias(item, i)
	}
	out := make([]eval.Frame, 0, len(in))
	for _, frame := range in {
		nf := eval.Frame{}
		for i, item := range items {
			v, err := e.Eval(item.Expr, frame)
			if err != nil {
				return nil, nil, err
			}
			nf[cols[i]] = v
		}
		out = append(out, nf)
	}
	return out, cols, nil
}

func projectionAlias(item *ast.ProjectionItem, i int) string {
	if item.Alias != "" {
		return item.Alias
	}
	if v, ok := item.Expr.(*ast.Variable); ok {
		return v.Name
	}
	return fmt.Sprintf("col%d", i)
}

func hasAggregate(items []*ast.ProjectionItem) bool {
	for _, item := range items {
		if exprHasAggregate(item.Expr) {
			return true
		}
	}
	return false
}

func exprHasAggregate(e ast.Expr) bool {
	switch n := e.(type) {
	case *ast.FunctionCall:
		if isAggregateName(n.Name) {
			return true
		}
		for _, a := range n.Args {
			if exprHasAggregate(a) {
				return true
			}
		}
	case *ast.BinaryOp:
		return exprHasAggregate(n.Left) || exprHasAggregate(n.Right)
	case *ast.UnaryOp:
		return exprHasAggregate(n.Operand)
	case *ast.PropertyAccess:
		return exprHasAggregate(n.Target)
	case *ast.CaseExpr:
		for _, w := range n.Whens {
			if exprHasAggregate(w.Cond) || exprHasAggregate(w.Then) {
				return true
			}
		}
		return exprHasAggregate(n.Else)
	}
	return false
}

func isAggregateName(name string) bool {
	switch strings.ToLower(name) {
	case "count", "sum", "avg", "min", "max", "collect", "stddev", "stddevp", "percentilecont", "percentiledisc":
		return true
	default:
		return false
	}
}

// aggregateProject groups rows by every non-aggregate projection
// expression and evaluates the aggregate expressions per group (§4.6/§4.7).
func (ex *Executor) aggregateProject(in []eval.Frame, items []*ast.ProjectionItem) ([]eval.Frame, []string, error) {
	cols := make([]string, len(items))
	for i, item := range items {
		cols[i] = projectionAlias(item, i)
	}

	type group struct {
		key     string
		keyVal  eval.Frame
		aggs    map[int]eval.Aggregator
		distinc map[int]map[string]bool
	}
	groups := make(map[string]*group)
	var order []string

	e := ex.evaluator()
	for _, frame := range in {
		keyFrame := eval.Frame{}
		for i, item := range items {
			if !exprHasAggregate(item.Expr) {
				v, err := e.Eval(item.Expr, frame)
				if err != nil {
					return nil, nil, err
				}
				keyFrame[cols[i]] = v
			}
		}
		key := frameKey(keyFrame, cols)
		g, ok := groups[key]
		if !ok {
			g = &group{key: key, keyVal: keyFrame, aggs: map[int]eval.Aggregator{}, distinc: map[int]map[string]bool{}}
			for i, item := range items {
				if exprHasAggregate(item.Expr) {
					fc, _, percentile, err := extractAggregateCall(item.Expr, e, frame)
					if err != nil {
						return nil, nil, err
					}
					agg, err := eval.NewAggregator(fc.Name, fc.Star, percentile)
					if err != nil {
						return nil, nil, err
					}
					g.aggs[i] = agg
					if fc.Distinct {
						g.distinc[i] = map[string]bool{}
					}
				}
			}
			groups[key] = g
			order = append(order, key)
		}
		for i, item := range items {
			if !exprHasAggregate(item.Expr) {
				continue
			}
			fc, ok := item.Expr.(*ast.FunctionCall)
			if !ok {
				return nil, nil, &gerrors.QueryExecutionError{Message: "aggregate expression must be a direct function call"}
			}
			if fc.Star {
				g.aggs[i].Add(values.Int(1))
				continue
			}
			if len(fc.Args) == 0 {
				continue
			}
			v, err := e.Eval(fc.Args[0], frame)
			if err != nil {
				return nil, nil, err
			}
			if fc.Distinct {
				enc, _ := values.Encode(v)
				if g.distinc[i][enc] {
					continue
				}
				g.distinc[i][enc] = true
			}
			g.aggs[i].Add(v)
		}
	}

	out := make([]eval.Frame, 0, len(order))
	for _, key := range order {
		g := groups[key]
		nf := eval.Frame{}
		for i, col := range cols {
			if agg, ok := g.aggs[i]; ok {
				nf[col] = agg.Result()
			} else {
				nf[col] = g.keyVal[col]
			}
		}
		out = append(out, nf)
	}
	return out, cols, nil
}

func extractAggregateCall(e ast.Expr, ev *eval.Evaluator, frame eval.Frame) (*ast.FunctionCall, bool, float64, error) {
	fc, ok := e.(*ast.FunctionCall)
	if !ok {
		return nil, false, 0, &gerrors.QueryExecutionError{Message: "aggregate expression must be a direct function call"}
	}
	percentile := 0.0
	if strings.EqualFold(fc.Name, "percentileCont") || strings.EqualFold(fc.Name, "percentileDisc") {
		if len(fc.Args) < 2 {
			return nil, false, 0, &gerrors.QueryExecutionError{Message: fc.Name + " requires a percentile argument"}
		}
		pv, err := ev.Eval(fc.Args[1], frame)
		if err != nil {
			return nil, false, 0, err
		}
		percentile, _ = pv.Number()
	}
	return fc, fc.Distinct, percentile, nil
}

func (ex *Executor) sortFrames(rows []eval.Frame, orderBy []*ast.OrderItem) error {
	e := ex.evaluator()
	var sortErr error
	sort.SliceStable(rows, func(i, j int) bool {
		for _, item := range orderBy {
			vi, err := e.Eval(item.Expr, rows[i])
			if err != nil {
				sortErr = err
				return false
			}
			vj, err := e.Eval(item.Expr, rows[j])
			if err != nil {
				sortErr = err
				return false
			}
			cmp, _ := values.Compare(vi, vj)
			if cmp == 0 {
				continue
			}
			if item.Descending && !vi.IsNull() && !vj.IsNull() {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	return sortErr
}

func (ex *Executor) applySkipLimit(rows []eval.Frame, skipExpr, limitExpr ast.Expr) ([]eval.Frame, error) {
	e := ex.evaluator()
	start := 0
	if skipExpr != nil {
		v, err := e.Eval(skipExpr, eval.Frame{})
		if err != nil {
			return nil, err
		}
		n, _ := v.Int()
		start = int(n)
	}
	if start > len(rows) {
		start = len(rows)
	}
	rows = rows[start:]
	if limitExpr != nil {
		v, err := e.Eval(limitExpr, eval.Frame{})
		if err != nil {
			return nil, err
		}
		n, _ := v.Int()
		if int(n) < len(rows) {
			rows = rows[:n]
		}
	}
	return rows, nil
}
