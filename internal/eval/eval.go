// Package eval implements the expression evaluator (§4.6): three-valued
// logic, property/index/slice access, the built-in function library, and
// aggregate functions, all operating over internal/values.Value.
package eval

import (
	"fmt"

	"github.com/grafito-db/grafito/internal/ast"
	"github.com/grafito-db/grafito/internal/gerrors"
	"github.com/grafito-db/grafito/internal/values"
)

// Frame is one binding row: variable name to bound value. Nodes and
// relationships are represented as values.Map with the reserved keys
// "__id", "__labels"/"__type", and the entity's own properties merged in,
// so that property access and the built-in library work uniformly over
// nodes, relationships, and plain maps.
type Frame map[string]values.Value

// Clone returns a shallow copy of f, used wherever a clause must branch
// frames without mutating the caller's.
func (f Frame) Clone() Frame {
	out := make(Frame, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Evaluator evaluates expressions against a binding frame and a fixed set
// of query parameters.
type Evaluator struct {
	Params map[string]values.Value
	// PatternEval resolves pattern comprehensions against the live graph;
	// nil disables them (callers outside internal/exec, e.g. tests, may
	// leave it unset if they never evaluate PatternComprehension nodes).
	PatternEval func(path *ast.PathPattern, frame Frame) ([]Frame, error)
}

// New returns an Evaluator bound to params.
func New(params map[string]values.Value) *Evaluator {
	return &Evaluator{Params: params}
}

// Eval evaluates expr against frame.
func (e *Evaluator) Eval(expr ast.Expr, frame Frame) (values.Value, error) {
	switch n := expr.(type) {
	case *ast.NullLiteral:
		return values.Null(), nil
	case *ast.BoolLiteral:
		return values.Bool(n.Value), nil
	case *ast.IntLiteral:
		return values.Int(n.Value), nil
	case *ast.FloatLiteral:
		return values.Float(n.Value), nil
	case *ast.StringLiteral:
		return values.Str(n.Value), nil
	case *ast.Parameter:
		v, ok := e.Params[n.Name]
		if !ok {
			return values.Null(), nil
		}
		return v, nil
	case *ast.Variable:
		v, ok := frame[n.Name]
		if !ok {
			return values.Null(), &gerrors.QueryExecutionError{Message: fmt.Sprintf("unbound variable %q", n.Name)}
		}
		return v, nil
	case *ast.ListLiteral:
		items := make([]values.Value, 0, len(n.Items))
		for _, it := range n.Items {
			v, err := e.Eval(it, frame)
			if err != nil {
				return values.Value{}, err
			}
			items = append(items, v)
		}
		return values.List(items), nil
	case *ast.MapLiteral:
		m := make(map[string]values.Value, len(n.Entries))
		for _, ent := range n.Entries {
			v, err := e.Eval(ent.Value, frame)
			if err != nil {
				return values.Value{}, err
			}
			m[ent.Key] = v
		}
		return values.Map(m), nil
	case *ast.PropertyAccess:
		return e.evalPropertyAccess(n, frame)
	case *ast.IndexAccess:
		return e.evalIndexAccess(n, frame)
	case *ast.SliceAccess:
		return e.evalSliceAccess(n, frame)
	case *ast.UnaryOp:
		return e.evalUnary(n, frame)
	case *ast.BinaryOp:
		return e.evalBinary(n, frame)
	case *ast.IsNullTest:
		v, err := e.Eval(n.Operand, frame)
		if err != nil {
			return values.Value{}, err
		}
		isNull := v.Kind() == values.KindNull
		if n.Negate {
			return values.Bool(!isNull), nil
		}
		return values.Bool(isNull), nil
	case *ast.ListPredicate:
		return e.evalListPredicate(n, frame)
	case *ast.FunctionCall:
		return e.evalFunctionCall(n, frame)
	case *ast.ListComprehension:
		return e.evalListComprehension(n, frame)
	case *ast.PatternComprehension:
		return e.evalPatternComprehension(n, frame)
	case *ast.CaseExpr:
		return e.evalCase(n, frame)
	default:
		return values.Value{}, &gerrors.QueryExecutionError{Message: fmt.Sprintf("unsupported expression node %T", expr)}
	}
}

// Truthy evaluates expr and applies three-valued truthiness, returning
// (truth, isNull).
func (e *Evaluator) Truthy(expr ast.Expr, frame Frame) (bool, bool, error) {
	v, err := e.Eval(expr, frame)
	if err != nil {
		return false, false, err
	}
	t, isNull, ok := v.Truthy()
	if !ok && !isNull {
		return false, false, &gerrors.QueryExecutionError{Message: fmt.Sprintf("expected boolean, got %s", v.Kind())}
	}
	return t, isNull, nil
}

func (e *Evaluator) evalPropertyAccess(n *ast.PropertyAccess, frame Frame) (values.Value, error) {
	target, err := e.Eval(n.Target, frame)
	if err != nil {
		return values.Value{}, err
	}
	return propertyOf(target, n.Name)
}

// propertyOf implements §4.6's broadcast rule: accessing a property on a
// list evaluates element-wise.
func propertyOf(target values.Value, name string) (values.Value, error) {
	switch target.Kind() {
	case values.KindNull:
		return values.Null(), nil
	case values.KindMap:
		m, _ := target.Map()
		v, ok := m[name]
		if !ok {
			return values.Null(), nil
		}
		return v, nil
	case values.KindList:
		items, _ := target.List()
		out := make([]values.Value, len(items))
		for i, it := range items {
			v, err := propertyOf(it, name)
			if err != nil {
				return values.Value{}, err
			}
			out[i] = v
		}
		return values.List(out), nil
	case values.KindDate, values.KindTime, values.KindDateTime, values.KindLocalTime, values.KindLocalDateTime, values.KindDuration:
		return temporalComponent(target, name)
	default:
		return values.Value{}, &gerrors.QueryExecutionError{Message: fmt.Sprintf("cannot access property %q on %s", name, target.Kind())}
	}
}

func (e *Evaluator) evalIndexAccess(n *ast.IndexAccess, frame Frame) (values.Value, error) {
	target, err := e.Eval(n.Target, frame)
	if err != nil {
		return values.Value{}, err
	}
	idx, err := e.Eval(n.Index, frame)
	if err != nil {
		return values.Value{}, err
	}
	if target.Kind() == values.KindNull || idx.Kind() == values.KindNull {
		return values.Null(), nil
	}
	switch target.Kind() {
	case values.KindList:
		items, _ := target.List()
		i, ok := idx.Int()
		if !ok {
			return values.Value{}, &gerrors.QueryExecutionError{Message: "list index must be an integer"}
		}
		pos := normalizeIndex(i, len(items))
		if pos < 0 || pos >= len(items) {
			return values.Null(), nil
		}
		return items[pos], nil
	case values.KindMap:
		m, _ := target.Map()
		key, ok := idx.Str()
		if !ok {
			return values.Value{}, &gerrors.QueryExecutionError{Message: "map index must be a string"}
		}
		v, ok := m[key]
		if !ok {
			return values.Null(), nil
		}
		return v, nil
	default:
		return values.Value{}, &gerrors.QueryExecutionError{Message: fmt.Sprintf("cannot index into %s", target.Kind())}
	}
}

func normalizeIndex(i int64, n int) int {
	if i < 0 {
		return n + int(i)
	}
	return int(i)
}

func (e *Evaluator) evalSliceAccess(n *ast.SliceAccess, frame Frame) (values.Value, error) {
	target, err := e.Eval(n.Target, frame)
	if err != nil {
		return values.Value{}, err
	}
	if target.Kind() == values.KindNull {
		return values.Null(), nil
	}
	items, ok := target.List()
	if !ok {
		return values.Value{}, &gerrors.QueryExecutionError{Message: "slice access requires a list"}
	}
	from, to := 0, len(items)
	if n.From != nil {
		v, err := e.Eval(n.From, frame)
		if err != nil {
			return values.Value{}, err
		}
		if v.Kind() != values.KindNull {
			i, _ := v.Int()
			from = clampIndex(normalizeIndex(i, len(items)), len(items))
		}
	}
	if n.To != nil {
		v, err := e.Eval(n.To, frame)
		if err != nil {
			return values.Value{}, err
		}
		if v.Kind() != values.KindNull {
			i, _ := v.Int()
			to = clampIndex(normalizeIndex(i, len(items)), len(items))
		}
	}
	if from > to {
		return values.List(nil), nil
	}
	out := make([]values.Value, to-from)
	copy(out, items[from:to])
	return values.List(out), nil
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

func (e *Evaluator) evalUnary(n *ast.UnaryOp, frame Frame) (values.Value, error) {
	v, err := e.Eval(n.Operand, frame)
	if err != nil {
		return values.Value{}, err
	}
	switch n.Op {
	case "not":
		t, isNull, ok := v.Truthy()
		if isNull {
			return values.Null(), nil
		}
		if !ok {
			return values.Value{}, &gerrors.QueryExecutionError{Message: fmt.Sprintf("expected boolean, got %s", v.Kind())}
		}
		return values.Bool(!t), nil
	case "-":
		if v.Kind() == values.KindNull {
			return values.Null(), nil
		}
		if iv, ok := v.Int(); ok && v.Kind() == values.KindInt {
			return values.Int(-iv), nil
		}
		if fv, ok := v.Number(); ok {
			return values.Float(-fv), nil
		}
		return values.Value{}, &gerrors.QueryExecutionError{Message: "unary minus requires a number"}
	default:
		return values.Value{}, &gerrors.QueryExecutionError{Message: fmt.Sprintf("unknown unary operator %q", n.Op)}
	}
}

func (e *Evaluator) evalCase(n *ast.CaseExpr, frame Frame) (values.Value, error) {
	var operand values.Value
	hasOperand := n.Operand != nil
	if hasOperand {
		v, err := e.Eval(n.Operand, frame)
		if err != nil {
			return values.Value{}, err
		}
		operand = v
	}
	for _, when := range n.Whens {
		if hasOperand {
			cmpVal, err := e.Eval(when.Cond, frame)
			if err != nil {
				return values.Value{}, err
			}
			eq, isNull := values.Equal(operand, cmpVal)
			if !isNull && eq {
				return e.Eval(when.Then, frame)
			}
			continue
		}
		t, isNull, err := e.Truthy(when.Cond, frame)
		if err != nil {
			return values.Value{}, err
		}
		if !isNull && t {
			return e.Eval(when.Then, frame)
		}
	}
	if n.Else != nil {
		return e.Eval(n.Else, frame)
	}
	return values.Null(), nil
}

func (e *Evaluator) evalListComprehension(n *ast.ListComprehension, frame Frame) (values.Value, error) {
	src, err := e.Eval(n.Source, frame)
	if err != nil {
		return values.Value{}, err
	}
	if src.Kind() == values.KindNull {
		return values.Null(), nil
	}
	items, ok := src.List()
	if !ok {
		return values.Value{}, &gerrors.QueryExecutionError{Message: "list comprehension source must be a list"}
	}
	var out []values.Value
	for _, item := range items {
		inner := frame.Clone()
		inner[n.Variable] = item
		if n.Where != nil {
			t, isNull, err := e.Truthy(n.Where, inner)
			if err != nil {
				return values.Value{}, err
			}
			if isNull || !t {
				continue
			}
		}
		if n.Project != nil {
			v, err := e.Eval(n.Project, inner)
			if err != nil {
				return values.Value{}, err
			}
			out = append(out, v)
		} else {
			out = append(out, item)
		}
	}
	return values.List(out), nil
}

func (e *Evaluator) evalPatternComprehension(n *ast.PatternComprehension, frame Frame) (values.Value, error) {
	if e.PatternEval == nil {
		return values.Value{}, &gerrors.QueryExecutionError{Message: "pattern comprehensions are not available in this evaluation context"}
	}
	frames, err := e.PatternEval(n.Path, frame)
	if err != nil {
		return values.Value{}, err
	}
	var out []values.Value
	for _, f := range frames {
		if n.Where != nil {
			t, isNull, err := e.Truthy(n.Where, f)
			if err != nil {
				return values.Value{}, err
			}
			if isNull || !t {
				continue
			}
		}
		if n.Project != nil {
			v, err := e.Eval(n.Project, f)
			if err != nil {
				return values.Value{}, err
			}
			out = append(out, v)
		}
	}
	return values.List(out), nil
}
