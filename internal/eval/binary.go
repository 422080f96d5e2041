package eval

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/grafito-db/grafito/internal/ast"
	"github.com/grafito-db/grafito/internal/gerrors"
	"github.com/grafito-db/grafito/internal/values"
)

func (e *Evaluator) evalBinary(n *ast.BinaryOp, frame Frame) (values.Value, error) {
	switch n.Op {
	case "and":
		return e.evalAnd(n, frame)
	case "or":
		return e.evalOr(n, frame)
	case "xor":
		return e.evalXor(n, frame)
	}

	left, err := e.Eval(n.Left, frame)
	if err != nil {
		return values.Value{}, err
	}
	right, err := e.Eval(n.Right, frame)
	if err != nil {
		return values.Value{}, err
	}

	switch n.Op {
	case "=":
		eq, isNull := values.Equal(left, right)
		if isNull {
			return values.Null(), nil
		}
		return values.Bool(eq), nil
	case "<>":
		eq, isNull := values.Equal(left, right)
		if isNull {
			return values.Null(), nil
		}
		return values.Bool(!eq), nil
	case "<", "<=", ">", ">=":
		return compareOp(n.Op, left, right)
	case "=~":
		return regexMatch(left, right)
	case "+", "-", "*", "/", "%", "^":
		return arith(n.Op, left, right)
	default:
		return values.Value{}, &gerrors.QueryExecutionError{Message: fmt.Sprintf("unknown binary operator %q", n.Op)}
	}
}

// evalAnd/evalOr/evalXor implement Cypher's three-valued boolean logic
// with short-circuiting, per the truth tables in §4.6.
func (e *Evaluator) evalAnd(n *ast.BinaryOp, frame Frame) (values.Value, error) {
	lt, lNull, err := e.Truthy(n.Left, frame)
	if err != nil {
		return values.Value{}, err
	}
	if !lNull && !lt {
		return values.Bool(false), nil
	}
	rt, rNull, err := e.Truthy(n.Right, frame)
	if err != nil {
		return values.Value{}, err
	}
	if !rNull && !rt {
		return values.Bool(false), nil
	}
	if lNull || rNull {
		return values.Null(), nil
	}
	return values.Bool(true), nil
}

func (e *Evaluator) evalOr(n *ast.BinaryOp, frame Frame) (values.Value, error) {
	lt, lNull, err := e.Truthy(n.Left, frame)
	if err != nil {
		return values.Value{}, err
	}
	if !lNull && lt {
		return values.Bool(true), nil
	}
	rt, rNull, err := e.Truthy(n.Right, frame)
	if err != nil {
		return values.Value{}, err
	}
	if !rNull && rt {
		return values.Bool(true), nil
	}
	if lNull || rNull {
		return values.Null(), nil
	}
	return values.Bool(false), nil
}

func (e *Evaluator) evalXor(n *ast.BinaryOp, frame Frame) (values.Value, error) {
	lt, lNull, err := e.Truthy(n.Left, frame)
	if err != nil {
		return values.Value{}, err
	}
	rt, rNull, err := e.Truthy(n.Right, frame)
	if err != nil {
		return values.Value{}, err
	}
	if lNull || rNull {
		return values.Null(), nil
	}
	return values.Bool(lt != rt), nil
}

func compareOp(op string, left, right values.Value) (values.Value, error) {
	cmp, isNull := values.Compare(left, right)
	if left.Kind() == values.KindNull || right.Kind() == values.KindNull {
		return values.Null(), nil
	}
	_ = isNull
	switch op {
	case "<":
		return values.Bool(cmp < 0), nil
	case "<=":
		return values.Bool(cmp <= 0), nil
	case ">":
		return values.Bool(cmp > 0), nil
	case ">=":
		return values.Bool(cmp >= 0), nil
	default:
		return values.Value{}, &gerrors.QueryExecutionError{Message: fmt.Sprintf("unknown comparison operator %q", op)}
	}
}

func regexMatch(left, right values.Value) (values.Value, error) {
	if left.Kind() == values.KindNull || right.Kind() == values.KindNull {
		return values.Null(), nil
	}
	s, ok1 := left.Str()
	pat, ok2 := right.Str()
	if !ok1 || !ok2 {
		return values.Value{}, &gerrors.QueryExecutionError{Message: "=~ requires string operands"}
	}
	re, err := regexp2.Compile(pat, regexp2.None)
	if err != nil {
		return values.Value{}, &gerrors.QueryExecutionError{Message: fmt.Sprintf("invalid regex %q: %v", pat, err)}
	}
	matched, err := re.MatchString(s)
	if err != nil {
		return values.Value{}, &gerrors.QueryExecutionError{Message: fmt.Sprintf("regex match %q: %v", pat, err)}
	}
	return values.Bool(matched), nil
}

func arith(op string, left, right values.Value) (values.Value, error) {
	if op == "+" {
		if ls, ok := left.Str(); ok {
			if rs, ok2 := right.Str(); ok2 {
				return values.Str(ls + rs), nil
			}
		}
		if ll, ok := left.List(); ok {
			if rl, ok2 := right.List(); ok2 {
				return values.List(append(append([]values.Value{}, ll...), rl...)), nil
			}
			return values.List(append(append([]values.Value{}, ll...), right)), nil
		}
		if rl, ok := right.List(); ok {
			return values.List(append([]values.Value{left}, rl...)), nil
		}
	}
	if left.Kind() == values.KindNull || right.Kind() == values.KindNull {
		return values.Null(), nil
	}
	if (op == "+" || op == "-") && isTemporal(left) && isTemporal(right) {
		return temporalArith(op, left, right)
	}
	ln, lok := left.Number()
	rn, rok := right.Number()
	if !lok || !rok {
		return values.Value{}, &gerrors.QueryExecutionError{Message: fmt.Sprintf("arithmetic operator %q requires numeric operands", op)}
	}
	bothInt := left.Kind() == values.KindInt && right.Kind() == values.KindInt
	switch op {
	case "+":
		if bothInt {
			li, _ := left.Int()
			ri, _ := right.Int()
			return values.Int(li + ri), nil
		}
		return values.Float(ln + rn), nil
	case "-":
		if bothInt {
			li, _ := left.Int()
			ri, _ := right.Int()
			return values.Int(li - ri), nil
		}
		return values.Float(ln - rn), nil
	case "*":
		if bothInt {
			li, _ := left.Int()
			ri, _ := right.Int()
			return values.Int(li * ri), nil
		}
		return values.Float(ln * rn), nil
	case "/":
		if rn == 0 {
			return values.Value{}, &gerrors.QueryExecutionError{Message: "division by zero"}
		}
		if bothInt {
			li, _ := left.Int()
			ri, _ := right.Int()
			return values.Int(li / ri), nil
		}
		return values.Float(ln / rn), nil
	case "%":
		if rn == 0 {
			return values.Value{}, &gerrors.QueryExecutionError{Message: "modulo by zero"}
		}
		if bothInt {
			li, _ := left.Int()
			ri, _ := right.Int()
			return values.Int(li % ri), nil
		}
		return values.Float(floatMod(ln, rn)), nil
	case "^":
		return values.Float(floatPow(ln, rn)), nil
	default:
		return values.Value{}, &gerrors.QueryExecutionError{Message: fmt.Sprintf("unknown arithmetic operator %q", op)}
	}
}

func (e *Evaluator) evalListPredicate(n *ast.ListPredicate, frame Frame) (values.Value, error) {
	operand, err := e.Eval(n.Operand, frame)
	if err != nil {
		return values.Value{}, err
	}
	arg, err := e.Eval(n.Arg, frame)
	if err != nil {
		return values.Value{}, err
	}
	switch n.Op {
	case "in":
		if arg.Kind() == values.KindNull {
			return values.Null(), nil
		}
		list, ok := arg.List()
		if !ok {
			return values.Value{}, &gerrors.QueryExecutionError{Message: "IN requires a list operand"}
		}
		sawNull := operand.Kind() == values.KindNull
		for _, item := range list {
			eq, isNull := values.Equal(operand, item)
			if isNull {
				sawNull = true
				continue
			}
			if eq {
				return values.Bool(true), nil
			}
		}
		if sawNull {
			return values.Null(), nil
		}
		return values.Bool(false), nil
	case "starts_with", "ends_with", "contains":
		if operand.Kind() == values.KindNull || arg.Kind() == values.KindNull {
			return values.Null(), nil
		}
		s, ok1 := operand.Str()
		sub, ok2 := arg.Str()
		if !ok1 || !ok2 {
			return values.Value{}, &gerrors.QueryExecutionError{Message: fmt.Sprintf("%s requires string operands", n.Op)}
		}
		switch n.Op {
		case "starts_with":
			return values.Bool(strings.HasPrefix(s, sub)), nil
		case "ends_with":
			return values.Bool(strings.HasSuffix(s, sub)), nil
		default:
			return values.Bool(strings.Contains(s, sub)), nil
		}
	default:
		return values.Value{}, &gerrors.QueryExecutionError{Message: fmt.Sprintf("unknown list predicate %q", n.Op)}
	}
}
