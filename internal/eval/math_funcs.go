package eval

import (
	"math"

	"github.com/grafito-db/grafito/internal/gerrors"
	"github.com/grafito-db/grafito/internal/values"
)

func fnAbs(args []values.Value) (values.Value, error) {
	v := arg(args, 0)
	switch v.Kind() {
	case values.KindNull:
		return values.Null(), nil
	case values.KindInt:
		i, _ := v.Int()
		if i < 0 {
			i = -i
		}
		return values.Int(i), nil
	case values.KindFloat:
		f, _ := v.Float()
		return values.Float(math.Abs(f)), nil
	default:
		return values.Value{}, &gerrors.QueryExecutionError{Message: "abs: expected a number"}
	}
}

func fnCeil(args []values.Value) (values.Value, error) { return mathUnary(args, math.Ceil) }
func fnFloor(args []values.Value) (values.Value, error) { return mathUnary(args, math.Floor) }
func fnRound(args []values.Value) (values.Value, error) { return mathUnary(args, math.Round) }

func fnSqrt(args []values.Value) (values.Value, error) {
	v := arg(args, 0)
	if v.Kind() == values.KindNull {
		return values.Null(), nil
	}
	n, ok := v.Number()
	if !ok {
		return values.Value{}, &gerrors.QueryExecutionError{Message: "sqrt: expected a number"}
	}
	return values.Float(math.Sqrt(n)), nil
}

func fnSign(args []values.Value) (values.Value, error) {
	v := arg(args, 0)
	if v.Kind() == values.KindNull {
		return values.Null(), nil
	}
	n, ok := v.Number()
	if !ok {
		return values.Value{}, &gerrors.QueryExecutionError{Message: "sign: expected a number"}
	}
	switch {
	case n > 0:
		return values.Int(1), nil
	case n < 0:
		return values.Int(-1), nil
	default:
		return values.Int(0), nil
	}
}

func mathUnary(args []values.Value, f func(float64) float64) (values.Value, error) {
	v := arg(args, 0)
	if v.Kind() == values.KindNull {
		return values.Null(), nil
	}
	n, ok := v.Number()
	if !ok {
		return values.Value{}, &gerrors.QueryExecutionError{Message: "expected a number"}
	}
	return values.Float(f(n)), nil
}
