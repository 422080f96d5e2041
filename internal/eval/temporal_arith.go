package eval

import (
	"fmt"
	"time"

	"github.com/grafito-db/grafito/internal/gerrors"
	"github.com/grafito-db/grafito/internal/values"
)

func isTemporal(v values.Value) bool {
	switch v.Kind() {
	case values.KindDate, values.KindTime, values.KindDateTime, values.KindLocalTime, values.KindLocalDateTime, values.KindDuration:
		return true
	default:
		return false
	}
}

// temporalArith handles date/time arithmetic with durations (§4.6):
// temporal +/- duration yields a temporal of the same kind; temporal -
// temporal yields a duration; duration +/- duration adds components.
func temporalArith(op string, left, right values.Value) (values.Value, error) {
	if left.Kind() == values.KindDuration && right.Kind() == values.KindDuration {
		lt, _ := left.Temporal()
		rt, _ := right.Temporal()
		lm, ld, ls, ln := lt.DurationParts()
		rm, rd, rs, rn := rt.DurationParts()
		if op == "+" {
			return values.FromTemporal(values.KindDuration, values.NewDuration(lm+rm, ld+rd, ls+rs, ln+rn)), nil
		}
		return values.FromTemporal(values.KindDuration, values.NewDuration(lm-rm, ld-rd, ls-rs, ln-rn)), nil
	}
	if right.Kind() == values.KindDuration {
		lt, _ := left.Temporal()
		rt, _ := right.Temporal()
		d := rt.AsGoDuration()
		var result values.Value
		if op == "+" {
			result = values.FromTemporal(left.Kind(), shiftTemporal(lt, d, left.Kind()))
		} else {
			result = values.FromTemporal(left.Kind(), shiftTemporal(lt, -d, left.Kind()))
		}
		return result, nil
	}
	if left.Kind() == values.KindDuration {
		return values.Value{}, &gerrors.QueryExecutionError{Message: "duration must be the right-hand operand in temporal arithmetic"}
	}
	if op == "-" {
		return DurationBetween(right, left)
	}
	return values.Value{}, &gerrors.QueryExecutionError{Message: fmt.Sprintf("unsupported temporal operation %q between %s and %s", op, left.Kind(), right.Kind())}
}

func shiftTemporal(t values.Temporal, d time.Duration, kind values.Kind) values.Temporal {
	shifted := t.Time().Add(d)
	switch kind {
	case values.KindDate:
		return values.NewDate(shifted.Year(), shifted.Month(), shifted.Day())
	case values.KindLocalTime:
		return values.NewLocalTime(shifted.Hour(), shifted.Minute(), shifted.Second(), shifted.Nanosecond())
	case values.KindTime:
		return values.NewTime(shifted.Hour(), shifted.Minute(), shifted.Second(), shifted.Nanosecond(), shifted.Location())
	case values.KindLocalDateTime:
		return values.NewLocalDateTime(shifted)
	default:
		return values.NewDateTime(shifted)
	}
}
