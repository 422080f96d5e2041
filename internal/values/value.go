// Package values implements Grafito's dynamically typed property value: a
// tagged union over the JSON-ish scalar/collection types plus the temporal
// and spatial logical types the query language exposes.
package values

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Kind identifies which alternative of the tagged union a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
	KindDate
	KindTime
	KindDateTime
	KindLocalTime
	KindLocalDateTime
	KindDuration
	KindPoint
)

// String returns the Cypher-visible type name, used by error messages and
// the `apoc.meta`-style introspection helpers.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "NULL"
	case KindBool:
		return "BOOLEAN"
	case KindInt:
		return "INTEGER"
	case KindFloat:
		return "FLOAT"
	case KindString:
		return "STRING"
	case KindList:
		return "LIST"
	case KindMap:
		return "MAP"
	case KindDate:
		return "DATE"
	case KindTime:
		return "TIME"
	case KindDateTime:
		return "DATETIME"
	case KindLocalTime:
		return "LOCALTIME"
	case KindLocalDateTime:
		return "LOCALDATETIME"
	case KindDuration:
		return "DURATION"
	case KindPoint:
		return "POINT"
	default:
		return "UNKNOWN"
	}
}

// Value is an immutable tagged union holding one property value. Zero value
// is Null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	list []Value
	m    map[string]Value
	temp Temporal
	pt   Point
}

// Null is the canonical null value.
func Null() Value { return Value{kind: KindNull} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps a 64-bit signed integer.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float wraps a 64-bit float.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Str wraps a string.
func Str(s string) Value { return Value{kind: KindString, s: s} }

// List wraps an ordered list of values. The slice is retained, not copied.
func List(items []Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindList, list: items}
}

// Map wraps a string-keyed map of values. The map is retained, not copied.
func Map(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindMap, m: m}
}

// FromTemporal wraps a temporal logical value (date/time/datetime/
// localtime/localdatetime/duration); kind must be one of those six.
func FromTemporal(kind Kind, t Temporal) Value {
	return Value{kind: kind, temp: t}
}

// FromPoint wraps a spatial point value.
func FromPoint(p Point) Value { return Value{kind: KindPoint, pt: p} }

// Kind returns the value's alternative tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean payload and whether v held one.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Int returns the integer payload and whether v held one.
func (v Value) Int() (int64, bool) { return v.i, v.kind == KindInt }

// Float returns the float payload and whether v held one.
func (v Value) Float() (float64, bool) { return v.f, v.kind == KindFloat }

// Number returns v as a float64 if it is INTEGER or FLOAT.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// Str returns the string payload and whether v held one.
func (v Value) Str() (string, bool) { return v.s, v.kind == KindString }

// List returns the list payload and whether v held one.
func (v Value) List() ([]Value, bool) { return v.list, v.kind == KindList }

// Map returns the map payload and whether v held one.
func (v Value) Map() (map[string]Value, bool) { return v.m, v.kind == KindMap }

// Temporal returns the temporal payload and whether v held one.
func (v Value) Temporal() (Temporal, bool) {
	switch v.kind {
	case KindDate, KindTime, KindDateTime, KindLocalTime, KindLocalDateTime, KindDuration:
		return v.temp, true
	default:
		return Temporal{}, false
	}
}

// Point returns the spatial payload and whether v held one.
func (v Value) Point() (Point, bool) { return v.pt, v.kind == KindPoint }

// Truthy implements three-valued boolean coercion: it returns (value,
// isNull, ok). ok is false when v is not a boolean or null; null yields
// (false, true, true).
func (v Value) Truthy() (b bool, isNull bool, ok bool) {
	switch v.kind {
	case KindBool:
		return v.b, false, true
	case KindNull:
		return false, true, true
	default:
		return false, false, false
	}
}

// Equal implements Cypher's three-valued `=`: returns (result, isNull).
// When either operand is null the comparison yields null rather than a
// boolean.
func Equal(a, b Value) (bool, bool) {
	if a.kind == KindNull || b.kind == KindNull {
		return false, true
	}
	// List/scalar membership shorthand (§4.6): `list = scalar` tests
	// whether scalar is a member of list, and vice versa.
	if a.kind == KindList && b.kind != KindList {
		return listContains(a.list, b), false
	}
	if b.kind == KindList && a.kind != KindList {
		return listContains(b.list, a), false
	}
	return rawEqual(a, b), false
}

func listContains(list []Value, needle Value) bool {
	for _, item := range list {
		if eq, isNull := Equal(item, needle); !isNull && eq {
			return true
		}
	}
	return false
}

func rawEqual(a, b Value) bool {
	if a.kind != b.kind {
		// INTEGER and FLOAT compare numerically across kinds.
		an, aok := a.Number()
		bn, bok := b.Number()
		if aok && bok {
			return an == bn
		}
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindFloat:
		return a.f == b.f
	case KindString:
		return a.s == b.s
	case KindList:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if eq, isNull := Equal(a.list[i], b.list[i]); isNull || !eq {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.m) != len(b.m) {
			return false
		}
		for k, av := range a.m {
			bv, ok := b.m[k]
			if !ok {
				return false
			}
			if eq, isNull := Equal(av, bv); isNull || !eq {
				return false
			}
		}
		return true
	case KindDate, KindTime, KindDateTime, KindLocalTime, KindLocalDateTime, KindDuration:
		return a.temp.Equal(b.temp)
	case KindPoint:
		return a.pt == b.pt
	default:
		return false
	}
}

// Compare implements the stable ordering ORDER BY relies on: nulls sort
// last regardless of ASC/DESC, then by kind-group, then by value.
// Returns a negative, zero, or positive int; the second return is always
// true because ORDER BY needs a total order even across mixed types.
func Compare(a, b Value) (int, bool) {
	if a.kind == KindNull && b.kind == KindNull {
		return 0, true
	}
	if a.kind == KindNull {
		return 1, true
	}
	if b.kind == KindNull {
		return -1, true
	}
	an, aNum := a.Number()
	bn, bNum := b.Number()
	if aNum && bNum {
		switch {
		case an < bn:
			return -1, true
		case an > bn:
			return 1, true
		default:
			return 0, true
		}
	}
	if a.kind != b.kind {
		return int(a.kind) - int(b.kind), true
	}
	switch a.kind {
	case KindBool:
		if a.b == b.b {
			return 0, true
		}
		if !a.b {
			return -1, true
		}
		return 1, true
	case KindString:
		return strings.Compare(a.s, b.s), true
	case KindList:
		n := len(a.list)
		if len(b.list) < n {
			n = len(b.list)
		}
		for i := 0; i < n; i++ {
			if c, _ := Compare(a.list[i], b.list[i]); c != 0 {
				return c, true
			}
		}
		return len(a.list) - len(b.list), true
	case KindDate, KindTime, KindDateTime, KindLocalTime, KindLocalDateTime, KindDuration:
		return a.temp.Compare(b.temp), true
	default:
		return 0, true
	}
}

// String renders v the way RETURN projections stringify values for
// display (not JSON — lists/maps use Cypher literal syntax).
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		if math.IsInf(v.f, 1) {
			return "Infinity"
		}
		if math.IsInf(v.f, -1) {
			return "-Infinity"
		}
		if math.IsNaN(v.f) {
			return "NaN"
		}
		return fmt.Sprintf("%g", v.f)
	case KindString:
		return fmt.Sprintf("%q", v.s)
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s: %s", k, v.m[k].String())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindDate, KindTime, KindDateTime, KindLocalTime, KindLocalDateTime, KindDuration:
		return v.temp.String()
	case KindPoint:
		return v.pt.String()
	default:
		return "?"
	}
}
