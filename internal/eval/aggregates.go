package eval

import (
	"math"
	"sort"
	"strings"

	"github.com/grafito-db/grafito/internal/gerrors"
	"github.com/grafito-db/grafito/internal/values"
)

var aggregateNames = map[string]bool{
	"count": true, "sum": true, "avg": true, "min": true, "max": true,
	"collect": true, "stddev": true, "stddevp": true,
	"percentilecont": true, "percentiledisc": true,
}

// isAggregateFunc reports whether name (already lowercased) names an
// aggregate rather than a scalar function; evalFunctionCall uses this to
// reject an aggregate evaluated outside an aggregating projection.
func isAggregateFunc(lname string) bool { return aggregateNames[lname] }

// Aggregator accumulates one aggregate function's state across a group of
// rows. Distinct dedups inputs before Add ever sees them when the
// function itself doesn't require global context (exec handles DISTINCT
// filtering for count(DISTINCT x); Aggregator only sees the deduped
// stream in that case).
type Aggregator interface {
	Add(v values.Value)
	Result() values.Value
}

// NewAggregator constructs the accumulator for a named aggregate
// function. percentile is the second argument percentileCont/Disc need,
// evaluated once at group-open time; other aggregates ignore it.
func NewAggregator(name string, star bool, percentile float64) (Aggregator, error) {
	switch strings.ToLower(name) {
	case "count":
		if star {
			return &countAgg{}, nil
		}
		return &countAgg{skipNull: true}, nil
	case "sum":
		return &sumAgg{}, nil
	case "avg":
		return &avgAgg{}, nil
	case "min":
		return &minMaxAgg{want: -1}, nil
	case "max":
		return &minMaxAgg{want: 1}, nil
	case "collect":
		return &collectAgg{}, nil
	case "stddev":
		return &stdDevAgg{population: false}, nil
	case "stddevp":
		return &stdDevAgg{population: true}, nil
	case "percentilecont":
		return &percentileAgg{p: percentile, continuous: true}, nil
	case "percentiledisc":
		return &percentileAgg{p: percentile, continuous: false}, nil
	default:
		return nil, &gerrors.QueryExecutionError{Message: "unknown aggregate function " + name}
	}
}

type countAgg struct {
	n        int64
	skipNull bool
}

func (a *countAgg) Add(v values.Value) {
	if a.skipNull && v.Kind() == values.KindNull {
		return
	}
	a.n++
}
func (a *countAgg) Result() values.Value { return values.Int(a.n) }

type sumAgg struct {
	sum    float64
	allInt bool
	seen   bool
}

func (a *sumAgg) Add(v values.Value) {
	if v.Kind() == values.KindNull {
		return
	}
	if !a.seen {
		a.allInt = true
		a.seen = true
	}
	n, ok := v.Number()
	if !ok {
		return
	}
	if v.Kind() != values.KindInt {
		a.allInt = false
	}
	a.sum += n
}
func (a *sumAgg) Result() values.Value {
	if !a.seen {
		return values.Null()
	}
	if a.allInt {
		return values.Int(int64(a.sum))
	}
	return values.Float(a.sum)
}

type avgAgg struct {
	sum float64
	n   int64
}

func (a *avgAgg) Add(v values.Value) {
	if v.Kind() == values.KindNull {
		return
	}
	n, ok := v.Number()
	if !ok {
		return
	}
	a.sum += n
	a.n++
}
func (a *avgAgg) Result() values.Value {
	if a.n == 0 {
		return values.Null()
	}
	return values.Float(a.sum / float64(a.n))
}

type minMaxAgg struct {
	want int
	val  values.Value
	set  bool
}

func (a *minMaxAgg) Add(v values.Value) {
	if v.Kind() == values.KindNull {
		return
	}
	if !a.set {
		a.val = v
		a.set = true
		return
	}
	cmp, isNull := values.Compare(v, a.val)
	if isNull {
		return
	}
	if (a.want < 0 && cmp < 0) || (a.want > 0 && cmp > 0) {
		a.val = v
	}
}
func (a *minMaxAgg) Result() values.Value {
	if !a.set {
		return values.Null()
	}
	return a.val
}

type collectAgg struct {
	items []values.Value
}

func (a *collectAgg) Add(v values.Value) {
	if v.Kind() == values.KindNull {
		return
	}
	a.items = append(a.items, v)
}
func (a *collectAgg) Result() values.Value { return values.List(a.items) }

type stdDevAgg struct {
	vals       []float64
	population bool
}

func (a *stdDevAgg) Add(v values.Value) {
	if v.Kind() == values.KindNull {
		return
	}
	n, ok := v.Number()
	if !ok {
		return
	}
	a.vals = append(a.vals, n)
}
func (a *stdDevAgg) Result() values.Value {
	n := len(a.vals)
	if n == 0 {
		return values.Null()
	}
	if !a.population && n < 2 {
		return values.Float(0)
	}
	var mean float64
	for _, v := range a.vals {
		mean += v
	}
	mean /= float64(n)
	var sq float64
	for _, v := range a.vals {
		d := v - mean
		sq += d * d
	}
	denom := float64(n)
	if !a.population {
		denom = float64(n - 1)
	}
	return values.Float(math.Sqrt(sq / denom))
}

type percentileAgg struct {
	vals       []float64
	p          float64
	continuous bool
}

func (a *percentileAgg) Add(v values.Value) {
	if v.Kind() == values.KindNull {
		return
	}
	n, ok := v.Number()
	if !ok {
		return
	}
	a.vals = append(a.vals, n)
}
func (a *percentileAgg) Result() values.Value {
	n := len(a.vals)
	if n == 0 {
		return values.Null()
	}
	sorted := append([]float64{}, a.vals...)
	sort.Float64s(sorted)
	if n == 1 {
		return values.Float(sorted[0])
	}
	if a.continuous {
		idx := a.p * float64(n-1)
		lo := int(math.Floor(idx))
		hi := int(math.Ceil(idx))
		if lo == hi {
			return values.Float(sorted[lo])
		}
		frac := idx - float64(lo)
		return values.Float(sorted[lo] + (sorted[hi]-sorted[lo])*frac)
	}
	idx := int(math.Ceil(a.p*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return values.Float(sorted[idx])
}
