package eval

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"github.com/dlclark/regexp2"

	"github.com/grafito-db/grafito/internal/ast"
	"github.com/grafito-db/grafito/internal/gerrors"
	"github.com/grafito-db/grafito/internal/values"
)

// builtinFunc is a scalar (non-aggregate) function implementation.
type builtinFunc func(args []values.Value) (values.Value, error)

var builtins map[string]builtinFunc

func init() {
	builtins = map[string]builtinFunc{
		// string
		"toupper":     fn1Str(strings.ToUpper),
		"toUpper":     fn1Str(strings.ToUpper),
		"tolower":     fn1Str(strings.ToLower),
		"toLower":     fn1Str(strings.ToLower),
		"trim":        fn1Str(strings.TrimSpace),
		"ltrim":       fn1Str(func(s string) string { return strings.TrimLeft(s, " \t\n\r") }),
		"rtrim":       fn1Str(func(s string) string { return strings.TrimRight(s, " \t\n\r") }),
		"substring":   fnSubstring,
		"split":       fnSplit,
		"replace":     fnReplace,
		"tostring":    fnToString,
		"toString":    fnToString,
		"tointeger":   fnToInteger,
		"toInteger":   fnToInteger,
		"tofloat":     fnToFloat,
		"toFloat":     fnToFloat,
		"toboolean":   fnToBoolean,
		"toBoolean":   fnToBoolean,
		"left":        fnLeft,
		"right":       fnRight,
		"reverse":     fnReverse,
		"size":        fnSize,
		"length":      fnLength,
		"regex":                fnRegexExtract,
		"matches":              fnMatches,
		"apoc.text.regexGroups": fnApocTextRegexGroups,
		"deaccent":    fn1Str(deaccent),
		"strip_html":  fn1Str(stripHTML),
		"strip_emoji": fn1Str(stripEmoji),
		"snake_case":  fn1Str(snakeCase),
		"levenshtein": fnLevenshtein,
		"jaccard":     fnJaccard,

		// collection
		"head":   fnHead,
		"tail":   fnTail,
		"last":   fnLast,
		"range":  fnRange,
		"keys":   fnKeys,
		"values": fnValuesFn,

		// path
		"nodes":         fnPathNodes,
		"relationships": fnPathRels,

		// math
		"abs":   fnAbs,
		"ceil":  fnCeil,
		"floor": fnFloor,
		"round": fnRound,
		"sqrt":  fnSqrt,
		"sign":  fnSign,

		// spatial
		"point":    fnPoint,
		"distance": fnDistance,

		// apoc subset
		"apoc.text.join":      fnApocTextJoin,
		"apoc.convert.toMap":  fnApocConvertToMap,
		"apoc.coll.sum":       fnApocCollSum,
		"apoc.coll.avg":       fnApocCollAvg,
		"apoc.coll.min":       fnApocCollMin,
		"apoc.coll.max":       fnApocCollMax,
		"apoc.coll.sort":      fnApocCollSort,
		"apoc.coll.toSet":     fnApocCollToSet,
		"apoc.map.fromLists":  fnApocMapFromLists,
		"apoc.map.merge":      fnApocMapMerge,
	}
}

func (e *Evaluator) evalFunctionCall(n *ast.FunctionCall, frame Frame) (values.Value, error) {
	lname := strings.ToLower(n.Name)
	if isAggregateFunc(lname) {
		return values.Value{}, &gerrors.QueryExecutionError{Message: fmt.Sprintf("aggregate function %q used outside an aggregation context", n.Name)}
	}
	if n.Name == "exists" {
		if len(n.Args) != 1 {
			return values.Value{}, &gerrors.QueryExecutionError{Message: "exists() takes exactly one argument"}
		}
		v, err := e.Eval(n.Args[0], frame)
		if err != nil {
			return values.Value{}, err
		}
		return values.Bool(v.Kind() != values.KindNull), nil
	}
	args := make([]values.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := e.Eval(a, frame)
		if err != nil {
			return values.Value{}, err
		}
		args[i] = v
	}
	if fn, ok := builtins[n.Name]; ok {
		return fn(args)
	}
	if fn, ok := builtins[lname]; ok {
		return fn(args)
	}
	return values.Value{}, &gerrors.QueryExecutionError{Message: fmt.Sprintf("unknown function %q", n.Name)}
}

func arg(args []values.Value, i int) values.Value {
	if i < len(args) {
		return args[i]
	}
	return values.Null()
}

func anyNull(args ...values.Value) bool {
	for _, a := range args {
		if a.Kind() == values.KindNull {
			return true
		}
	}
	return false
}

func fn1Str(f func(string) string) builtinFunc {
	return func(args []values.Value) (values.Value, error) {
		if anyNull(arg(args, 0)) {
			return values.Null(), nil
		}
		s, ok := arg(args, 0).Str()
		if !ok {
			return values.Value{}, &gerrors.QueryExecutionError{Message: "expected a string argument"}
		}
		return values.Str(f(s)), nil
	}
}

func fnSubstring(args []values.Value) (values.Value, error) {
	v := arg(args, 0)
	if v.Kind() == values.KindNull {
		return values.Null(), nil
	}
	s, _ := v.Str()
	r := []rune(s)
	start, _ := arg(args, 1).Int()
	if start < 0 {
		start = 0
	}
	if int(start) > len(r) {
		start = int64(len(r))
	}
	end := int64(len(r))
	if len(args) > 2 {
		l, _ := arg(args, 2).Int()
		if l < 0 {
			return values.Value{}, &gerrors.QueryExecutionError{Message: "substring: length must not be negative"}
		}
		end = start + l
		if end > int64(len(r)) {
			end = int64(len(r))
		}
	}
	if end < start {
		end = start
	}
	return values.Str(string(r[start:end])), nil
}

func fnSplit(args []values.Value) (values.Value, error) {
	if anyNull(arg(args, 0), arg(args, 1)) {
		return values.Null(), nil
	}
	s, _ := arg(args, 0).Str()
	sep, _ := arg(args, 1).Str()
	parts := strings.Split(s, sep)
	out := make([]values.Value, len(parts))
	for i, p := range parts {
		out[i] = values.Str(p)
	}
	return values.List(out), nil
}

func fnReplace(args []values.Value) (values.Value, error) {
	if anyNull(arg(args, 0), arg(args, 1), arg(args, 2)) {
		return values.Null(), nil
	}
	s, _ := arg(args, 0).Str()
	old, _ := arg(args, 1).Str()
	new_, _ := arg(args, 2).Str()
	return values.Str(strings.ReplaceAll(s, old, new_)), nil
}

func fnToString(args []values.Value) (values.Value, error) {
	v := arg(args, 0)
	if v.Kind() == values.KindNull {
		return values.Null(), nil
	}
	return values.Str(v.String()), nil
}

func fnToInteger(args []values.Value) (values.Value, error) {
	v := arg(args, 0)
	switch v.Kind() {
	case values.KindNull:
		return values.Null(), nil
	case values.KindInt:
		return v, nil
	case values.KindFloat:
		f, _ := v.Float()
		return values.Int(int64(f)), nil
	case values.KindString:
		s, _ := v.Str()
		i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if ferr != nil {
				return values.Null(), nil
			}
			return values.Int(int64(f)), nil
		}
		return values.Int(i), nil
	default:
		return values.Value{}, &gerrors.QueryExecutionError{Message: "toInteger: unsupported argument type"}
	}
}

func fnToFloat(args []values.Value) (values.Value, error) {
	v := arg(args, 0)
	switch v.Kind() {
	case values.KindNull:
		return values.Null(), nil
	case values.KindFloat:
		return v, nil
	case values.KindInt:
		i, _ := v.Int()
		return values.Float(float64(i)), nil
	case values.KindString:
		s, _ := v.Str()
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return values.Null(), nil
		}
		return values.Float(f), nil
	default:
		return values.Value{}, &gerrors.QueryExecutionError{Message: "toFloat: unsupported argument type"}
	}
}

func fnToBoolean(args []values.Value) (values.Value, error) {
	v := arg(args, 0)
	switch v.Kind() {
	case values.KindNull:
		return values.Null(), nil
	case values.KindBool:
		return v, nil
	case values.KindString:
		s, _ := v.Str()
		switch strings.ToLower(s) {
		case "true":
			return values.Bool(true), nil
		case "false":
			return values.Bool(false), nil
		default:
			return values.Null(), nil
		}
	default:
		return values.Value{}, &gerrors.QueryExecutionError{Message: "toBoolean: unsupported argument type"}
	}
}

func fnLeft(args []values.Value) (values.Value, error) {
	if anyNull(arg(args, 0)) {
		return values.Null(), nil
	}
	s, _ := arg(args, 0).Str()
	n, _ := arg(args, 1).Int()
	r := []rune(s)
	if n < 0 {
		n = 0
	}
	if int(n) > len(r) {
		n = int64(len(r))
	}
	return values.Str(string(r[:n])), nil
}

func fnRight(args []values.Value) (values.Value, error) {
	if anyNull(arg(args, 0)) {
		return values.Null(), nil
	}
	s, _ := arg(args, 0).Str()
	n, _ := arg(args, 1).Int()
	r := []rune(s)
	if n < 0 {
		n = 0
	}
	if int(n) > len(r) {
		n = int64(len(r))
	}
	return values.Str(string(r[len(r)-int(n):])), nil
}

func fnReverse(args []values.Value) (values.Value, error) {
	v := arg(args, 0)
	switch v.Kind() {
	case values.KindNull:
		return values.Null(), nil
	case values.KindString:
		s, _ := v.Str()
		r := []rune(s)
		for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
			r[i], r[j] = r[j], r[i]
		}
		return values.Str(string(r)), nil
	case values.KindList:
		items, _ := v.List()
		out := make([]values.Value, len(items))
		for i, it := range items {
			out[len(items)-1-i] = it
		}
		return values.List(out), nil
	default:
		return values.Value{}, &gerrors.QueryExecutionError{Message: "reverse: unsupported argument type"}
	}
}

func fnSize(args []values.Value) (values.Value, error) {
	v := arg(args, 0)
	switch v.Kind() {
	case values.KindNull:
		return values.Null(), nil
	case values.KindString:
		s, _ := v.Str()
		return values.Int(int64(len([]rune(s)))), nil
	case values.KindList:
		items, _ := v.List()
		return values.Int(int64(len(items))), nil
	case values.KindMap:
		m, _ := v.Map()
		return values.Int(int64(len(m))), nil
	default:
		return values.Value{}, &gerrors.QueryExecutionError{Message: "size: unsupported argument type"}
	}
}

// fnLength is the alias used by path length(); length(list) also matches
// size() for parity with the documented path-length(pathlike) overload.
func fnLength(args []values.Value) (values.Value, error) {
	v := arg(args, 0)
	if v.Kind() == values.KindMap {
		m, _ := v.Map()
		if nodesV, ok := m["__path_nodes"]; ok {
			items, _ := nodesV.List()
			return values.Int(int64(len(items) - 1)), nil
		}
	}
	return fnSize(args)
}

func fnRegexExtract(args []values.Value) (values.Value, error) {
	if anyNull(arg(args, 0), arg(args, 1)) {
		return values.Null(), nil
	}
	s, _ := arg(args, 0).Str()
	pat, _ := arg(args, 1).Str()
	re, err := regexp2.Compile(pat, regexp2.None)
	if err != nil {
		return values.Value{}, &gerrors.QueryExecutionError{Message: fmt.Sprintf("invalid regex %q: %v", pat, err)}
	}
	m, err := re.FindStringMatch(s)
	if err != nil {
		return values.Value{}, &gerrors.QueryExecutionError{Message: fmt.Sprintf("regex match %q: %v", pat, err)}
	}
	if m == nil {
		return values.Null(), nil
	}
	return values.Str(m.String()), nil
}

func fnMatches(args []values.Value) (values.Value, error) {
	if anyNull(arg(args, 0), arg(args, 1)) {
		return values.Null(), nil
	}
	s, _ := arg(args, 0).Str()
	pat, _ := arg(args, 1).Str()
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

// fnApocTextRegexGroups returns every capture group of every match of pat
// against s, the shape apoc.text.regexGroups documents: a list of
// per-match lists, each containing the whole match followed by its
// numbered groups.
func fnApocTextRegexGroups(args []values.Value) (values.Value, error) {
	if anyNull(arg(args, 0), arg(args, 1)) {
		return values.Null(), nil
	}
	s, _ := arg(args, 0).Str()
	pat, _ := arg(args, 1).Str()
	re, err := regexp2.Compile(pat, regexp2.None)
	if err != nil {
		return values.Value{}, &gerrors.QueryExecutionError{Message: fmt.Sprintf("invalid regex %q: %v", pat, err)}
	}
	var out []values.Value
	m, err := re.FindStringMatch(s)
	for m != nil && err == nil {
		groups := m.Groups()
		row := make([]values.Value, len(groups))
		for i, g := range groups {
			row[i] = values.Str(g.String())
		}
		out = append(out, values.List(row))
		m, err = re.FindNextMatch(m)
	}
	if err != nil {
		return values.Value{}, &gerrors.QueryExecutionError{Message: fmt.Sprintf("regex match %q: %v", pat, err)}
	}
	if out == nil {
		out = []values.Value{}
	}
	return values.List(out), nil
}

func deaccent(s string) string {
	var b strings.Builder
	for _, r := range s {
		if repl, ok := accentMap[r]; ok {
			b.WriteRune(repl)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var accentMap = map[rune]rune{
	'á': 'a', 'à': 'a', 'â': 'a', 'ä': 'a', 'ã': 'a',
	'é': 'e', 'è': 'e', 'ê': 'e', 'ë': 'e',
	'í': 'i', 'ì': 'i', 'î': 'i', 'ï': 'i',
	'ó': 'o', 'ò': 'o', 'ô': 'o', 'ö': 'o', 'õ': 'o',
	'ú': 'u', 'ù': 'u', 'û': 'u', 'ü': 'u',
	'ç': 'c', 'ñ': 'n',
	'Á': 'A', 'À': 'A', 'Â': 'A', 'Ä': 'A', 'Ã': 'A',
	'É': 'E', 'È': 'E', 'Ê': 'E', 'Ë': 'E',
	'Í': 'I', 'Ì': 'I', 'Î': 'I', 'Ï': 'I',
	'Ó': 'O', 'Ò': 'O', 'Ô': 'O', 'Ö': 'O', 'Õ': 'O',
	'Ú': 'U', 'Ù': 'U', 'Û': 'U', 'Ü': 'U',
	'Ç': 'C', 'Ñ': 'N',
}

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

func stripHTML(s string) string { return htmlTagRe.ReplaceAllString(s, "") }

func stripEmoji(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.Is(unicode.So, r) || unicode.Is(unicode.Sk, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var snakeBoundaryRe = regexp.MustCompile(`([a-z0-9])([A-Z])`)

func snakeCase(s string) string {
	s = snakeBoundaryRe.ReplaceAllString(s, "${1}_${2}")
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return strings.ToLower(s)
}

func fnLevenshtein(args []values.Value) (values.Value, error) {
	if anyNull(arg(args, 0), arg(args, 1)) {
		return values.Null(), nil
	}
	a, _ := arg(args, 0).Str()
	b, _ := arg(args, 1).Str()
	return values.Int(int64(levenshtein.ComputeDistance(a, b))), nil
}

func fnJaccard(args []values.Value) (values.Value, error) {
	if anyNull(arg(args, 0), arg(args, 1)) {
		return values.Null(), nil
	}
	a, _ := arg(args, 0).Str()
	b, _ := arg(args, 1).Str()
	return values.Float(jaccardBigram(a, b)), nil
}

func bigrams(s string) map[string]bool {
	r := []rune(strings.ToLower(s))
	out := make(map[string]bool)
	if len(r) < 2 {
		if len(r) == 1 {
			out[string(r)] = true
		}
		return out
	}
	for i := 0; i < len(r)-1; i++ {
		out[string(r[i:i+2])] = true
	}
	return out
}

func jaccardBigram(a, b string) float64 {
	ba, bb := bigrams(a), bigrams(b)
	if len(ba) == 0 && len(bb) == 0 {
		return 1
	}
	inter := 0
	for k := range ba {
		if bb[k] {
			inter++
		}
	}
	union := len(ba) + len(bb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func fnHead(args []values.Value) (values.Value, error) {
	v := arg(args, 0)
	if v.Kind() == values.KindNull {
		return values.Null(), nil
	}
	items, ok := v.List()
	if !ok || len(items) == 0 {
		return values.Null(), nil
	}
	return items[0], nil
}

func fnTail(args []values.Value) (values.Value, error) {
	v := arg(args, 0)
	if v.Kind() == values.KindNull {
		return values.Null(), nil
	}
	items, ok := v.List()
	if !ok {
		return values.Value{}, &gerrors.QueryExecutionError{Message: "tail: expected a list"}
	}
	if len(items) == 0 {
		return values.List(nil), nil
	}
	out := make([]values.Value, len(items)-1)
	copy(out, items[1:])
	return values.List(out), nil
}

func fnLast(args []values.Value) (values.Value, error) {
	v := arg(args, 0)
	if v.Kind() == values.KindNull {
		return values.Null(), nil
	}
	items, ok := v.List()
	if !ok || len(items) == 0 {
		return values.Null(), nil
	}
	return items[len(items)-1], nil
}

func fnRange(args []values.Value) (values.Value, error) {
	start, _ := arg(args, 0).Int()
	end, _ := arg(args, 1).Int()
	step := int64(1)
	if len(args) > 2 {
		step, _ = arg(args, 2).Int()
		if step == 0 {
			return values.Value{}, &gerrors.QueryExecutionError{Message: "range: step must not be zero"}
		}
	}
	var out []values.Value
	if step > 0 {
		for i := start; i <= end; i += step {
			out = append(out, values.Int(i))
		}
	} else {
		for i := start; i >= end; i += step {
			out = append(out, values.Int(i))
		}
	}
	return values.List(out), nil
}

func fnKeys(args []values.Value) (values.Value, error) {
	v := arg(args, 0)
	if v.Kind() == values.KindNull {
		return values.Null(), nil
	}
	m, ok := v.Map()
	if !ok {
		return values.Value{}, &gerrors.QueryExecutionError{Message: "keys: expected a map or entity"}
	}
	ks := make([]string, 0, len(m))
	for k := range m {
		if strings.HasPrefix(k, "__") {
			continue
		}
		ks = append(ks, k)
	}
	sort.Strings(ks)
	out := make([]values.Value, len(ks))
	for i, k := range ks {
		out[i] = values.Str(k)
	}
	return values.List(out), nil
}

func fnValuesFn(args []values.Value) (values.Value, error) {
	v := arg(args, 0)
	if v.Kind() == values.KindNull {
		return values.Null(), nil
	}
	m, ok := v.Map()
	if !ok {
		return values.Value{}, &gerrors.QueryExecutionError{Message: "values: expected a map or entity"}
	}
	ks := make([]string, 0, len(m))
	for k := range m {
		if strings.HasPrefix(k, "__") {
			continue
		}
		ks = append(ks, k)
	}
	sort.Strings(ks)
	out := make([]values.Value, len(ks))
	for i, k := range ks {
		out[i] = m[k]
	}
	return values.List(out), nil
}

func fnPathNodes(args []values.Value) (values.Value, error) {
	v := arg(args, 0)
	if v.Kind() == values.KindNull {
		return values.Null(), nil
	}
	m, ok := v.Map()
	if !ok {
		return values.Value{}, &gerrors.QueryExecutionError{Message: "nodes: expected a path"}
	}
	nodesV, ok := m["__path_nodes"]
	if !ok {
		return values.Value{}, &gerrors.QueryExecutionError{Message: "nodes: expected a path"}
	}
	return nodesV, nil
}

func fnPathRels(args []values.Value) (values.Value, error) {
	v := arg(args, 0)
	if v.Kind() == values.KindNull {
		return values.Null(), nil
	}
	m, ok := v.Map()
	if !ok {
		return values.Value{}, &gerrors.QueryExecutionError{Message: "relationships: expected a path"}
	}
	relsV, ok := m["__path_rels"]
	if !ok {
		return values.Value{}, &gerrors.QueryExecutionError{Message: "relationships: expected a path"}
	}
	return relsV, nil
}

func fnApocTextJoin(args []values.Value) (values.Value, error) {
	v := arg(args, 0)
	if v.Kind() == values.KindNull {
		return values.Null(), nil
	}
	items, ok := v.List()
	if !ok {
		return values.Value{}, &gerrors.QueryExecutionError{Message: "apoc.text.join: expected a list"}
	}
	sep := ""
	if len(args) > 1 {
		sep, _ = arg(args, 1).Str()
	}
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.String()
	}
	return values.Str(strings.Join(parts, sep)), nil
}

func fnApocConvertToMap(args []values.Value) (values.Value, error) {
	v := arg(args, 0)
	if v.Kind() == values.KindMap {
		return v, nil
	}
	return values.Null(), nil
}

func fnApocCollSum(args []values.Value) (values.Value, error) {
	items, _ := arg(args, 0).List()
	var sum float64
	allInt := true
	for _, it := range items {
		n, ok := it.Number()
		if !ok {
			return values.Value{}, &gerrors.QueryExecutionError{Message: "apoc.coll.sum: expected a list of numbers"}
		}
		if it.Kind() != values.KindInt {
			allInt = false
		}
		sum += n
	}
	if allInt {
		return values.Int(int64(sum)), nil
	}
	return values.Float(sum), nil
}

func fnApocCollAvg(args []values.Value) (values.Value, error) {
	items, _ := arg(args, 0).List()
	if len(items) == 0 {
		return values.Null(), nil
	}
	var sum float64
	for _, it := range items {
		n, ok := it.Number()
		if !ok {
			return values.Value{}, &gerrors.QueryExecutionError{Message: "apoc.coll.avg: expected a list of numbers"}
		}
		sum += n
	}
	return values.Float(sum / float64(len(items))), nil
}

func fnApocCollMin(args []values.Value) (values.Value, error) { return collExtreme(args, -1) }
func fnApocCollMax(args []values.Value) (values.Value, error) { return collExtreme(args, 1) }

func collExtreme(args []values.Value, want int) (values.Value, error) {
	items, _ := arg(args, 0).List()
	if len(items) == 0 {
		return values.Null(), nil
	}
	best := items[0]
	for _, it := range items[1:] {
		cmp, isNull := values.Compare(it, best)
		if isNull {
			continue
		}
		if (want < 0 && cmp < 0) || (want > 0 && cmp > 0) {
			best = it
		}
	}
	return best, nil
}

func fnApocCollSort(args []values.Value) (values.Value, error) {
	items, _ := arg(args, 0).List()
	out := make([]values.Value, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		cmp, _ := values.Compare(out[i], out[j])
		return cmp < 0
	})
	return values.List(out), nil
}

func fnApocCollToSet(args []values.Value) (values.Value, error) {
	items, _ := arg(args, 0).List()
	var out []values.Value
	for _, it := range items {
		dup := false
		for _, seen := range out {
			if eq, isNull := values.Equal(it, seen); !isNull && eq {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, it)
		}
	}
	return values.List(out), nil
}

func fnApocMapFromLists(args []values.Value) (values.Value, error) {
	keys, _ := arg(args, 0).List()
	vals, _ := arg(args, 1).List()
	m := make(map[string]values.Value, len(keys))
	for i, k := range keys {
		ks, ok := k.Str()
		if !ok {
			return values.Value{}, &gerrors.QueryExecutionError{Message: "apoc.map.fromLists: keys must be strings"}
		}
		if i < len(vals) {
			m[ks] = vals[i]
		} else {
			m[ks] = values.Null()
		}
	}
	return values.Map(m), nil
}

func fnApocMapMerge(args []values.Value) (values.Value, error) {
	out := make(map[string]values.Value)
	for _, a := range args {
		m, ok := a.Map()
		if !ok {
			continue
		}
		for k, v := range m {
			out[k] = v
		}
	}
	return values.Map(out), nil
}
