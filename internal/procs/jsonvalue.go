package procs

import "github.com/grafito-db/grafito/internal/values"

// fromJSON converts a decoded encoding/json value (map[string]any,
// []any, string, float64, bool, nil) into a values.Value, the shape
// apoc.load.* and apoc.import.json both need to hand back to the
// evaluator/executor.
func fromJSON(v any) values.Value {
	switch t := v.(type) {
	case nil:
		return values.Null()
	case bool:
		return values.Bool(t)
	case float64:
		if t == float64(int64(t)) {
			return values.Int(int64(t))
		}
		return values.Float(t)
	case string:
		return values.Str(t)
	case []any:
		items := make([]values.Value, len(t))
		for i, e := range t {
			items[i] = fromJSON(e)
		}
		return values.List(items)
	case map[string]any:
		m := make(map[string]values.Value, len(t))
		for k, e := range t {
			m[k] = fromJSON(e)
		}
		return values.Map(m)
	default:
		return values.Null()
	}
}
