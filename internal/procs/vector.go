package procs

import (
	"context"
	"fmt"

	"github.com/grafito-db/grafito/internal/eval"
	"github.com/grafito-db/grafito/internal/gerrors"
	"github.com/grafito-db/grafito/internal/graph"
	"github.com/grafito-db/grafito/internal/values"
	"github.com/grafito-db/grafito/internal/vectorindex"
)

// procVectorSearch implements db.vector.search(index, query_vec|text, k,
// options?) (§4.8/§4.10): yields (node, score) pairs.
func procVectorSearch(ctx context.Context, deps Deps, args []values.Value, caller eval.Frame) ([]eval.Frame, []string, error) {
	if deps.Vectors == nil {
		return nil, nil, &gerrors.ConfigurationError{Option: "vector", Message: "no vector index manager configured"}
	}
	indexName, ok := argStr(args, 0)
	if !ok {
		return nil, nil, &gerrors.QueryExecutionError{Message: "db.vector.search requires an index name"}
	}
	if len(args) < 2 {
		return nil, nil, &gerrors.QueryExecutionError{Message: "db.vector.search requires a query vector or text"}
	}
	queryVec, err := resolveQueryVector(ctx, deps, indexName, args[1])
	if err != nil {
		return nil, nil, err
	}
	k := int(argInt(args, 2, 0))

	opts := vectorindex.SearchOptions{K: k}
	options := argMap(args, 3)
	var labels []string
	var propFilter map[string]values.Value
	if options != nil {
		if v, ok := options["candidate_multiplier"]; ok {
			if n, ok := v.Int(); ok {
				opts.CandidateMultiplier = int(n)
			}
		}
		if v, ok := options["rerank"]; ok {
			if b, ok := v.Bool(); ok {
				opts.Rerank = b
			}
		}
		if v, ok := options["reranker"]; ok {
			if s, ok := v.Str(); ok {
				opts.RerankerName = s
			}
		}
		if v, ok := options["labels"]; ok {
			if list, ok := v.List(); ok {
				for _, l := range list {
					if s, ok := l.Str(); ok {
						labels = append(labels, s)
					}
				}
			}
		}
		if v, ok := options["properties"]; ok {
			if m, ok := v.Map(); ok {
				propFilter = m
			}
		}
	}
	if len(labels) > 0 || len(propFilter) > 0 {
		opts.Filter = func(id int64) bool {
			n, err := deps.Graph.GetNode(ctx, deps.Querier, id)
			if err != nil {
				return false
			}
			return nodeMatchesFilter(n, labels, propFilter)
		}
	}

	candidates, err := deps.Vectors.Search(ctx, indexName, queryVec, opts)
	if err != nil {
		return nil, nil, err
	}
	cols := []string{"node", "score"}
	out := make([]eval.Frame, 0, len(candidates))
	for _, c := range candidates {
		n, err := deps.Graph.GetNode(ctx, deps.Querier, c.ID)
		if err != nil {
			continue
		}
		out = append(out, eval.Frame{
			"node":  procNodeToValue(n),
			"score": values.Float(c.Score),
		})
	}
	return out, cols, nil
}

func resolveQueryVector(ctx context.Context, deps Deps, indexName string, v values.Value) ([]float32, error) {
	if list, ok := v.List(); ok {
		vec := make([]float32, len(list))
		for i, e := range list {
			n, ok := e.Number()
			if !ok {
				return nil, &gerrors.QueryExecutionError{Message: "query vector must contain numbers"}
			}
			vec[i] = float32(n)
		}
		return vec, nil
	}
	if s, ok := v.Str(); ok {
		return deps.Vectors.EmbedText(ctx, indexName, s)
	}
	return nil, &gerrors.QueryExecutionError{Message: "db.vector.search query must be a list of numbers or a string"}
}

func nodeMatchesFilter(n graph.Node, labels []string, props map[string]values.Value) bool {
	for _, l := range labels {
		found := false
		for _, nl := range n.Labels {
			if nl == l {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for k, want := range props {
		have, ok := n.Properties[k]
		if !ok {
			return false
		}
		eq, isNull := values.Equal(have, want)
		if isNull || !eq {
			return false
		}
	}
	return true
}

func procNodeToValue(n graph.Node) values.Value {
	m := make(map[string]values.Value, len(n.Properties)+2)
	for k, v := range n.Properties {
		m[k] = v
	}
	labels := make([]values.Value, len(n.Labels))
	for i, l := range n.Labels {
		labels[i] = values.Str(l)
	}
	m["__id"] = values.Int(n.ID)
	m["__labels"] = values.List(labels)
	m["__entity"] = values.Str("node")
	return values.Map(m)
}

func procRelToValue(r graph.Relationship) values.Value {
	m := make(map[string]values.Value, len(r.Properties)+4)
	for k, v := range r.Properties {
		m[k] = v
	}
	m["__id"] = values.Int(r.ID)
	m["__type"] = values.Str(r.Type)
	m["__source"] = values.Int(r.SourceID)
	m["__target"] = values.Int(r.TargetID)
	m["__entity"] = values.Str("relationship")
	return values.Map(m)
}

// procURIIndexCreate implements db.uri_index.create(kind) (§4.8): a
// plain SQL index on nodes.uri or relationships.uri, the column both
// tables already carry for external-id interop (§4.1, §6).
func procURIIndexCreate(ctx context.Context, deps Deps, args []values.Value, caller eval.Frame) ([]eval.Frame, []string, error) {
	kind, ok := argStr(args, 0)
	if !ok {
		return nil, nil, &gerrors.QueryExecutionError{Message: "db.uri_index.create requires a kind argument"}
	}
	var table string
	switch kind {
	case "node":
		table = "nodes"
	case "relationship":
		table = "relationships"
	default:
		return nil, nil, &gerrors.QueryExecutionError{Message: fmt.Sprintf("db.uri_index.create: unknown kind %q", kind)}
	}
	_, err := deps.DB.ExecContext(ctx, fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_uri ON %s(uri)`, table, table))
	if err != nil {
		return nil, nil, &gerrors.StorageError{Op: "create_uri_index", Err: err}
	}
	return nil, nil, nil
}
