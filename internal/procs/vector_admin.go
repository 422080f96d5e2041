package procs

import (
	"context"

	"github.com/grafito-db/grafito/internal/eval"
	"github.com/grafito-db/grafito/internal/gerrors"
	"github.com/grafito-db/grafito/internal/values"
	"github.com/grafito-db/grafito/internal/vectorindex"
)

// procVectorCreateIndex implements db.vector.createIndex(name, dimension,
// options?) (§4.10): registers a new named ANN index, persisting its
// metadata so it survives reopening the database.
func procVectorCreateIndex(ctx context.Context, deps Deps, args []values.Value, caller eval.Frame) ([]eval.Frame, []string, error) {
	if deps.Vectors == nil {
		return nil, nil, &gerrors.ConfigurationError{Option: "vector", Message: "no vector index manager configured"}
	}
	name, ok := argStr(args, 0)
	if !ok {
		return nil, nil, &gerrors.QueryExecutionError{Message: "db.vector.createIndex requires an index name"}
	}
	dim := int(argInt(args, 1, 0))
	if dim <= 0 {
		return nil, nil, &gerrors.ConfigurationError{Option: "dimension", Message: "db.vector.createIndex requires a positive dimension"}
	}
	c := vectorindex.Config{Name: name, Dimension: dim, Backend: "bruteforce", Metric: vectorindex.MetricCosine}
	if opts := argMap(args, 2); opts != nil {
		if v, ok := opts["backend"]; ok {
			if s, ok := v.Str(); ok {
				c.Backend = s
			}
		}
		if v, ok := opts["metric"]; ok {
			if s, ok := v.Str(); ok {
				c.Metric = vectorindex.Metric(s)
			}
		}
		if v, ok := opts["store_embeddings"]; ok {
			if b, ok := v.Bool(); ok {
				c.StoreEmbeddings = b
			}
		}
		if v, ok := opts["default_k"]; ok {
			if n, ok := v.Int(); ok {
				c.DefaultK = int(n)
			}
		}
		if v, ok := opts["candidate_multiplier"]; ok {
			if n, ok := v.Int(); ok {
				c.CandidateMultiplier = int(n)
			}
		}
		if v, ok := opts["embedding_function"]; ok {
			if s, ok := v.Str(); ok {
				c.EmbeddingFunction = s
			}
		}
		if v, ok := opts["persist_path"]; ok {
			if s, ok := v.Str(); ok {
				c.PersistPath = s
			}
		}
	}
	if err := deps.Vectors.CreateIndex(ctx, c); err != nil {
		return nil, nil, err
	}
	return nil, nil, nil
}

// procVectorUpsert implements db.vector.upsert(index, nodeId, vector|text)
// (§4.10): embeds text through the index's associated embedding function
// when no vector is supplied directly.
func procVectorUpsert(ctx context.Context, deps Deps, args []values.Value, caller eval.Frame) ([]eval.Frame, []string, error) {
	if deps.Vectors == nil {
		return nil, nil, &gerrors.ConfigurationError{Option: "vector", Message: "no vector index manager configured"}
	}
	indexName, ok := argStr(args, 0)
	if !ok {
		return nil, nil, &gerrors.QueryExecutionError{Message: "db.vector.upsert requires an index name"}
	}
	nodeID := argInt(args, 1, -1)
	if nodeID < 0 {
		return nil, nil, &gerrors.QueryExecutionError{Message: "db.vector.upsert requires a node id"}
	}
	if len(args) < 3 {
		return nil, nil, &gerrors.QueryExecutionError{Message: "db.vector.upsert requires a vector or text"}
	}
	vec, err := resolveQueryVector(ctx, deps, indexName, args[2])
	if err != nil {
		return nil, nil, err
	}
	if err := deps.Vectors.Upsert(ctx, indexName, nodeID, vec); err != nil {
		return nil, nil, err
	}
	return nil, nil, nil
}
