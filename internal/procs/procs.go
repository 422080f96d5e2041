// Package procs implements the procedure dispatcher (§4.8): the CALL
// ... YIELD registry backing db.vector.search, db.uri_index.create, the
// apoc.load.* family, and apoc.import.json.
package procs

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/grafito-db/grafito/internal/eval"
	"github.com/grafito-db/grafito/internal/gerrors"
	"github.com/grafito-db/grafito/internal/graph"
	"github.com/grafito-db/grafito/internal/registry"
	"github.com/grafito-db/grafito/internal/textindex"
	"github.com/grafito-db/grafito/internal/values"
	"github.com/grafito-db/grafito/internal/vectorindex"
	"github.com/grafito-db/grafito/pkg/embedder"
)

// Deps bundles the live collaborators a procedure implementation needs.
// Registry holds one Deps and threads it into every call, the same
// collaborator-injection shape internal/exec.Executor uses.
type Deps struct {
	Graph       *graph.Graph
	Constraints *graph.ConstraintRegistry
	Querier     graph.Querier
	DB          *sql.DB
	Vectors     *vectorindex.Manager
	Text        *textindex.Index
	Embedders   *registry.Registry[embedder.Embedder]
	CacheDir    string
}

// Proc is one registered procedure's implementation. It returns the
// frames to YIELD and their column names in the procedure's fixed order.
type Proc func(ctx context.Context, deps Deps, args []values.Value, caller eval.Frame) ([]eval.Frame, []string, error)

// Registry dispatches CALL statements to registered procedures,
// implementing internal/exec's ProcCaller interface.
type Registry struct {
	deps  Deps
	procs *registry.Registry[Proc]
}

// New builds a Registry with every built-in procedure registered.
func New(deps Deps) *Registry {
	r := &Registry{deps: deps, procs: registry.New[Proc]()}
	r.procs.Register("db.vector.search", procVectorSearch)
	r.procs.Register("db.vector.createIndex", procVectorCreateIndex)
	r.procs.Register("db.vector.upsert", procVectorUpsert)
	r.procs.Register("db.text.createIndex", procTextCreateIndex)
	r.procs.Register("db.text.rebuild", procTextRebuild)
	r.procs.Register("db.text.search", procTextSearch)
	r.procs.Register("db.uri_index.create", procURIIndexCreate)
	r.procs.Register("apoc.load.json", procApocLoadJSON)
	r.procs.Register("apoc.load.jsonArray", procApocLoadJSONArray)
	r.procs.Register("apoc.load.jsonParams", procApocLoadJSONParams)
	r.procs.Register("apoc.load.xml", procApocLoadXML)
	r.procs.Register("apoc.load.xmlParams", procApocLoadXMLParams)
	r.procs.Register("apoc.load.html", procApocLoadHTML)
	r.procs.Register("apoc.import.json", procApocImportJSON)
	return r
}

// Call implements internal/exec.ProcCaller.
func (r *Registry) Call(ctx context.Context, name string, args []values.Value, frame eval.Frame) ([]eval.Frame, []string, error) {
	p, ok := r.procs.Get(name)
	if !ok {
		return nil, nil, &gerrors.QueryExecutionError{Message: fmt.Sprintf("unknown procedure %q", name)}
	}
	return p(ctx, r.deps, args, frame)
}

func argStr(args []values.Value, i int) (string, bool) {
	if i >= len(args) {
		return "", false
	}
	return args[i].Str()
}

func argInt(args []values.Value, i int, def int64) int64 {
	if i >= len(args) {
		return def
	}
	n, ok := args[i].Int()
	if !ok {
		return def
	}
	return n
}

func argMap(args []values.Value, i int) map[string]values.Value {
	if i >= len(args) {
		return nil
	}
	m, _ := args[i].Map()
	return m
}
