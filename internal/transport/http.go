// Package transport implements the HTTP JSON API (§4.12): a single
// POST /query endpoint that parses and runs one Cypher statement inside
// a session-managed transaction and returns its rows as JSON, plus a
// /health liveness check.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/grafito-db/grafito/internal/eval"
	"github.com/grafito-db/grafito/internal/exec"
	"github.com/grafito-db/grafito/internal/gerrors"
	"github.com/grafito-db/grafito/internal/graph"
	"github.com/grafito-db/grafito/internal/parser"
	"github.com/grafito-db/grafito/internal/procs"
	"github.com/grafito-db/grafito/internal/txn"
	"github.com/grafito-db/grafito/internal/values"
)

const (
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"
	headerCORSOrigin  = "Access-Control-Allow-Origin"
	headerCORSMethods = "Access-Control-Allow-Methods"
	headerCORSHeaders = "Access-Control-Allow-Headers"
	corsOrigin        = "*"
	corsMethods       = "GET, POST, OPTIONS"
	corsHeaders       = "Content-Type"
)

// HTTPTransport serves the query API over plain HTTP. Every request runs
// its statement inside its own session scope (§4.11), so concurrent
// requests serialize through the single-writer connection the same way
// two CLI sessions would.
type HTTPTransport struct {
	addr        string
	server      *http.Server
	mux         *http.ServeMux
	session     *txn.Session
	graphInst   *graph.Graph
	constraints *graph.ConstraintRegistry
	procsReg    *procs.Registry
	maxHops     int
}

// New builds the HTTP transport. graphInst/constraints/procsReg/maxHops
// are baked into a fresh *exec.Executor for each request, mirroring how
// cmd/grafito wires one Executor per query.
func New(addr string, session *txn.Session, g *graph.Graph, constraints *graph.ConstraintRegistry, procsReg *procs.Registry, maxHops int) *HTTPTransport {
	mux := http.NewServeMux()
	t := &HTTPTransport{
		addr:        addr,
		mux:         mux,
		session:     session,
		graphInst:   g,
		constraints: constraints,
		procsReg:    procsReg,
		maxHops:     maxHops,
		server:      &http.Server{Addr: addr, Handler: mux},
	}
	mux.HandleFunc("/health", t.handleHealth)
	mux.HandleFunc("/query", t.handleQuery)
	return t
}

func (t *HTTPTransport) setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set(headerCORSOrigin, corsOrigin)
	w.Header().Set(headerCORSMethods, corsMethods)
	w.Header().Set(headerCORSHeaders, corsHeaders)
}

func (t *HTTPTransport) handleHealth(w http.ResponseWriter, r *http.Request) {
	t.setCORSHeaders(w)
	w.Header().Set(headerContentType, contentTypeJSON)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type queryRequest struct {
	Statement string         `json:"statement"`
	Params    map[string]any `json:"params"`
}

type queryResponse struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (t *HTTPTransport) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		t.setCORSHeaders(w)
		w.WriteHeader(http.StatusOK)
		return
	}
	t.setCORSHeaders(w)
	w.Header().Set(headerContentType, contentTypeJSON)
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	stmt, err := parser.Parse(req.Statement)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}

	params := make(map[string]values.Value, len(req.Params))
	for k, v := range req.Params {
		params[k] = jsonToValue(v)
	}

	ctx := r.Context()
	var result *exec.Result
	runErr := t.session.Scope(ctx, func(ctx context.Context, q graph.Querier) error {
		ex := &exec.Executor{
			Graph:       t.graphInst,
			Constraints: t.constraints,
			Querier:     q,
			Params:      params,
			MaxHops:     t.maxHops,
			Procs:       t.procsReg,
		}
		res, err := ex.Execute(ctx, stmt)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if runErr != nil {
		writeJSONError(w, statusForError(runErr), runErr)
		return
	}

	resp := queryResponse{Columns: result.Columns, Rows: make([]map[string]any, 0, len(result.Rows))}
	for _, row := range result.Rows {
		resp.Rows = append(resp.Rows, frameToJSON(row, result.Columns))
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("encode query response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}

// statusForError maps a domain error to the HTTP status a REST client
// should see, mirroring the distinctions §4.3/§4.7 draw between
// not-found, constraint, and generic execution failures.
func statusForError(err error) int {
	switch err.(type) {
	case *gerrors.NotFound:
		return http.StatusNotFound
	case *gerrors.ParseError:
		return http.StatusBadRequest
	case *gerrors.ConstraintViolation:
		return http.StatusConflict
	case *gerrors.ConfigurationError:
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}

// frameToJSON converts one result row to a plain JSON-able map in
// projection order's column set.
func frameToJSON(f eval.Frame, cols []string) map[string]any {
	out := make(map[string]any, len(cols))
	for _, c := range cols {
		out[c] = valueToJSON(f[c])
	}
	return out
}

// valueToJSON converts a values.Value into a plain Go value suitable for
// encoding/json, the same shape internal/values.Encode's wire format
// uses for scalars but without the tagged-temporal envelope, since this
// is a human/REST-facing response rather than a round-trippable codec.
func valueToJSON(v values.Value) any {
	switch v.Kind() {
	case values.KindNull:
		return nil
	case values.KindBool:
		b, _ := v.Bool()
		return b
	case values.KindInt:
		i, _ := v.Int()
		return i
	case values.KindFloat:
		f, _ := v.Float()
		return f
	case values.KindString:
		s, _ := v.Str()
		return s
	case values.KindList:
		items, _ := v.List()
		out := make([]any, len(items))
		for i, it := range items {
			out[i] = valueToJSON(it)
		}
		return out
	case values.KindMap:
		m, _ := v.Map()
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[k] = valueToJSON(val)
		}
		return out
	case values.KindPoint, values.KindDate, values.KindLocalTime, values.KindTime,
		values.KindLocalDateTime, values.KindDateTime, values.KindDuration:
		return v.String()
	default:
		return v.String()
	}
}

// jsonToValue converts a decoded JSON request parameter into a
// values.Value. Temporal/point types aren't accepted as request
// parameters; callers pass those as strings and construct them inside
// the statement itself.
func jsonToValue(a any) values.Value {
	switch x := a.(type) {
	case nil:
		return values.Null()
	case bool:
		return values.Bool(x)
	case float64:
		if x == float64(int64(x)) {
			return values.Int(int64(x))
		}
		return values.Float(x)
	case string:
		return values.Str(x)
	case []any:
		items := make([]values.Value, len(x))
		for i, it := range x {
			items[i] = jsonToValue(it)
		}
		return values.List(items)
	case map[string]any:
		m := make(map[string]values.Value, len(x))
		for k, v := range x {
			m[k] = jsonToValue(v)
		}
		return values.Map(m)
	default:
		return values.Null()
	}
}

// Start runs the HTTP server until it errors or is shut down.
func (t *HTTPTransport) Start() error {
	slog.Info("starting http transport", "addr", t.addr)
	if err := t.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (t *HTTPTransport) Shutdown(ctx context.Context) error {
	return t.server.Shutdown(ctx)
}
