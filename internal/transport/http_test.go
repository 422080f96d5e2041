package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/grafito-db/grafito/internal/graph"
	"github.com/grafito-db/grafito/internal/procs"
	"github.com/grafito-db/grafito/internal/registry"
	"github.com/grafito-db/grafito/internal/storage"
	"github.com/grafito-db/grafito/internal/txn"
	"github.com/grafito-db/grafito/pkg/embedder"
)

func newTestTransport(t *testing.T) *HTTPTransport {
	t.Helper()
	store, err := storage.Open(context.Background(), storage.Options{Path: storage.InMemoryPath})
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	constraints := graph.NewConstraintRegistry()
	g := graph.New(constraints)
	procsReg := procs.New(procs.Deps{
		Graph:       g,
		Constraints: constraints,
		DB:          store.DB(),
		Embedders:   registry.New[embedder.Embedder](),
	})
	session := txn.NewSession(store.DB())
	return New(":0", session, g, constraints, procsReg, 15)
}

func TestHandleHealth(t *testing.T) {
	tr := newTestTransport(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	tr.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("expected status ok, got %+v", body)
	}
}

func postQuery(t *testing.T, tr *HTTPTransport, statement string, params map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(queryRequest{Statement: statement, Params: params})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/query", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	tr.mux.ServeHTTP(rec, req)
	return rec
}

func TestHandleQueryCreateAndReturn(t *testing.T) {
	tr := newTestTransport(t)

	rec := postQuery(t, tr, `CREATE (n:Person {name: $name}) RETURN n.name AS name`, map[string]any{"name": "Ada"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp queryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Rows) != 1 || resp.Rows[0]["name"] != "Ada" {
		t.Fatalf("expected one row with name Ada, got %+v", resp.Rows)
	}
}

func TestHandleQueryParseErrorIsBadRequest(t *testing.T) {
	tr := newTestTransport(t)
	rec := postQuery(t, tr, `NOT A CYPHER STATEMENT (((`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a parse error, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleQueryRejectsNonPost(t *testing.T) {
	tr := newTestTransport(t)
	req := httptest.NewRequest(http.MethodGet, "/query", nil)
	rec := httptest.NewRecorder()
	tr.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestHandleQueryOptionsSetsCORS(t *testing.T) {
	tr := newTestTransport(t)
	req := httptest.NewRequest(http.MethodOptions, "/query", nil)
	rec := httptest.NewRecorder()
	tr.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for preflight, got %d", rec.Code)
	}
	if rec.Header().Get(headerCORSOrigin) != corsOrigin {
		t.Fatalf("expected CORS origin header to be set")
	}
}

func TestHandleQueryInvalidBodyIsBadRequest(t *testing.T) {
	tr := newTestTransport(t)
	req := httptest.NewRequest(http.MethodPost, "/query", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	tr.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid JSON body, got %d", rec.Code)
	}
}
