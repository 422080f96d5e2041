package vectorindex

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/grafito-db/grafito/internal/gerrors"
	"github.com/grafito-db/grafito/internal/registry"
	"github.com/grafito-db/grafito/pkg/embedder"
)

// Config is a vector index's persisted metadata, one row of the
// storage package's vector_indexes table.
type Config struct {
	Name                string
	Dimension           int
	Backend             string
	Metric              Metric
	StoreEmbeddings     bool
	DefaultK            int
	CandidateMultiplier int
	EmbeddingFunction   string
	PersistPath         string
}

type namedIndex struct {
	Config  Config
	Backend Backend
}

// Manager owns every live vector index for one open database, mirroring
// the metadata rows in storage.vector_indexes/vector_entries and the
// per-index embedding-function association (§4.10).
type Manager struct {
	db        *sql.DB
	indexes   map[string]*namedIndex
	embedders *registry.Registry[embedder.Embedder]
}

// NewManager loads every configured index's metadata and repopulates its
// backend from vector_entries.
func NewManager(ctx context.Context, db *sql.DB, embedders *registry.Registry[embedder.Embedder]) (*Manager, error) {
	m := &Manager{db: db, indexes: make(map[string]*namedIndex), embedders: embedders}
	rows, err := db.QueryContext(ctx, `
		SELECT name, dimension, backend, metric, store_embeddings, default_k,
		       candidate_multiplier, embedding_function, persist_path
		FROM vector_indexes`)
	if err != nil {
		return nil, fmt.Errorf("vectorindex: load index metadata: %w", err)
	}
	defer rows.Close()
	var configs []Config
	for rows.Next() {
		var c Config
		var storeEmb int
		var embFn, persistPath sql.NullString
		if err := rows.Scan(&c.Name, &c.Dimension, &c.Backend, &c.Metric, &storeEmb,
			&c.DefaultK, &c.CandidateMultiplier, &embFn, &persistPath); err != nil {
			return nil, err
		}
		c.StoreEmbeddings = storeEmb != 0
		c.EmbeddingFunction = embFn.String
		c.PersistPath = persistPath.String
		configs = append(configs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, c := range configs {
		if err := m.attach(ctx, c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Manager) attach(ctx context.Context, c Config) error {
	backend, err := NewBackend(c.Backend, c.Dimension, c.Metric)
	if err != nil {
		return err
	}
	idxRows, err := m.db.QueryContext(ctx, `SELECT node_id, vector FROM vector_entries WHERE index_name = ?`, c.Name)
	if err != nil {
		return fmt.Errorf("vectorindex: load entries for %q: %w", c.Name, err)
	}
	defer idxRows.Close()
	for idxRows.Next() {
		var nodeID int64
		var blob []byte
		if err := idxRows.Scan(&nodeID, &blob); err != nil {
			return err
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return err
		}
		if err := backend.Add(nodeID, vec); err != nil {
			return err
		}
	}
	if err := idxRows.Err(); err != nil {
		return err
	}
	m.indexes[c.Name] = &namedIndex{Config: c, Backend: backend}
	return nil
}

// CreateIndex registers a new named vector index, persisting its
// metadata so it survives reopening the database.
func (m *Manager) CreateIndex(ctx context.Context, c Config) error {
	if _, exists := m.indexes[c.Name]; exists {
		return &gerrors.ConfigurationError{Option: "index", Message: fmt.Sprintf("vector index %q already exists", c.Name)}
	}
	if c.DefaultK == 0 {
		c.DefaultK = 10
	}
	if c.CandidateMultiplier == 0 {
		c.CandidateMultiplier = 3
	}
	if c.Metric == "" {
		c.Metric = MetricCosine
	}
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO vector_indexes (name, dimension, backend, method, metric, store_embeddings,
			default_k, candidate_multiplier, embedding_function, persist_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Dimension, c.Backend, c.Backend, string(c.Metric), boolInt(c.StoreEmbeddings),
		c.DefaultK, c.CandidateMultiplier, nullableString(c.EmbeddingFunction), nullableString(c.PersistPath))
	if err != nil {
		return &gerrors.StorageError{Op: "create_vector_index", Err: err}
	}
	return m.attach(ctx, c)
}

// Upsert adds or replaces the vector for nodeID in the named index and
// always persists it to vector_entries, which NewManager reloads on open;
// store_embeddings does not affect this.
func (m *Manager) Upsert(ctx context.Context, name string, nodeID int64, vector []float32) error {
	idx, ok := m.indexes[name]
	if !ok {
		return &gerrors.IndexError{Kind: gerrors.IndexVector, Name: name, Message: "not found"}
	}
	if err := validateDimension(idx.Config.Dimension, len(vector)); err != nil {
		return &gerrors.IndexError{Kind: gerrors.IndexVector, Name: name, Message: err.Error()}
	}
	if err := idx.Backend.Add(nodeID, vector); err != nil {
		return err
	}
	blob := encodeVector(vector)
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO vector_entries (index_name, node_id, vector) VALUES (?, ?, ?)
		ON CONFLICT(index_name, node_id) DO UPDATE SET vector = excluded.vector`,
		name, nodeID, blob)
	if err != nil {
		return &gerrors.StorageError{Op: "upsert_vector_entry", Err: err}
	}
	return nil
}

// EmbedText resolves the index's associated embedding function and
// embeds text, failing with ConfigurationError if none is associated
// (§4.10: "missing association is a ConfigurationError").
func (m *Manager) EmbedText(ctx context.Context, name, text string) ([]float32, error) {
	idx, ok := m.indexes[name]
	if !ok {
		return nil, &gerrors.IndexError{Kind: gerrors.IndexVector, Name: name, Message: "not found"}
	}
	if idx.Config.EmbeddingFunction == "" {
		return nil, &gerrors.ConfigurationError{Option: "embedding_function", Message: fmt.Sprintf("index %q has no associated embedding function", name)}
	}
	emb, ok := m.embedders.Get(idx.Config.EmbeddingFunction)
	if !ok {
		return nil, &gerrors.ConfigurationError{Option: "embedding_function", Message: fmt.Sprintf("embedding function %q is not registered", idx.Config.EmbeddingFunction)}
	}
	return emb.EmbedQuery(ctx, text)
}

// SearchOptions configures a db.vector.search call (§4.8/§4.10).
type SearchOptions struct {
	K                   int
	CandidateMultiplier int
	Rerank              bool
	RerankerName        string
	// Filter, when non-nil, is called with a candidate id and reports
	// whether it passes the labels/properties filter; nil means no filter.
	Filter func(id int64) bool
}

// Search runs db.vector.search's pre-filter/rerank pipeline (§4.10).
func (m *Manager) Search(ctx context.Context, name string, queryVec []float32, opts SearchOptions) ([]Candidate, error) {
	idx, ok := m.indexes[name]
	if !ok {
		return nil, &gerrors.IndexError{Kind: gerrors.IndexVector, Name: name, Message: "not found"}
	}
	k := opts.K
	if k == 0 {
		k = idx.Config.DefaultK
	}
	mult := opts.CandidateMultiplier
	if mult == 0 {
		mult = idx.Config.CandidateMultiplier
		if mult == 0 {
			mult = 3
		}
	}

	pull := k
	if opts.Filter != nil {
		pull = k * mult
	}
	candidates, err := idx.Backend.Search(queryVec, pull)
	if err != nil {
		return nil, err
	}
	if opts.Filter != nil {
		filtered := candidates[:0]
		for _, c := range candidates {
			if opts.Filter(c.ID) {
				filtered = append(filtered, c)
			}
		}
		candidates = filtered
	}
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	if opts.Rerank {
		rerankerName := opts.RerankerName
		if rerankerName == "" {
			rerankerName = "identity"
		}
		reranker, ok := Rerankers.Get(rerankerName)
		if !ok {
			return nil, &gerrors.ConfigurationError{Option: "reranker", Message: fmt.Sprintf("unknown reranker %q", rerankerName)}
		}
		if rerankerName == "identity" && !idx.Config.StoreEmbeddings {
			return nil, &gerrors.ConfigurationError{Option: "rerank", Message: "identity reranker requires store_embeddings on the index"}
		}
		rcs := make([]RerankCandidate, len(candidates))
		for i, c := range candidates {
			rcs[i] = RerankCandidate{ID: c.ID, Score: c.Score}
		}
		reranked := reranker(queryVec, rcs)
		sort.SliceStable(reranked, func(i, j int) bool { return reranked[i].Score > reranked[j].Score })
		if len(reranked) > k {
			reranked = reranked[:k]
		}
		return reranked, nil
	}

	return candidates, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func encodeVector(v []float32) []byte {
	b, _ := json.Marshal(v)
	return b
}

func decodeVector(b []byte) ([]float32, error) {
	var v []float32
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("vectorindex: decode stored vector: %w", err)
	}
	return v, nil
}
