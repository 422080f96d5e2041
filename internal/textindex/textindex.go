// Package textindex maintains the FTS5-backed full-text index over node
// and relationship properties (§4.9): one virtual table keyed by
// (entity-kind, entity-id), kept in sync by explicit OnNodeWrite/
// OnNodeDelete/OnRelWrite/OnRelDelete calls from internal/graph (no SQL
// triggers are installed), queried with BM25 scores normalized to a
// non-negative similarity.
package textindex

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/grafito-db/grafito/internal/gerrors"
)

const ftsTable = "text_index_fts"

// Querier abstracts over *sql.DB and *sql.Tx. It is structurally
// identical to internal/graph's Querier; defined here (rather than
// imported) so this package never depends on internal/graph, which
// depends on this one for write-time synchronization — On*Write/On*Delete
// accept whatever Querier the caller's active transaction is using, so
// the FTS update shares that transaction instead of needing a second
// connection out of the single-writer pool.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Config is one row of storage.text_index_config: a (entity-kind,
// label-or-type, property) triple to materialize into the FTS document.
type Config struct {
	ID          int64
	EntityKind  string // "node" | "relationship"
	LabelOrType string // empty means "any label/type"
	Property    string
	Weight      float64
}

// Index owns the FTS5 virtual table; internal/graph keeps it synchronized
// with node, label and relationship writes through the On* hooks below.
type Index struct {
	db      *sql.DB
	configs []Config
}

// Open loads the configured (entity, label-or-type, property) triples and
// ensures the FTS5 virtual table exists (ensureTriggers installs nothing).
func Open(ctx context.Context, db *sql.DB) (*Index, error) {
	idx := &Index{db: db}
	if err := idx.ensureTable(ctx); err != nil {
		return nil, err
	}
	if err := idx.reloadConfig(ctx); err != nil {
		return nil, err
	}
	if err := idx.ensureTriggers(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

func (idx *Index) ensureTable(ctx context.Context) error {
	_, err := idx.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS %s USING fts5(
			entity_kind UNINDEXED,
			entity_id UNINDEXED,
			content,
			tokenize = 'porter unicode61'
		)`, ftsTable))
	if err != nil {
		return &gerrors.StorageError{Op: "create_fts_table", Err: err}
	}
	return nil
}

func (idx *Index) reloadConfig(ctx context.Context) error {
	rows, err := idx.db.QueryContext(ctx, `
		SELECT id, entity_kind, label_or_type, property, weight FROM text_index_config`)
	if err != nil {
		return &gerrors.StorageError{Op: "load_text_index_config", Err: err}
	}
	defer rows.Close()
	var configs []Config
	for rows.Next() {
		var c Config
		var labelOrType sql.NullString
		if err := rows.Scan(&c.ID, &c.EntityKind, &labelOrType, &c.Property, &c.Weight); err != nil {
			return err
		}
		c.LabelOrType = labelOrType.String
		configs = append(configs, c)
	}
	idx.configs = configs
	return rows.Err()
}

// AddConfig registers a new (entity, label-or-type, property) triple and
// rebuilds the FTS contents so existing data is covered.
func (idx *Index) AddConfig(ctx context.Context, c Config) error {
	_, err := idx.db.ExecContext(ctx, `
		INSERT INTO text_index_config (entity_kind, label_or_type, property, weight)
		VALUES (?, ?, ?, ?)`, c.EntityKind, nullable(c.LabelOrType), c.Property, c.Weight)
	if err != nil {
		return &gerrors.StorageError{Op: "add_text_index_config", Err: err}
	}
	if err := idx.reloadConfig(ctx); err != nil {
		return err
	}
	return idx.Rebuild(ctx)
}

func nullable(s string) sql.NullString { return sql.NullString{String: s, Valid: s != ""} }

// Rebuild fully repopulates the FTS table from the current graph content
// (§4.9: "rebuild is a full repopulate").
func (idx *Index) Rebuild(ctx context.Context) error {
	// One transaction holds the single pooled connection, so the per-row
	// label lookups and FTS inserts run on it while the row cursors are open.
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return &gerrors.StorageError{Op: "rebuild_fts_begin", Err: err}
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, ftsTable)); err != nil {
		return &gerrors.StorageError{Op: "rebuild_fts_clear", Err: err}
	}
	nodeRows, err := tx.QueryContext(ctx, `SELECT id, properties FROM nodes`)
	if err != nil {
		return &gerrors.StorageError{Op: "rebuild_fts_nodes", Err: err}
	}
	defer nodeRows.Close()
	for nodeRows.Next() {
		var id int64
		var propsJSON string
		if err := nodeRows.Scan(&id, &propsJSON); err != nil {
			return err
		}
		labels, err := idx.labelsOf(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := idx.indexEntity(ctx, tx, "node", id, labels, propsJSON); err != nil {
			return err
		}
	}
	if err := nodeRows.Err(); err != nil {
		return err
	}

	relRows, err := tx.QueryContext(ctx, `
		SELECT r.id, rt.name, r.properties FROM relationships r JOIN rel_types rt ON rt.id = r.type_id`)
	if err != nil {
		return &gerrors.StorageError{Op: "rebuild_fts_rels", Err: err}
	}
	defer relRows.Close()
	for relRows.Next() {
		var id int64
		var relType, propsJSON string
		if err := relRows.Scan(&id, &relType, &propsJSON); err != nil {
			return err
		}
		if err := idx.indexEntity(ctx, tx, "relationship", id, []string{relType}, propsJSON); err != nil {
			return err
		}
	}
	if err := relRows.Err(); err != nil {
		return err
	}
	return tx.Commit()
}

func (idx *Index) labelsOf(ctx context.Context, q Querier, nodeID int64) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT l.name FROM node_labels nl JOIN labels l ON l.id = nl.label_id WHERE nl.node_id = ?`, nodeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// indexEntity materializes one FTS document from whichever configured
// properties apply to this entity's kind and labels/type.
func (idx *Index) indexEntity(ctx context.Context, q Querier, kind string, id int64, labelsOrType []string, propsJSON string) error {
	if err := idx.removeEntity(ctx, q, kind, id); err != nil {
		return err
	}
	var parts []string
	for _, c := range idx.configs {
		if c.EntityKind != kind {
			continue
		}
		if c.LabelOrType != "" && !contains(labelsOrType, c.LabelOrType) {
			continue
		}
		v := extractStringProperty(propsJSON, c.Property)
		if v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	content := strings.Join(parts, " ")
	_, err := q.ExecContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (entity_kind, entity_id, content) VALUES (?, ?, ?)`, ftsTable),
		kind, id, content)
	if err != nil {
		return &gerrors.StorageError{Op: "index_entity", Err: err}
	}
	return nil
}

func (idx *Index) removeEntity(ctx context.Context, q Querier, kind string, id int64) error {
	_, err := q.ExecContext(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE entity_kind = ? AND entity_id = ?`, ftsTable), kind, id)
	if err != nil {
		return &gerrors.StorageError{Op: "remove_fts_entity", Err: err}
	}
	return nil
}

func contains(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

// OnNodeWrite re-indexes one node after a property/label change.
// internal/graph calls this with the Querier of its own active
// transaction (the session's *sql.Tx, or *sql.DB outside one) so the FTS
// update is atomic with the mutation (§5: "updated synchronously within
// the same transaction") rather than contending for a second connection
// on the single-writer pool.
func (idx *Index) OnNodeWrite(ctx context.Context, q Querier, id int64, labels []string, propsJSON string) error {
	return idx.indexEntity(ctx, q, "node", id, labels, propsJSON)
}

// OnNodeDelete drops a node's FTS document.
func (idx *Index) OnNodeDelete(ctx context.Context, q Querier, id int64) error {
	return idx.removeEntity(ctx, q, "node", id)
}

// OnRelWrite re-indexes one relationship after a property change.
func (idx *Index) OnRelWrite(ctx context.Context, q Querier, id int64, relType, propsJSON string) error {
	return idx.indexEntity(ctx, q, "relationship", id, []string{relType}, propsJSON)
}

// OnRelDelete drops a relationship's FTS document.
func (idx *Index) OnRelDelete(ctx context.Context, q Querier, id int64) error {
	return idx.removeEntity(ctx, q, "relationship", id)
}

// ensureTriggers is a placeholder hook point: SQLite FTS5 content-sync
// here is driven explicitly by internal/graph calling OnNodeWrite/
// OnRelWrite/OnNodeDelete/OnRelDelete rather than SQL triggers, since the
// property payload is opaque JSON and the configured property name isn't
// knowable to a generic SQL trigger without duplicating this package's
// JSON-path extraction in SQL.
func (idx *Index) ensureTriggers(ctx context.Context) error { return nil }

// Result is one scored hit from Search.
type Result struct {
	EntityKind string
	EntityID   int64
	Score      float64 // normalized similarity, higher is better
}

// Search runs a full-text query and converts FTS5's raw (negative-under-
// BM25) rank into a non-negative similarity (§4.9).
func (idx *Index) Search(ctx context.Context, query string, kind string, limit int) ([]Result, error) {
	sqlStr := fmt.Sprintf(`
		SELECT entity_kind, entity_id, bm25(%s) AS rank FROM %s
		WHERE %s MATCH ?`, ftsTable, ftsTable, ftsTable)
	args := []any{query}
	if kind != "" {
		sqlStr += ` AND entity_kind = ?`
		args = append(args, kind)
	}
	sqlStr += ` ORDER BY rank LIMIT ?`
	args = append(args, limit)

	rows, err := idx.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, &gerrors.StorageError{Op: "text_search", Err: err}
	}
	defer rows.Close()
	var out []Result
	for rows.Next() {
		var r Result
		var rank float64
		if err := rows.Scan(&r.EntityKind, &r.EntityID, &rank); err != nil {
			return nil, err
		}
		r.Score = normalizeBM25(rank)
		out = append(out, r)
	}
	return out, rows.Err()
}

// normalizeBM25 maps FTS5's bm25() output (typically negative, more
// negative is a better match) onto a non-negative similarity where
// higher is better (§4.9).
func normalizeBM25(rank float64) float64 {
	return 1.0 / (1.0 + maxFloat(0, -rank))
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// extractStringProperty pulls one top-level string field out of a JSON
// properties blob without a full decode into internal/values, since the
// FTS document only needs the raw text.
func extractStringProperty(propsJSON, key string) string {
	var m map[string]any
	if err := json.Unmarshal([]byte(propsJSON), &m); err != nil {
		return ""
	}
	v, ok := m[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
