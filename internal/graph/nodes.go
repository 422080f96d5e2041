package graph

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/grafito-db/grafito/internal/gerrors"
	"github.com/grafito-db/grafito/internal/textindex"
	"github.com/grafito-db/grafito/internal/values"
)

// Graph is the primitives surface (§4.3), operating against whatever
// Querier the caller's transaction scope supplies.
type Graph struct {
	Constraints *ConstraintRegistry
	// Text, when non-nil, is kept synchronized with every node/
	// relationship write and delete in the same transaction (§4.9:
	// "updated synchronously within the same transaction").
	Text *textindex.Index
}

// New returns a Graph bound to reg for constraint enforcement at write
// time (§4.1: "consults the index/constraint registry before committing
// the mutation").
func New(reg *ConstraintRegistry) *Graph {
	return &Graph{Constraints: reg}
}

func (g *Graph) indexNodeWrite(ctx context.Context, q Querier, n Node, propJSON string) error {
	if g.Text == nil {
		return nil
	}
	return g.Text.OnNodeWrite(ctx, q, n.ID, n.Labels, propJSON)
}

func (g *Graph) indexNodeDelete(ctx context.Context, q Querier, id int64) error {
	if g.Text == nil {
		return nil
	}
	return g.Text.OnNodeDelete(ctx, q, id)
}

func internLabels(ctx context.Context, q Querier, labels []string) ([]int64, error) {
	ids := make([]int64, 0, len(labels))
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		if seen[l] {
			continue
		}
		seen[l] = true
		if _, err := q.ExecContext(ctx, `INSERT OR IGNORE INTO labels (name) VALUES (?)`, l); err != nil {
			return nil, fmt.Errorf("intern label %q: %w", l, err)
		}
		var id int64
		if err := q.QueryRowContext(ctx, `SELECT id FROM labels WHERE name = ? COLLATE NOCASE`, l).Scan(&id); err != nil {
			return nil, fmt.Errorf("resolve label %q: %w", l, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func encodeProps(props map[string]values.Value) (string, error) {
	m := make(map[string]values.Value, len(props))
	for k, v := range props {
		m[k] = v
	}
	return values.Encode(values.Map(m))
}

func decodeProps(raw string) (map[string]values.Value, error) {
	v, err := values.Decode(raw)
	if err != nil {
		return nil, err
	}
	m, ok := v.Map()
	if !ok {
		return map[string]values.Value{}, nil
	}
	return m, nil
}

// CreateNode inserts a node, interns any new labels, and enforces
// constraints declared over the node's labels (§4.3).
func (g *Graph) CreateNode(ctx context.Context, q Querier, labels []string, props map[string]values.Value) (Node, error) {
	if g.Constraints != nil {
		if err := g.Constraints.CheckNodeWrite(ctx, q, labels, props, 0); err != nil {
			return Node{}, err
		}
	}
	propJSON, err := encodeProps(props)
	if err != nil {
		return Node{}, fmt.Errorf("encode properties: %w", err)
	}
	res, err := q.ExecContext(ctx, `INSERT INTO nodes (properties) VALUES (?)`, propJSON)
	if err != nil {
		return Node{}, &gerrors.StorageError{Op: "create_node", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Node{}, &gerrors.StorageError{Op: "create_node:id", Err: err}
	}
	labelIDs, err := internLabels(ctx, q, labels)
	if err != nil {
		return Node{}, err
	}
	for _, lid := range labelIDs {
		if _, err := q.ExecContext(ctx, `INSERT OR IGNORE INTO node_labels (node_id, label_id) VALUES (?, ?)`, id, lid); err != nil {
			return Node{}, fmt.Errorf("attach label: %w", err)
		}
	}
	n, err := g.GetNode(ctx, q, id)
	if err != nil {
		return Node{}, err
	}
	if err := g.indexNodeWrite(ctx, q, n, propJSON); err != nil {
		return Node{}, err
	}
	return n, nil
}

// GetNode returns the node or a NotFound error (§4.3: "returns the node
// or a not-found signal").
func (g *Graph) GetNode(ctx context.Context, q Querier, id int64) (Node, error) {
	var uri sql.NullString
	var createdAt float64
	var propJSON string
	err := q.QueryRowContext(ctx, `SELECT uri, created_at, properties FROM nodes WHERE id = ?`, id).
		Scan(&uri, &createdAt, &propJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return Node{}, &gerrors.NotFound{Kind: "node", ID: id}
	}
	if err != nil {
		return Node{}, &gerrors.StorageError{Op: "get_node", Err: err}
	}
	labels, err := g.nodeLabels(ctx, q, id)
	if err != nil {
		return Node{}, err
	}
	props, err := decodeProps(propJSON)
	if err != nil {
		return Node{}, fmt.Errorf("decode properties: %w", err)
	}
	return Node{ID: id, Labels: labels, URI: uri.String, CreatedAt: createdAt, Properties: props}, nil
}

func (g *Graph) nodeLabels(ctx context.Context, q Querier, id int64) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT l.name FROM labels l
		JOIN node_labels nl ON nl.label_id = l.id
		WHERE nl.node_id = ?`, id)
	if err != nil {
		return nil, &gerrors.StorageError{Op: "node_labels", Err: err}
	}
	defer rows.Close()
	var labels []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		labels = append(labels, name)
	}
	sort.Strings(labels)
	return labels, rows.Err()
}

// MatchNodes returns every node bearing all of filter.Labels (AND
// semantics) whose properties satisfy every equality filter in
// filter.Properties (§4.3). It always scans: label-scoped when labels are
// given, over every node otherwise; property indexes are not used.
func (g *Graph) MatchNodes(ctx context.Context, q Querier, filter NodeFilter) ([]Node, error) {
	var ids []int64
	var err error
	if len(filter.Labels) > 0 {
		ids, err = g.nodeIDsWithAllLabels(ctx, q, filter.Labels)
	} else {
		ids, err = g.allNodeIDs(ctx, q)
	}
	if err != nil {
		return nil, err
	}
	var out []Node
	for _, id := range ids {
		n, err := g.GetNode(ctx, q, id)
		if err != nil {
			return nil, err
		}
		if nodeMatchesProperties(n, filter.Properties) {
			out = append(out, n)
		}
	}
	return out, nil
}

func nodeMatchesProperties(n Node, props map[string]values.Value) bool {
	for k, want := range props {
		got, ok := n.Properties[k]
		if !ok {
			got = values.Null()
		}
		eq, isNull := values.Equal(got, want)
		if isNull || !eq {
			return false
		}
	}
	return true
}

func (g *Graph) allNodeIDs(ctx context.Context, q Querier) ([]int64, error) {
	rows, err := q.QueryContext(ctx, `SELECT id FROM nodes ORDER BY id`)
	if err != nil {
		return nil, &gerrors.StorageError{Op: "match_nodes", Err: err}
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (g *Graph) nodeIDsWithAllLabels(ctx context.Context, q Querier, labels []string) ([]int64, error) {
	counts := make(map[int64]int)
	for _, l := range labels {
		rows, err := q.QueryContext(ctx, `
			SELECT nl.node_id FROM node_labels nl
			JOIN labels lb ON lb.id = nl.label_id
			WHERE lb.name = ? COLLATE NOCASE`, l)
		if err != nil {
			return nil, &gerrors.StorageError{Op: "match_nodes:label", Err: err}
		}
		seen := make(map[int64]bool)
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, err
			}
			if !seen[id] {
				seen[id] = true
				counts[id]++
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	var ids []int64
	for id, c := range counts {
		if c == len(labels) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// UpdateNodeProperties merges keys into the node's property map; an
// explicit null value sets the key to null rather than deleting it
// (§4.3).
func (g *Graph) UpdateNodeProperties(ctx context.Context, q Querier, id int64, props map[string]values.Value) (Node, error) {
	n, err := g.GetNode(ctx, q, id)
	if err != nil {
		return Node{}, err
	}
	merged := make(map[string]values.Value, len(n.Properties)+len(props))
	for k, v := range n.Properties {
		merged[k] = v
	}
	for k, v := range props {
		merged[k] = v
	}
	if g.Constraints != nil {
		if err := g.Constraints.CheckNodeWrite(ctx, q, n.Labels, merged, id); err != nil {
			return Node{}, err
		}
	}
	propJSON, err := encodeProps(merged)
	if err != nil {
		return Node{}, err
	}
	if _, err := q.ExecContext(ctx, `UPDATE nodes SET properties = ? WHERE id = ?`, propJSON, id); err != nil {
		return Node{}, &gerrors.StorageError{Op: "update_node_properties", Err: err}
	}
	n.Properties = merged
	if err := g.indexNodeWrite(ctx, q, n, propJSON); err != nil {
		return Node{}, err
	}
	return n, nil
}

// AddLabels idempotently attaches labels to a node (§4.3).
func (g *Graph) AddLabels(ctx context.Context, q Querier, id int64, labels []string) error {
	if _, err := g.GetNode(ctx, q, id); err != nil {
		return err
	}
	ids, err := internLabels(ctx, q, labels)
	if err != nil {
		return err
	}
	for _, lid := range ids {
		if _, err := q.ExecContext(ctx, `INSERT OR IGNORE INTO node_labels (node_id, label_id) VALUES (?, ?)`, id, lid); err != nil {
			return fmt.Errorf("add_labels: %w", err)
		}
	}
	return g.reindexNode(ctx, q, id)
}

// RemoveLabels idempotently detaches labels from a node (§4.3).
func (g *Graph) RemoveLabels(ctx context.Context, q Querier, id int64, labels []string) error {
	for _, l := range labels {
		if _, err := q.ExecContext(ctx, `
			DELETE FROM node_labels WHERE node_id = ? AND label_id = (SELECT id FROM labels WHERE name = ? COLLATE NOCASE)`,
			id, l); err != nil {
			return fmt.Errorf("remove_labels: %w", err)
		}
	}
	return g.reindexNode(ctx, q, id)
}

// reindexNode re-derives a node's FTS document after its label set
// changes, since configured text indexes may be scoped to a label.
func (g *Graph) reindexNode(ctx context.Context, q Querier, id int64) error {
	if g.Text == nil {
		return nil
	}
	n, err := g.GetNode(ctx, q, id)
	if err != nil {
		return err
	}
	propJSON, err := encodeProps(n.Properties)
	if err != nil {
		return err
	}
	return g.indexNodeWrite(ctx, q, n, propJSON)
}

// DeleteNode removes a node; the ON DELETE CASCADE foreign keys on
// relationships and node_labels take care of incident-edge and
// label-membership cleanup (§4.3, §3 invariants).
func (g *Graph) DeleteNode(ctx context.Context, q Querier, id int64) error {
	if _, err := g.GetNode(ctx, q, id); err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id); err != nil {
		return &gerrors.StorageError{Op: "delete_node", Err: err}
	}
	return g.indexNodeDelete(ctx, q, id)
}
