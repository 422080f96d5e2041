package graph

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/grafito-db/grafito/internal/gerrors"
	"github.com/grafito-db/grafito/internal/values"
)

func (g *Graph) indexRelWrite(ctx context.Context, q Querier, r Relationship, propJSON string) error {
	if g.Text == nil {
		return nil
	}
	return g.Text.OnRelWrite(ctx, q, r.ID, r.Type, propJSON)
}

func (g *Graph) indexRelDelete(ctx context.Context, q Querier, id int64) error {
	if g.Text == nil {
		return nil
	}
	return g.Text.OnRelDelete(ctx, q, id)
}

func internRelType(ctx context.Context, q Querier, t string) (int64, error) {
	if _, err := q.ExecContext(ctx, `INSERT OR IGNORE INTO rel_types (name) VALUES (?)`, t); err != nil {
		return 0, fmt.Errorf("intern rel type %q: %w", t, err)
	}
	var id int64
	if err := q.QueryRowContext(ctx, `SELECT id FROM rel_types WHERE name = ?`, t).Scan(&id); err != nil {
		return 0, fmt.Errorf("resolve rel type %q: %w", t, err)
	}
	return id, nil
}

// CreateRelationship creates a directed, typed edge; both endpoints must
// already exist or the operation fails with NotFound (§4.3).
func (g *Graph) CreateRelationship(ctx context.Context, q Querier, src, tgt int64, relType string, props map[string]values.Value) (Relationship, error) {
	if _, err := g.GetNode(ctx, q, src); err != nil {
		return Relationship{}, err
	}
	if _, err := g.GetNode(ctx, q, tgt); err != nil {
		return Relationship{}, err
	}
	if g.Constraints != nil {
		if err := g.Constraints.CheckRelWrite(ctx, q, relType, props, 0); err != nil {
			return Relationship{}, err
		}
	}
	typeID, err := internRelType(ctx, q, relType)
	if err != nil {
		return Relationship{}, err
	}
	propJSON, err := encodeProps(props)
	if err != nil {
		return Relationship{}, err
	}
	res, err := q.ExecContext(ctx, `
		INSERT INTO relationships (source_id, target_id, type_id, properties) VALUES (?, ?, ?, ?)`,
		src, tgt, typeID, propJSON)
	if err != nil {
		return Relationship{}, &gerrors.StorageError{Op: "create_relationship", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Relationship{}, &gerrors.StorageError{Op: "create_relationship:id", Err: err}
	}
	r, err := g.GetRelationship(ctx, q, id)
	if err != nil {
		return Relationship{}, err
	}
	if err := g.indexRelWrite(ctx, q, r, propJSON); err != nil {
		return Relationship{}, err
	}
	return r, nil
}

// GetRelationship returns the relationship or NotFound (§4.3).
func (g *Graph) GetRelationship(ctx context.Context, q Querier, id int64) (Relationship, error) {
	var src, tgt int64
	var uri sql.NullString
	var createdAt float64
	var propJSON, typeName string
	err := q.QueryRowContext(ctx, `
		SELECT r.source_id, r.target_id, rt.name, r.uri, r.created_at, r.properties
		FROM relationships r JOIN rel_types rt ON rt.id = r.type_id
		WHERE r.id = ?`, id).Scan(&src, &tgt, &typeName, &uri, &createdAt, &propJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return Relationship{}, &gerrors.NotFound{Kind: "relationship", ID: id}
	}
	if err != nil {
		return Relationship{}, &gerrors.StorageError{Op: "get_relationship", Err: err}
	}
	props, err := decodeProps(propJSON)
	if err != nil {
		return Relationship{}, err
	}
	return Relationship{
		ID: id, SourceID: src, TargetID: tgt, Type: typeName,
		URI: uri.String, CreatedAt: createdAt, Properties: props,
	}, nil
}

// MatchRelationships returns relationships honoring whichever of
// filter.SourceID/TargetID/Type were supplied (§4.3).
func (g *Graph) MatchRelationships(ctx context.Context, q Querier, filter RelFilter) ([]Relationship, error) {
	query := `SELECT r.id FROM relationships r JOIN rel_types rt ON rt.id = r.type_id WHERE 1=1`
	var args []any
	if filter.HasSource {
		query += ` AND r.source_id = ?`
		args = append(args, filter.SourceID)
	}
	if filter.HasTarget {
		query += ` AND r.target_id = ?`
		args = append(args, filter.TargetID)
	}
	if filter.Type != "" {
		query += ` AND rt.name = ?`
		args = append(args, filter.Type)
	}
	query += ` ORDER BY r.id`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &gerrors.StorageError{Op: "match_relationships", Err: err}
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
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]Relationship, 0, len(ids))
	for _, id := range ids {
		r, err := g.GetRelationship(ctx, q, id)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// UpdateRelationshipProperties merges keys into the relationship's
// property map, mirroring UpdateNodeProperties (§4.3).
func (g *Graph) UpdateRelationshipProperties(ctx context.Context, q Querier, id int64, props map[string]values.Value) error {
	r, err := g.GetRelationship(ctx, q, id)
	if err != nil {
		return err
	}
	merged := make(map[string]values.Value, len(r.Properties)+len(props))
	for k, v := range r.Properties {
		merged[k] = v
	}
	for k, v := range props {
		merged[k] = v
	}
	if g.Constraints != nil {
		if err := g.Constraints.CheckRelWrite(ctx, q, r.Type, merged, id); err != nil {
			return err
		}
	}
	propJSON, err := encodeProps(merged)
	if err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx, `UPDATE relationships SET properties = ? WHERE id = ?`, propJSON, id); err != nil {
		return &gerrors.StorageError{Op: "update_relationship_properties", Err: err}
	}
	r.Properties = merged
	return g.indexRelWrite(ctx, q, r, propJSON)
}

// DeleteRelationship removes a single edge (§4.3).
func (g *Graph) DeleteRelationship(ctx context.Context, q Querier, id int64) error {
	if _, err := g.GetRelationship(ctx, q, id); err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM relationships WHERE id = ?`, id); err != nil {
		return &gerrors.StorageError{Op: "delete_relationship", Err: err}
	}
	return g.indexRelDelete(ctx, q, id)
}

// DetachDeleteNode removes every relationship incident to id before
// deleting the node itself, the semantics DETACH DELETE requires (§4.7);
// plain DeleteNode already cascades at the storage layer. The executor
// calls this for DETACH DELETE; it also drops the removed relationships
// from the text index when one is attached.
func (g *Graph) DetachDeleteNode(ctx context.Context, q Querier, id int64) error {
	var incidentIDs []int64
	if g.Text != nil {
		rows, err := q.QueryContext(ctx, `SELECT id FROM relationships WHERE source_id = ? OR target_id = ?`, id, id)
		if err != nil {
			return &gerrors.StorageError{Op: "detach_delete_node:collect", Err: err}
		}
		for rows.Next() {
			var rid int64
			if err := rows.Scan(&rid); err != nil {
				rows.Close()
				return err
			}
			incidentIDs = append(incidentIDs, rid)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM relationships WHERE source_id = ? OR target_id = ?`, id, id); err != nil {
		return &gerrors.StorageError{Op: "detach_delete_node", Err: err}
	}
	for _, rid := range incidentIDs {
		if err := g.indexRelDelete(ctx, q, rid); err != nil {
			return err
		}
	}
	return g.DeleteNode(ctx, q, id)
}

// HasIncidentRelationships reports whether a node has any relationship,
// used to reject a plain (non-DETACH) DELETE on a node with edges
// (§4.7: "plain DELETE on a node with relationships fails").
func (g *Graph) HasIncidentRelationships(ctx context.Context, q Querier, id int64) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT count(*) FROM relationships WHERE source_id = ? OR target_id = ?`, id, id).Scan(&n)
	if err != nil {
		return false, &gerrors.StorageError{Op: "has_incident_relationships", Err: err}
	}
	return n > 0, nil
}

// GetNeighbors returns adjacent nodes in the requested direction,
// optionally filtered by relationship type; both-direction returns the
// deduplicated union (§4.3).
func (g *Graph) GetNeighbors(ctx context.Context, q Querier, id int64, dir Direction, relType string) ([]Node, error) {
	ids := make(map[int64]bool)
	var order []int64
	add := func(id int64) {
		if !ids[id] {
			ids[id] = true
			order = append(order, id)
		}
	}

	query := func(col string) error {
		sqlStr := fmt.Sprintf(`
			SELECT r.%s FROM relationships r JOIN rel_types rt ON rt.id = r.type_id
			WHERE r.%s = ?`, otherCol(col), col)
		args := []any{id}
		if relType != "" {
			sqlStr += ` AND rt.name = ?`
			args = append(args, relType)
		}
		sqlStr += ` ORDER BY r.id`
		rows, err := q.QueryContext(ctx, sqlStr, args...)
		if err != nil {
			return &gerrors.StorageError{Op: "get_neighbors", Err: err}
		}
		defer rows.Close()
		for rows.Next() {
			var nid int64
			if err := rows.Scan(&nid); err != nil {
				return err
			}
			add(nid)
		}
		return rows.Err()
	}

	if dir == DirOutgoing || dir == DirBoth {
		if err := query("source_id"); err != nil {
			return nil, err
		}
	}
	if dir == DirIncoming || dir == DirBoth {
		if err := query("target_id"); err != nil {
			return nil, err
		}
	}

	out := make([]Node, 0, len(order))
	for _, nid := range order {
		n, err := g.GetNode(ctx, q, nid)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func otherCol(col string) string {
	if col == "source_id" {
		return "target_id"
	}
	return "source_id"
}
