package exec

import (
	"context"

	"github.com/grafito-db/grafito/internal/ast"
	"github.com/grafito-db/grafito/internal/eval"
	"github.com/grafito-db/grafito/internal/gerrors"
	"github.com/grafito-db/grafito/internal/values"
)

func (ex *Executor) execCreate(ctx context.Context, c *ast.CreateClause, in []eval.Frame) ([]eval.Frame, error) {
	var out []eval.Frame
	for _, frame := range in {
		nf := frame.Clone()
		for _, path := range c.Pattern.Paths {
			if err := ex.createPath(ctx, path, nf); err != nil {
				return nil, err
			}
		}
		out = append(out, nf)
	}
	return out, nil
}

func (ex *Executor) createPath(ctx context.Context, path *ast.PathPattern, frame eval.Frame) error {
	var createdNodes []values.Value
	var createdRels []values.Value
	for i, pat := range path.Nodes {
		if pat.Variable != "" {
			if v, ok := frame[pat.Variable]; ok && isNodeValue(v) {
				createdNodes = append(createdNodes, v)
				continue
			}
		}
		props, err := ex.evalMapLiteral(pat.Properties, frame)
		if err != nil {
			return err
		}
		n, err := ex.Graph.CreateNode(ctx, ex.Querier, pat.Labels, props)
		if err != nil {
			return err
		}
		nv := nodeToValue(n)
		if pat.Variable != "" {
			frame[pat.Variable] = nv
		}
		createdNodes = append(createdNodes, nv)
		if i < len(path.Rels) {
			// relationship created once both endpoints are known, below.
		}
	}
	for i, rel := range path.Rels {
		srcID, _ := entityID(createdNodes[i])
		tgtID, _ := entityID(createdNodes[i+1])
		if rel.Direction == ast.DirLeft {
			srcID, tgtID = tgtID, srcID
		}
		relType := ""
		if len(rel.Types) > 0 {
			relType = rel.Types[0]
		}
		props, err := ex.evalMapLiteral(rel.Properties, frame)
		if err != nil {
			return err
		}
		r, err := ex.Graph.CreateRelationship(ctx, ex.Querier, srcID, tgtID, relType, props)
		if err != nil {
			return err
		}
		rv := relToValue(r)
		if rel.Variable != "" {
			frame[rel.Variable] = rv
		}
		createdRels = append(createdRels, rv)
	}
	if path.Name != "" {
		frame[path.Name] = values.Map(map[string]values.Value{
			"__path_nodes": values.List(createdNodes),
			"__path_rels":  values.List(createdRels),
			"__entity":     values.Str("path"),
		})
	}
	return nil
}

// execMerge implements MERGE (§4.7): match the pattern; if nothing
// matches, create it and run ON CREATE SET, otherwise run ON MATCH SET.
func (ex *Executor) execMerge(ctx context.Context, c *ast.MergeClause, in []eval.Frame) ([]eval.Frame, error) {
	var out []eval.Frame
	for _, frame := range in {
		matched, err := ex.matchPath(ctx, c.Path, []eval.Frame{frame})
		if err != nil {
			return nil, err
		}
		if len(matched) > 0 {
			for _, m := range matched {
				if err := ex.applySetItems(ctx, c.OnMatch, m); err != nil {
					return nil, err
				}
				out = append(out, m)
			}
			continue
		}
		nf := frame.Clone()
		if err := ex.createPath(ctx, c.Path, nf); err != nil {
			return nil, err
		}
		if err := ex.applySetItems(ctx, c.OnCreate, nf); err != nil {
			return nil, err
		}
		out = append(out, nf)
	}
	return out, nil
}

func (ex *Executor) applySetItems(ctx context.Context, items []*ast.SetItem, frame eval.Frame) error {
	if len(items) == 0 {
		return nil
	}
	return ex.runSetItems(ctx, items, frame)
}

func (ex *Executor) execSet(ctx context.Context, c *ast.SetClause, in []eval.Frame) ([]eval.Frame, error) {
	for _, frame := range in {
		if err := ex.runSetItems(ctx, c.Items, frame); err != nil {
			return nil, err
		}
	}
	return in, nil
}

func (ex *Executor) runSetItems(ctx context.Context, items []*ast.SetItem, frame eval.Frame) error {
	e := ex.evaluator()
	for _, item := range items {
		if item.IsLabel {
			varName := targetVariable(item.Target)
			id, ok := entityID(frame[varName])
			if !ok {
				return &gerrors.QueryExecutionError{Message: "SET label target is not a bound node"}
			}
			if err := ex.Graph.AddLabels(ctx, ex.Querier, id, []string{item.Label}); err != nil {
				return err
			}
			refreshed, err := ex.Graph.GetNode(ctx, ex.Querier, id)
			if err != nil {
				return err
			}
			frame[varName] = nodeToValue(refreshed)
			continue
		}
		val, err := e.Eval(item.Value, frame)
		if err != nil {
			return err
		}
		if pa, ok := item.Target.(*ast.PropertyAccess); ok {
			varName := targetVariable(pa.Target)
			if err := ex.setOneProperty(ctx, frame, varName, pa.Name, val); err != nil {
				return err
			}
			continue
		}
		if v, ok := item.Target.(*ast.Variable); ok {
			props, ok := val.Map()
			if !ok {
				return &gerrors.QueryExecutionError{Message: "SET n = ... requires a map expression"}
			}
			if err := ex.setAllProperties(ctx, frame, v.Name, props, item.IsAdd); err != nil {
				return err
			}
			continue
		}
		return &gerrors.QueryExecutionError{Message: "unsupported SET target"}
	}
	return nil
}

func targetVariable(e ast.Expr) string {
	if v, ok := e.(*ast.Variable); ok {
		return v.Name
	}
	return ""
}

func (ex *Executor) setOneProperty(ctx context.Context, frame eval.Frame, varName, prop string, val values.Value) error {
	bound := frame[varName]
	id, ok := entityID(bound)
	if !ok {
		return &gerrors.QueryExecutionError{Message: "SET target is not bound to an entity"}
	}
	if isRelValue(bound) {
		return ex.setRelProperty(ctx, frame, varName, id, prop, val)
	}
	n, err := ex.Graph.GetNode(ctx, ex.Querier, id)
	if err != nil {
		return err
	}
	props := cloneProps(n.Properties)
	props[prop] = val
	updated, err := ex.Graph.UpdateNodeProperties(ctx, ex.Querier, id, props)
	if err != nil {
		return err
	}
	frame[varName] = nodeToValue(updated)
	return nil
}

func (ex *Executor) setAllProperties(ctx context.Context, frame eval.Frame, varName string, newProps map[string]values.Value, isAdd bool) error {
	bound := frame[varName]
	id, ok := entityID(bound)
	if !ok {
		return &gerrors.QueryExecutionError{Message: "SET target is not bound to an entity"}
	}
	n, err := ex.Graph.GetNode(ctx, ex.Querier, id)
	if err != nil {
		return err
	}
	props := newProps
	if isAdd {
		props = cloneProps(n.Properties)
		for k, v := range newProps {
			props[k] = v
		}
	}
	updated, err := ex.Graph.UpdateNodeProperties(ctx, ex.Querier, id, props)
	if err != nil {
		return err
	}
	frame[varName] = nodeToValue(updated)
	return nil
}

// setRelProperty sets one property on a relationship through
// Graph.UpdateRelationshipProperties and rebinds the refreshed
// relationship in frame.
func (ex *Executor) setRelProperty(ctx context.Context, frame eval.Frame, varName string, id int64, prop string, val values.Value) error {
	r, err := ex.Graph.GetRelationship(ctx, ex.Querier, id)
	if err != nil {
		return err
	}
	props := cloneProps(r.Properties)
	props[prop] = val
	if err := ex.Graph.UpdateRelationshipProperties(ctx, ex.Querier, id, props); err != nil {
		return err
	}
	updated, err := ex.Graph.GetRelationship(ctx, ex.Querier, id)
	if err != nil {
		return err
	}
	frame[varName] = relToValue(updated)
	return nil
}

func cloneProps(m map[string]values.Value) map[string]values.Value {
	out := make(map[string]values.Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (ex *Executor) execRemove(ctx context.Context, c *ast.RemoveClause, in []eval.Frame) ([]eval.Frame, error) {
	for _, frame := range in {
		for _, item := range c.Items {
			if item.Label != "" {
				varName := targetVariable(item.Target)
				id, ok := entityID(frame[varName])
				if !ok {
					return nil, &gerrors.QueryExecutionError{Message: "REMOVE label target is not a bound node"}
				}
				if err := ex.Graph.RemoveLabels(ctx, ex.Querier, id, []string{item.Label}); err != nil {
					return nil, err
				}
				refreshed, err := ex.Graph.GetNode(ctx, ex.Querier, id)
				if err != nil {
					return nil, err
				}
				frame[varName] = nodeToValue(refreshed)
				continue
			}
			pa, ok := item.Target.(*ast.PropertyAccess)
			if !ok {
				return nil, &gerrors.QueryExecutionError{Message: "unsupported REMOVE target"}
			}
			varName := targetVariable(pa.Target)
			if err := ex.setOneProperty(ctx, frame, varName, pa.Name, values.Null()); err != nil {
				return nil, err
			}
			removePropertyKey(frame, varName, pa.Name)
		}
	}
	return in, nil
}

func removePropertyKey(frame eval.Frame, varName, prop string) {
	bound, ok := frame[varName].Map()
	if !ok {
		return
	}
	delete(bound, prop)
	frame[varName] = values.Map(bound)
}

func (ex *Executor) execDelete(ctx context.Context, c *ast.DeleteClause, in []eval.Frame) ([]eval.Frame, error) {
	e := ex.evaluator()
	for _, frame := range in {
		for _, item := range c.Items {
			v, err := e.Eval(item, frame)
			if err != nil {
				return nil, err
			}
			id, ok := entityID(v)
			if !ok {
				continue
			}
			if isRelValue(v) {
				if err := ex.Graph.DeleteRelationship(ctx, ex.Querier, id); err != nil {
					return nil, err
				}
				continue
			}
			if c.Detach {
				if err := ex.Graph.DetachDeleteNode(ctx, ex.Querier, id); err != nil {
					return nil, err
				}
				continue
			}
			has, err := ex.Graph.HasIncidentRelationships(ctx, ex.Querier, id)
			if err != nil {
				return nil, err
			}
			if has {
				return nil, &gerrors.ConstraintViolation{Detail: "cannot delete a node with incident relationships without DETACH"}
			}
			if err := ex.Graph.DeleteNode(ctx, ex.Querier, id); err != nil {
				return nil, err
			}
		}
	}
	return in, nil
}
