package exec

import (
	"context"

	"github.com/grafito-db/grafito/internal/ast"
	"github.com/grafito-db/grafito/internal/eval"
	"github.com/grafito-db/grafito/internal/gerrors"
	"github.com/grafito-db/grafito/internal/graph"
	"github.com/grafito-db/grafito/internal/values"
)

func (ex *Executor) execMatch(ctx context.Context, c *ast.MatchClause, in []eval.Frame) ([]eval.Frame, error) {
	var out []eval.Frame
	for _, frame := range in {
		matched, err := ex.matchPattern(ctx, c.Pattern, frame)
		if err != nil {
			return nil, err
		}
		if c.Where != nil {
			e := ex.evaluator()
			var filtered []eval.Frame
			for _, m := range matched {
				t, isNull, err := e.Truthy(c.Where, m)
				if err != nil {
					return nil, err
				}
				if !isNull && t {
					filtered = append(filtered, m)
				}
			}
			matched = filtered
		}
		if c.Optional && len(matched) == 0 {
			out = append(out, frame.Clone())
			continue
		}
		out = append(out, matched...)
	}
	return out, nil
}

// matchPattern expands one comma-separated pattern against frame,
// chaining each path's node/relationship sequence in order.
func (ex *Executor) matchPattern(ctx context.Context, p *ast.Pattern, frame eval.Frame) ([]eval.Frame, error) {
	frames := []eval.Frame{frame}
	for _, path := range p.Paths {
		var err error
		frames, err = ex.matchPath(ctx, path, frames)
		if err != nil {
			return nil, err
		}
	}
	return frames, nil
}

func (ex *Executor) matchPath(ctx context.Context, path *ast.PathPattern, in []eval.Frame) ([]eval.Frame, error) {
	if path.ShortestPath || path.AllShortest {
		return ex.matchShortestPath(ctx, path, in)
	}
	frames := in
	for i, node := range path.Nodes {
		var err error
		frames, err = ex.matchNode(ctx, node, frames)
		if err != nil {
			return nil, err
		}
		if i == len(path.Rels) {
			break
		}
		rel := path.Rels[i]
		frames, err = ex.matchRel(ctx, rel, node, path.Nodes[i+1], frames)
		if err != nil {
			return nil, err
		}
	}
	if path.Name != "" {
		frames = bindNamedPath(path, frames)
	}
	return frames, nil
}

func bindNamedPath(path *ast.PathPattern, frames []eval.Frame) []eval.Frame {
	out := make([]eval.Frame, len(frames))
	for i, f := range frames {
		nf := f.Clone()
		var nodes, rels []values.Value
		for _, n := range path.Nodes {
			if n.Variable != "" {
				nodes = append(nodes, f[n.Variable])
			}
		}
		for _, r := range path.Rels {
			if r.Variable != "" {
				rels = append(rels, f[r.Variable])
			}
		}
		nf[path.Name] = values.Map(map[string]values.Value{
			"__path_nodes": values.List(nodes),
			"__path_rels":  values.List(rels),
			"__entity":     values.Str("path"),
		})
		out[i] = nf
	}
	return out
}

func (ex *Executor) matchNode(ctx context.Context, pat *ast.NodePattern, in []eval.Frame) ([]eval.Frame, error) {
	var out []eval.Frame
	for _, frame := range in {
		if pat.Variable != "" {
			if bound, ok := frame[pat.Variable]; ok {
				if isNodeValue(bound) && ex.nodeMatchesPattern(bound, pat, frame) {
					out = append(out, frame)
				}
				continue
			}
		}
		props, err := ex.evalMapLiteral(pat.Properties, frame)
		if err != nil {
			return nil, err
		}
		nodes, err := ex.Graph.MatchNodes(ctx, ex.Querier, graph.NodeFilter{Labels: pat.Labels, Properties: props})
		if err != nil {
			return nil, err
		}
		for _, n := range nodes {
			nf := frame.Clone()
			if pat.Variable != "" {
				nf[pat.Variable] = nodeToValue(n)
			}
			out = append(out, nf)
		}
	}
	return out, nil
}

func (ex *Executor) nodeMatchesPattern(bound values.Value, pat *ast.NodePattern, frame eval.Frame) bool {
	m, _ := bound.Map()
	labelsV, _ := m["__labels"].List()
	labelSet := make(map[string]bool, len(labelsV))
	for _, l := range labelsV {
		s, _ := l.Str()
		labelSet[s] = true
	}
	for _, want := range pat.Labels {
		if !labelSet[want] {
			return false
		}
	}
	props, err := ex.evalMapLiteral(pat.Properties, frame)
	if err != nil {
		return false
	}
	for k, want := range props {
		got, ok := m[k]
		if !ok {
			return false
		}
		if eq, isNull := values.Equal(got, want); isNull || !eq {
			return false
		}
	}
	return true
}

func (ex *Executor) matchRel(ctx context.Context, rel *ast.RelPattern, from, to *ast.NodePattern, in []eval.Frame) ([]eval.Frame, error) {
	if rel.VarLength {
		return ex.matchVarLengthRel(ctx, rel, from, to, in)
	}
	var out []eval.Frame
	for _, frame := range in {
		srcID, srcOK := entityID(frame[from.Variable])
		if !srcOK {
			continue
		}
		relType := ""
		if len(rel.Types) > 0 {
			relType = rel.Types[0]
		}
		candidates, err := ex.relCandidates(ctx, frame, rel, srcID, relType)
		if err != nil {
			return nil, err
		}
		for _, cand := range candidates {
			nf := frame.Clone()
			targetID := cand.TargetID
			if srcID == cand.TargetID {
				targetID = cand.SourceID
			}
			tgtNode, err := ex.Graph.GetNode(ctx, ex.Querier, targetID)
			if err != nil {
				continue
			}
			if to.Variable != "" {
				if bound, ok := nf[to.Variable]; ok {
					if id, ok := entityID(bound); !ok || id != targetID {
						continue
					}
				} else {
					nf[to.Variable] = nodeToValue(tgtNode)
				}
			}
			if rel.Variable != "" {
				nf[rel.Variable] = relToValue(cand)
			}
			out = append(out, nf)
		}
	}
	return out, nil
}

func (ex *Executor) relCandidates(ctx context.Context, frame eval.Frame, rel *ast.RelPattern, srcID int64, relType string) ([]graph.Relationship, error) {
	props, err := ex.evalMapLiteral(rel.Properties, frame)
	if err != nil {
		return nil, err
	}
	filterOut := func(rels []graph.Relationship) []graph.Relationship {
		if len(props) == 0 && len(rel.Types) <= 1 {
			return rels
		}
		var kept []graph.Relationship
		for _, r := range rels {
			if len(rel.Types) > 1 && !typeIn(r.Type, rel.Types) {
				continue
			}
			if !propsMatch(r.Properties, props) {
				continue
			}
			kept = append(kept, r)
		}
		return kept
	}
	switch rel.Direction {
	case ast.DirRight:
		rels, err := ex.Graph.MatchRelationships(ctx, ex.Querier, graph.RelFilter{SourceID: srcID, HasSource: true, Type: relType})
		return filterOut(rels), err
	case ast.DirLeft:
		rels, err := ex.Graph.MatchRelationships(ctx, ex.Querier, graph.RelFilter{TargetID: srcID, HasTarget: true, Type: relType})
		return filterOut(rels), err
	default:
		out, err := ex.Graph.MatchRelationships(ctx, ex.Querier, graph.RelFilter{SourceID: srcID, HasSource: true, Type: relType})
		if err != nil {
			return nil, err
		}
		in, err := ex.Graph.MatchRelationships(ctx, ex.Querier, graph.RelFilter{TargetID: srcID, HasTarget: true, Type: relType})
		if err != nil {
			return nil, err
		}
		return filterOut(append(out, in...)), nil
	}
}

func typeIn(t string, types []string) bool {
	for _, want := range types {
		if want == t {
			return true
		}
	}
	return false
}

func propsMatch(have, want map[string]values.Value) bool {
	for k, w := range want {
		h, ok := have[k]
		if !ok {
			return false
		}
		if eq, isNull := values.Equal(h, w); isNull || !eq {
			return false
		}
	}
	return true
}

func (ex *Executor) matchVarLengthRel(ctx context.Context, rel *ast.RelPattern, from, to *ast.NodePattern, in []eval.Frame) ([]eval.Frame, error) {
	min, max := 1, ex.MaxHops
	if rel.HasMinHops {
		min = rel.MinHops
	}
	if rel.HasMaxHops && rel.MaxHops >= 0 {
		max = rel.MaxHops
	}
	if max > ex.MaxHops {
		max = ex.MaxHops
	}
	dir := directionOf(rel.Direction)
	relType := ""
	if len(rel.Types) > 0 {
		relType = rel.Types[0]
	}
	var out []eval.Frame
	for _, frame := range in {
		srcID, ok := entityID(frame[from.Variable])
		if !ok {
			continue
		}
		// If the target is already bound, search only toward it.
		if to.Variable != "" {
			if bound, ok := frame[to.Variable]; ok {
				tgtID, _ := entityID(bound)
				paths, err := ex.Graph.VariableLengthPaths(ctx, ex.Querier, srcID, tgtID, min, max, dir, relType)
				if err != nil {
					return nil, err
				}
				for _, p := range paths {
					out = append(out, bindVarLengthFrame(frame, rel, p))
				}
				continue
			}
		}
		// Otherwise enumerate all reachable targets within [min,max] hops
		// by expanding outward from the source one hop level at a time.
		neighbors, err := ex.enumerateVarLength(ctx, srcID, min, max, dir, relType)
		if err != nil {
			return nil, err
		}
		for _, p := range neighbors {
			nf := bindVarLengthFrame(frame, rel, p)
			if to.Variable != "" {
				last := p.Nodes[len(p.Nodes)-1]
				nf[to.Variable] = nodeToValue(last)
			}
			out = append(out, nf)
		}
	}
	return out, nil
}

func bindVarLengthFrame(frame eval.Frame, rel *ast.RelPattern, p graph.Path) eval.Frame {
	nf := frame.Clone()
	if rel.Variable != "" {
		rels := make([]values.Value, len(p.Rels))
		for i, r := range p.Rels {
			rels[i] = relToValue(r)
		}
		nf[rel.Variable] = values.List(rels)
	}
	return nf
}

// enumerateVarLength collects every simple path within [min,max] hops
// from src by walking outward one hop at a time, bounded by cypher_max_hops.
func (ex *Executor) enumerateVarLength(ctx context.Context, src int64, min, max int, dir graph.Direction, relType string) ([]graph.Path, error) {
	start, err := ex.Graph.GetNode(ctx, ex.Querier, src)
	if err != nil {
		return nil, err
	}
	frontier := []graph.Path{{Nodes: []graph.Node{start}}}
	var results []graph.Path
	if min <= 0 {
		results = append(results, frontier[0])
	}
	for depth := 1; depth <= max; depth++ {
		var next []graph.Path
		for _, p := range frontier {
			cur := p.Nodes[len(p.Nodes)-1]
			neighbors, err := ex.Graph.GetNeighbors(ctx, ex.Querier, cur.ID, dir, relType)
			if err != nil {
				return nil, err
			}
			for _, nb := range neighbors {
				if pathVisits(p, nb.ID) {
					continue
				}
				np := graph.Path{Nodes: append(append([]graph.Node{}, p.Nodes...), nb)}
				next = append(next, np)
				if depth >= min {
					results = append(results, np)
				}
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}
	return results, nil
}

func pathVisits(p graph.Path, id int64) bool {
	for _, n := range p.Nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

func directionOf(d ast.RelDirection) graph.Direction {
	switch d {
	case ast.DirRight:
		return graph.DirOutgoing
	case ast.DirLeft:
		return graph.DirIncoming
	default:
		return graph.DirBoth
	}
}

func (ex *Executor) matchShortestPath(ctx context.Context, path *ast.PathPattern, in []eval.Frame) ([]eval.Frame, error) {
	if len(path.Nodes) != 2 || len(path.Rels) != 1 {
		return nil, &gerrors.QueryExecutionError{Message: "shortestPath/allShortestPaths requires exactly two endpoints"}
	}
	fromPat, toPat, rel := path.Nodes[0], path.Nodes[1], path.Rels[0]
	dir := directionOf(rel.Direction)
	relType := ""
	if len(rel.Types) > 0 {
		relType = rel.Types[0]
	}
	var out []eval.Frame
	for _, frame := range in {
		srcID, ok1 := entityID(frame[fromPat.Variable])
		tgtID, ok2 := entityID(frame[toPat.Variable])
		if !ok1 || !ok2 {
			continue
		}
		if path.AllShortest {
			paths, err := ex.Graph.AllShortestPaths(ctx, ex.Querier, srcID, tgtID, dir, relType)
			if err != nil {
				return nil, err
			}
			for _, p := range paths {
				out = append(out, bindPathResult(frame, path, rel, p))
			}
			continue
		}
		p, found, err := ex.Graph.ShortestPath(ctx, ex.Querier, srcID, tgtID, dir, relType)
		if err != nil {
			return nil, err
		}
		if found {
			out = append(out, bindPathResult(frame, path, rel, p))
		}
	}
	return out, nil
}

func bindPathResult(frame eval.Frame, path *ast.PathPattern, rel *ast.RelPattern, p graph.Path) eval.Frame {
	nf := frame.Clone()
	if rel.Variable != "" {
		rels := make([]values.Value, len(p.Rels))
		for i, r := range p.Rels {
			rels[i] = relToValue(r)
		}
		nf[rel.Variable] = values.List(rels)
	}
	if path.Name != "" {
		nf[path.Name] = pathToValue(p)
	}
	return nf
}

func (ex *Executor) evalMapLiteral(m *ast.MapLiteral, frame eval.Frame) (map[string]values.Value, error) {
	if m == nil {
		return nil, nil
	}
	e := ex.evaluator()
	out := make(map[string]values.Value, len(m.Entries))
	for _, entry := range m.Entries {
		v, err := e.Eval(entry.Value, frame)
		if err != nil {
			return nil, err
		}
		out[entry.Key] = v
	}
	return out, nil
}

func (ex *Executor) evalPatternComprehension(path *ast.PathPattern, frame eval.Frame) ([]eval.Frame, error) {
	return ex.matchPath(context.Background(), path, []eval.Frame{frame})
}
