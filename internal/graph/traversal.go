package graph

import (
	"context"
)

// Path is an ordered alternation of nodes and the relationships that
// connect them: len(Nodes) == len(Rels)+1.
type Path struct {
	Nodes []Node
	Rels  []Relationship
}

// Length returns the path's hop count.
func (p Path) Length() int { return len(p.Rels) }

// ShortestPath performs frontier (BFS) expansion from src to tgt,
// breaking ties by insertion order — first discovered parent wins
// (§4.4). Direction defaults to outgoing; pass DirBoth for bidirectional
// expansion. Returns (path, found).
func (g *Graph) ShortestPath(ctx context.Context, q Querier, src, tgt int64, dir Direction, relType string) (Path, bool, error) {
	if src == tgt {
		n, err := g.GetNode(ctx, q, src)
		if err != nil {
			return Path{}, false, err
		}
		return Path{Nodes: []Node{n}}, true, nil
	}

	type parentEdge struct {
		parent int64
		via    Relationship
	}
	visited := map[int64]parentEdge{src: {}}
	frontier := []int64{src}

	for len(frontier) > 0 && visited[tgt].parent == 0 && tgt != src {
		var next []int64
		for _, cur := range frontier {
			edges, err := g.neighborEdges(ctx, q, cur, dir, relType)
			if err != nil {
				return Path{}, false, err
			}
			for _, e := range edges {
				other := e.other
				if _, seen := visited[other]; seen {
					continue
				}
				visited[other] = parentEdge{parent: cur, via: e.rel}
				next = append(next, other)
				if other == tgt {
					break
				}
			}
			if _, found := visited[tgt]; found {
				break
			}
		}
		frontier = next
	}

	if _, found := visited[tgt]; !found {
		return Path{}, false, nil
	}

	// Walk parents back from tgt to src, then reverse.
	var relChain []Relationship
	var nodeChain []int64
	cur := tgt
	for cur != src {
		pe := visited[cur]
		relChain = append(relChain, pe.via)
		nodeChain = append(nodeChain, cur)
		cur = pe.parent
	}
	nodeChain = append(nodeChain, src)

	reverseInt64(nodeChain)
	reverseRel(relChain)

	nodes := make([]Node, len(nodeChain))
	for i, id := range nodeChain {
		n, err := g.GetNode(ctx, q, id)
		if err != nil {
			return Path{}, false, err
		}
		nodes[i] = n
	}
	return Path{Nodes: nodes, Rels: relChain}, true, nil
}

// AllShortestPaths returns every minimum-length path between src and tgt
// (§4.4: "allShortestPaths returns every minimum-length path").
func (g *Graph) AllShortestPaths(ctx context.Context, q Querier, src, tgt int64, dir Direction, relType string) ([]Path, error) {
	best, found, err := g.ShortestPath(ctx, q, src, tgt, dir, relType)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	target := best.Length()
	var all []Path
	g.dfsCollect(ctx, q, src, tgt, dir, relType, target, Path{Nodes: []Node{}}, map[int64]bool{}, &all)
	return all, nil
}

func (g *Graph) dfsCollect(ctx context.Context, q Querier, cur, tgt int64, dir Direction, relType string, remaining int, acc Path, visited map[int64]bool, out *[]Path) {
	n, err := g.GetNode(ctx, q, cur)
	if err != nil {
		return
	}
	acc.Nodes = append(append([]Node{}, acc.Nodes...), n)
	visited = cloneVisited(visited)
	visited[cur] = true

	if cur == tgt && remaining == 0 {
		*out = append(*out, acc)
		return
	}
	if remaining <= 0 {
		return
	}
	edges, err := g.neighborEdges(ctx, q, cur, dir, relType)
	if err != nil {
		return
	}
	for _, e := range edges {
		if visited[e.other] {
			continue
		}
		nextAcc := Path{Nodes: acc.Nodes, Rels: append(append([]Relationship{}, acc.Rels...), e.rel)}
		g.dfsCollect(ctx, q, e.other, tgt, dir, relType, remaining-1, nextAcc, visited, out)
	}
}

// BoundedPath performs a DFS for any simple path from src to tgt of
// length ≤ maxDepth (§4.4).
func (g *Graph) BoundedPath(ctx context.Context, q Querier, src, tgt int64, maxDepth int, dir Direction, relType string) (Path, bool, error) {
	n, err := g.GetNode(ctx, q, src)
	if err != nil {
		return Path{}, false, err
	}
	acc := Path{Nodes: []Node{n}}
	visited := map[int64]bool{src: true}
	found, err := g.boundedDFS(ctx, q, src, tgt, maxDepth, dir, relType, &acc, visited)
	return acc, found, err
}

func (g *Graph) boundedDFS(ctx context.Context, q Querier, cur, tgt int64, remaining int, dir Direction, relType string, acc *Path, visited map[int64]bool) (bool, error) {
	if cur == tgt {
		return true, nil
	}
	if remaining <= 0 {
		return false, nil
	}
	edges, err := g.neighborEdges(ctx, q, cur, dir, relType)
	if err != nil {
		return false, err
	}
	for _, e := range edges {
		if visited[e.other] {
			continue
		}
		n, err := g.GetNode(ctx, q, e.other)
		if err != nil {
			return false, err
		}
		acc.Nodes = append(acc.Nodes, n)
		acc.Rels = append(acc.Rels, e.rel)
		visited[e.other] = true

		found, err := g.boundedDFS(ctx, q, e.other, tgt, remaining-1, dir, relType, acc, visited)
		if err != nil {
			return false, err
		}
		if found {
			return true, nil
		}
		acc.Nodes = acc.Nodes[:len(acc.Nodes)-1]
		acc.Rels = acc.Rels[:len(acc.Rels)-1]
		delete(visited, e.other)
	}
	return false, nil
}

// VariableLengthPaths enumerates every simple path between src and tgt
// whose length falls in [minHops, maxHops] (§4.4). Callers clamp maxHops
// to cypher_max_hops when the pattern's upper bound is absent.
func (g *Graph) VariableLengthPaths(ctx context.Context, q Querier, src, tgt int64, minHops, maxHops int, dir Direction, relType string) ([]Path, error) {
	n, err := g.GetNode(ctx, q, src)
	if err != nil {
		return nil, err
	}
	var out []Path
	acc := Path{Nodes: []Node{n}}
	visited := map[int64]bool{src: true}
	g.enumeratePaths(ctx, q, src, tgt, minHops, maxHops, dir, relType, acc, visited, &out)
	return out, nil
}

func (g *Graph) enumeratePaths(ctx context.Context, q Querier, cur, tgt int64, minHops, maxHops int, dir Direction, relType string, acc Path, visited map[int64]bool, out *[]Path) {
	depth := acc.Length()
	if cur == tgt && depth >= minHops {
		*out = append(*out, acc)
	}
	if depth >= maxHops {
		return
	}
	edges, err := g.neighborEdges(ctx, q, cur, dir, relType)
	if err != nil {
		return
	}
	for _, e := range edges {
		if visited[e.other] {
			continue
		}
		n, err := g.GetNode(ctx, q, e.other)
		if err != nil {
			continue
		}
		nextAcc := Path{
			Nodes: append(append([]Node{}, acc.Nodes...), n),
			Rels:  append(append([]Relationship{}, acc.Rels...), e.rel),
		}
		nextVisited := cloneVisited(visited)
		nextVisited[e.other] = true
		g.enumeratePaths(ctx, q, e.other, tgt, minHops, maxHops, dir, relType, nextAcc, nextVisited, out)
	}
}

type edgeHop struct {
	other int64
	rel   Relationship
}

func (g *Graph) neighborEdges(ctx context.Context, q Querier, node int64, dir Direction, relType string) ([]edgeHop, error) {
	filter := RelFilter{Type: relType}
	var out []edgeHop
	if dir == DirOutgoing || dir == DirBoth {
		f := filter
		f.SourceID, f.HasSource = node, true
		rels, err := g.MatchRelationships(ctx, q, f)
		if err != nil {
			return nil, err
		}
		for _, r := range rels {
			out = append(out, edgeHop{other: r.TargetID, rel: r})
		}
	}
	if dir == DirIncoming || dir == DirBoth {
		f := filter
		f.TargetID, f.HasTarget = node, true
		rels, err := g.MatchRelationships(ctx, q, f)
		if err != nil {
			return nil, err
		}
		for _, r := range rels {
			out = append(out, edgeHop{other: r.SourceID, rel: r})
		}
	}
	return out, nil
}

func reverseInt64(s []int64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func reverseRel(s []Relationship) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func cloneVisited(v map[int64]bool) map[int64]bool {
	out := make(map[int64]bool, len(v)+1)
	for k, val := range v {
		out[k] = val
	}
	return out
}
