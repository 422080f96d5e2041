package exec

import (
	"github.com/grafito-db/grafito/internal/graph"
	"github.com/grafito-db/grafito/internal/values"
)

// nodeToValue flattens a graph.Node into the values.Map shape the
// evaluator's property-access and built-in functions expect (§4.6's
// Frame convention): own properties plus the reserved "__id"/"__labels"
// bookkeeping keys.
func nodeToValue(n graph.Node) values.Value {
	m := make(map[string]values.Value, len(n.Properties)+2)
	for k, v := range n.Properties {
		m[k] = v
	}
	labels := make([]values.Value, len(n.Labels))
	for i, l := range n.Labels {
		labels[i] = values.Str(l)
	}
	m["__id"] = values.Int(n.ID)
	m["__labels"] = values.List(labels)
	m["__entity"] = values.Str("node")
	return values.Map(m)
}

func relToValue(r graph.Relationship) values.Value {
	m := make(map[string]values.Value, len(r.Properties)+4)
	for k, v := range r.Properties {
		m[k] = v
	}
	m["__id"] = values.Int(r.ID)
	m["__type"] = values.Str(r.Type)
	m["__source"] = values.Int(r.SourceID)
	m["__target"] = values.Int(r.TargetID)
	m["__entity"] = values.Str("relationship")
	return values.Map(m)
}

func pathToValue(p graph.Path) values.Value {
	nodes := make([]values.Value, len(p.Nodes))
	for i, n := range p.Nodes {
		nodes[i] = nodeToValue(n)
	}
	rels := make([]values.Value, len(p.Rels))
	for i, r := range p.Rels {
		rels[i] = relToValue(r)
	}
	return values.Map(map[string]values.Value{
		"__path_nodes": values.List(nodes),
		"__path_rels":  values.List(rels),
		"__entity":     values.Str("path"),
	})
}

func entityID(v values.Value) (int64, bool) {
	m, ok := v.Map()
	if !ok {
		return 0, false
	}
	idv, ok := m["__id"]
	if !ok {
		return 0, false
	}
	return idv.Int()
}

func isNodeValue(v values.Value) bool { return isEntityKind(v, "node") }
func isRelValue(v values.Value) bool  { return isEntityKind(v, "relationship") }

func isEntityKind(v values.Value, kind string) bool {
	m, ok := v.Map()
	if !ok {
		return false
	}
	k, ok := m["__entity"]
	if !ok {
		return false
	}
	s, _ := k.Str()
	return s == kind
}
