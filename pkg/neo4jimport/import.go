package neo4jimport

import (
	"context"
	"fmt"
	"os"

	"github.com/grafito-db/grafito/internal/gerrors"
	"github.com/grafito-db/grafito/internal/graph"
	"github.com/grafito-db/grafito/internal/values"
)

// Stats summarizes one import run.
type Stats struct {
	NodesImported         int
	RelationshipsImported int
	PropertiesSkipped     int // dynamic array / short-string blocks that weren't decoded
}

// Import extracts archivePath (a Zstandard-compressed Neo4j data
// directory, §6) and materializes its nodes and relationships into g
// via q. Constraints and native indexes are never imported.
func Import(ctx context.Context, g *graph.Graph, q graph.Querier, archivePath string) (Stats, error) {
	tempDir, err := os.MkdirTemp("", "grafito-neo4jimport-*")
	if err != nil {
		return Stats{}, &gerrors.ImportError{Source: archivePath, Message: err.Error()}
	}
	defer os.RemoveAll(tempDir)

	paths, err := extractStores(archivePath, tempDir)
	if err != nil {
		return Stats{}, err
	}

	nodeData, err := readStore(paths, "neostore.nodestore.db", true)
	if err != nil {
		return Stats{}, err
	}
	relData, err := readStore(paths, "neostore.relationshipstore.db", true)
	if err != nil {
		return Stats{}, err
	}
	labelTokens, _ := readStore(paths, "neostore.labeltokenstore.db", false)
	labelNames, _ := readStore(paths, "neostore.labeltokenstore.db.names", false)
	relTypeTokens, _ := readStore(paths, "neostore.relationshiptypestore.db", false)
	relTypeNames, _ := readStore(paths, "neostore.relationshiptypestore.db.names", false)
	propKeyTokens, _ := readStore(paths, "neostore.propertystore.db.index", false)
	propKeyNames, _ := readStore(paths, "neostore.propertystore.db.index.keys", false)
	propRecords, _ := readStore(paths, "neostore.propertystore.db", false)
	propStrings, _ := readStore(paths, "neostore.propertystore.db.strings", false)

	nodes, err := parseNodeStore(nodeData)
	if err != nil {
		return Stats{}, err
	}
	rels, err := parseRelStore(relData)
	if err != nil {
		return Stats{}, err
	}

	labels, _ := parseTokenStore(labelTokens, labelNames)
	relTypes, _ := parseTokenStore(relTypeTokens, relTypeNames)
	propKeys, _ := parseTokenStore(propKeyTokens, propKeyNames)

	var props *propertyStore
	if len(propRecords) > 0 {
		props, err = newPropertyStore(propRecords, propStrings, propKeys)
		if err != nil {
			return Stats{}, err
		}
	}

	stats := Stats{}
	idMap := make(map[int64]int64, len(nodes))
	for _, n := range nodes {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}
		nodeLabels := make([]string, 0, len(n.labelIDs))
		for _, lid := range n.labelIDs {
			if name, ok := labels[lid]; ok {
				nodeLabels = append(nodeLabels, name)
			} else {
				nodeLabels = append(nodeLabels, fmt.Sprintf("Label%d", lid))
			}
		}
		nodeProps := resolveProps(props, n.nextPropID)
		created, err := g.CreateNode(ctx, q, nodeLabels, nodeProps)
		if err != nil {
			return stats, err
		}
		idMap[n.id] = created.ID
		stats.NodesImported++
	}

	for _, r := range rels {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}
		src, ok := idMap[r.firstNode]
		if !ok {
			continue
		}
		tgt, ok := idMap[r.secondNode]
		if !ok {
			continue
		}
		relType, ok := relTypes[r.typeID]
		if !ok {
			relType = fmt.Sprintf("TYPE%d", r.typeID)
		}
		relProps := resolveProps(props, r.nextPropID)
		if _, err := g.CreateRelationship(ctx, q, src, tgt, relType, relProps); err != nil {
			return stats, err
		}
		stats.RelationshipsImported++
	}

	if props != nil {
		stats.PropertiesSkipped = props.skipped
	}
	return stats, nil
}

func resolveProps(ps *propertyStore, headID int64) map[string]values.Value {
	if ps == nil {
		return nil
	}
	return ps.Resolve(headID)
}

func readStore(paths map[string]string, name string, required bool) ([]byte, error) {
	p, ok := paths[name]
	if !ok {
		if required {
			return nil, &gerrors.ImportError{Source: name, Message: "archive is missing the required store file"}
		}
		return nil, nil
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, &gerrors.ImportError{Source: name, Message: err.Error()}
	}
	return data, nil
}
