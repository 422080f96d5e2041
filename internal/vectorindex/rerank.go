package vectorindex

import "github.com/grafito-db/grafito/internal/registry"

// RerankCandidate is one input row to a Reranker. Manager.Search fills
// only ID and Score; Vector and Node are left empty.
type RerankCandidate struct {
	ID     int64
	Vector []float32
	Score  float64
	Node   map[string]any
}

// Reranker re-orders/re-scores candidates given the original query
// vector (§4.10). The registry is append-only and safe for concurrent
// reads, same discipline as every other registry in this codebase.
type Reranker func(queryVec []float32, candidates []RerankCandidate) []Candidate

var Rerankers = registry.New[Reranker]()

func init() {
	Rerankers.Register("identity", identityReranker)
}

// identityReranker is the default used by rerank:true without an
// explicit reranker name: it keeps the backend's own order and score.
// Manager.Search refuses it unless the index has store_embeddings set
// (§4.10).
func identityReranker(_ []float32, candidates []RerankCandidate) []Candidate {
	out := make([]Candidate, len(candidates))
	for i, c := range candidates {
		out[i] = Candidate{ID: c.ID, Score: c.Score}
	}
	return out
}
