package vectorindex

import (
	"fmt"
	"os"

	"github.com/coder/hnsw"
)

// HNSW wraps github.com/coder/hnsw as one of the approximate backends
// §4.10 asks for ("HNSW" is named explicitly alongside IVF/Flat and
// memory-mapped tree-based backends).
type HNSW struct {
	dim    int
	metric Metric
	graph  *hnsw.Graph[int64]
}

func NewHNSW(dim int, metric Metric) *HNSW {
	g := hnsw.NewGraph[int64]()
	g.Distance = hnswDistanceFunc(metric)
	return &HNSW{dim: dim, metric: metric, graph: g}
}

func hnswDistanceFunc(m Metric) hnsw.DistanceFunc {
	switch m {
	case MetricCosine:
		return hnsw.CosineDistance
	default:
		return hnsw.EuclideanDistance
	}
}

func (h *HNSW) Dimension() int { return h.dim }
func (h *HNSW) Metric() Metric { return h.metric }
func (h *HNSW) Len() int       { return h.graph.Len() }

func (h *HNSW) Add(id int64, vector []float32) error {
	if err := validateDimension(h.dim, len(vector)); err != nil {
		return err
	}
	h.graph.Add(hnsw.MakeNode(id, vector))
	return nil
}

func (h *HNSW) Remove(id int64) error {
	h.graph.Delete(id)
	return nil
}

func (h *HNSW) Search(vector []float32, k int) ([]Candidate, error) {
	if err := validateDimension(h.dim, len(vector)); err != nil {
		return nil, err
	}
	nodes := h.graph.Search(vector, k)
	out := make([]Candidate, len(nodes))
	for i, n := range nodes {
		out[i] = Candidate{ID: n.Key, Score: distance(h.metric, vector, n.Value)}
	}
	return out, nil
}

func (h *HNSW) Persist(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("vectorindex: persist hnsw: %w", err)
	}
	defer f.Close()
	return h.graph.Export(f)
}

func (h *HNSW) Load(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("vectorindex: load hnsw: %w", err)
	}
	defer f.Close()
	g := hnsw.NewGraph[int64]()
	g.Distance = hnswDistanceFunc(h.metric)
	if err := g.Import(f); err != nil {
		return fmt.Errorf("vectorindex: import hnsw: %w", err)
	}
	h.graph = g
	return nil
}
