package vectorindex

import (
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"sort"
)

// BruteForce is the required exact reference backend (§4.10): a linear
// scan over every stored vector. Correct by construction; used as the
// default when no backend is configured.
type BruteForce struct {
	dim     int
	metric  Metric
	vectors map[int64][]float32
}

func NewBruteForce(dim int, metric Metric) *BruteForce {
	return &BruteForce{dim: dim, metric: metric, vectors: make(map[int64][]float32)}
}

func (b *BruteForce) Dimension() int { return b.dim }
func (b *BruteForce) Metric() Metric { return b.metric }
func (b *BruteForce) Len() int       { return len(b.vectors) }

func (b *BruteForce) Add(id int64, vector []float32) error {
	if err := validateDimension(b.dim, len(vector)); err != nil {
		return err
	}
	cp := make([]float32, len(vector))
	copy(cp, vector)
	b.vectors[id] = cp
	return nil
}

func (b *BruteForce) Remove(id int64) error {
	delete(b.vectors, id)
	return nil
}

func (b *BruteForce) Search(vector []float32, k int) ([]Candidate, error) {
	if err := validateDimension(b.dim, len(vector)); err != nil {
		return nil, err
	}
	out := make([]Candidate, 0, len(b.vectors))
	for id, v := range b.vectors {
		out = append(out, Candidate{ID: id, Score: distance(b.metric, vector, v)})
	}
	sort.Slice(out, func(i, j int) bool {
		if b.metric == MetricIP || b.metric == MetricCosine {
			if out[i].Score == out[j].Score {
				return out[i].ID < out[j].ID
			}
			return out[i].Score > out[j].Score
		}
		if out[i].Score == out[j].Score {
			return out[i].ID < out[j].ID
		}
		return out[i].Score < out[j].Score
	})
	if k < len(out) {
		out = out[:k]
	}
	return out, nil
}

func (b *BruteForce) Persist(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("vectorindex: persist bruteforce: %w", err)
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(b.vectors)
}

func (b *BruteForce) Load(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("vectorindex: load bruteforce: %w", err)
	}
	defer f.Close()
	vectors := make(map[int64][]float32)
	if err := gob.NewDecoder(f).Decode(&vectors); err != nil {
		return fmt.Errorf("vectorindex: decode bruteforce: %w", err)
	}
	b.vectors = vectors
	return nil
}

// distance computes a's comparison score against b in the given metric;
// for cosine and inner-product, higher is more similar; for l2, lower is.
func distance(m Metric, a, b []float32) float64 {
	switch m {
	case MetricIP:
		return dot(a, b)
	case MetricCosine:
		na, nb := norm(a), norm(b)
		if na == 0 || nb == 0 {
			return 0
		}
		return dot(a, b) / (na * nb)
	default: // l2
		var sum float64
		for i := range a {
			d := float64(a[i] - b[i])
			sum += d * d
		}
		return math.Sqrt(sum)
	}
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(a []float32) float64 {
	return math.Sqrt(dot(a, a))
}
