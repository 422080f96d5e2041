package vectorindex

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBruteForceSearchOrdersByMetric(t *testing.T) {
	b := NewBruteForce(2, MetricL2)
	if err := b.Add(1, []float32{0, 0}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := b.Add(2, []float32{10, 10}); err != nil {
		t.Fatalf("add: %v", err)
	}
	results, err := b.Search([]float32{1, 1}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 || results[0].ID != 1 {
		t.Fatalf("expected id 1 closest under l2, got %+v", results)
	}
}

func TestBruteForceCosineOrdersHighestFirst(t *testing.T) {
	b := NewBruteForce(2, MetricCosine)
	b.Add(1, []float32{1, 0})
	b.Add(2, []float32{-1, 0})
	results, err := b.Search([]float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if results[0].ID != 1 {
		t.Fatalf("expected the parallel vector to rank first, got %+v", results)
	}
}

func TestBruteForceRejectsDimensionMismatch(t *testing.T) {
	b := NewBruteForce(3, MetricL2)
	if err := b.Add(1, []float32{1, 2}); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestBruteForceRemove(t *testing.T) {
	b := NewBruteForce(1, MetricL2)
	b.Add(1, []float32{1})
	b.Remove(1)
	if b.Len() != 0 {
		t.Fatalf("expected 0 vectors after remove, got %d", b.Len())
	}
}

func TestBruteForcePersistAndLoad(t *testing.T) {
	b := NewBruteForce(2, MetricL2)
	b.Add(1, []float32{1, 2})
	b.Add(2, []float32{3, 4})
	path := filepath.Join(t.TempDir(), "bf.gob")
	if err := b.Persist(path); err != nil {
		t.Fatalf("persist: %v", err)
	}
	reloaded := NewBruteForce(2, MetricL2)
	if err := reloaded.Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if reloaded.Len() != 2 {
		t.Fatalf("expected 2 vectors after load, got %d", reloaded.Len())
	}
}

func TestBruteForceLoadMissingFileIsNotAnError(t *testing.T) {
	b := NewBruteForce(2, MetricL2)
	if err := b.Load(filepath.Join(os.TempDir(), "does-not-exist.gob")); err != nil {
		t.Fatalf("expected missing persist file to be a no-op, got %v", err)
	}
}
