package txn

import (
	"context"
	"errors"
	"testing"

	"github.com/grafito-db/grafito/internal/graph"
	"github.com/grafito-db/grafito/internal/storage"
)

func openTestDB(t *testing.T) *storage.Store {
	t.Helper()
	st, err := storage.Open(context.Background(), storage.Options{Path: storage.InMemoryPath})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func countNodes(t *testing.T, q graph.Querier, ctx context.Context) int {
	t.Helper()
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	return n
}

func insertNode(ctx context.Context, q graph.Querier) error {
	_, err := q.ExecContext(ctx, `INSERT INTO nodes (properties) VALUES ('{}')`)
	return err
}

func TestScopeCommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	st := openTestDB(t)
	s := NewSession(st.DB())

	err := s.Scope(ctx, func(ctx context.Context, q graph.Querier) error {
		return insertNode(ctx, q)
	})
	if err != nil {
		t.Fatal(err)
	}
	if s.InTransaction() {
		t.Fatal("expected transaction to be closed after commit")
	}
	if n := countNodes(t, st.DB(), ctx); n != 1 {
		t.Fatalf("expected 1 node after commit, got %d", n)
	}
}

func TestScopeRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	st := openTestDB(t)
	s := NewSession(st.DB())

	boom := errors.New("boom")
	err := s.Scope(ctx, func(ctx context.Context, q graph.Querier) error {
		if err := insertNode(ctx, q); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom error, got %v", err)
	}
	if s.InTransaction() {
		t.Fatal("expected transaction to be closed after rollback")
	}
	if n := countNodes(t, st.DB(), ctx); n != 0 {
		t.Fatalf("expected rollback to discard the insert, got %d nodes", n)
	}
}

func TestNestedScopeSavepointIsolatesFailure(t *testing.T) {
	ctx := context.Background()
	st := openTestDB(t)
	s := NewSession(st.DB())

	boom := errors.New("inner boom")
	err := s.Scope(ctx, func(ctx context.Context, q graph.Querier) error {
		if err := insertNode(ctx, q); err != nil {
			return err
		}
		innerErr := s.Scope(ctx, func(ctx context.Context, q graph.Querier) error {
			if err := insertNode(ctx, q); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(innerErr, boom) {
			t.Fatalf("expected inner scope to surface boom, got %v", innerErr)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if n := countNodes(t, st.DB(), ctx); n != 1 {
		t.Fatalf("expected outer insert to survive inner rollback, got %d nodes", n)
	}
}

func TestCommitOutsideTransactionErrors(t *testing.T) {
	ctx := context.Background()
	st := openTestDB(t)
	s := NewSession(st.DB())

	if err := s.Commit(ctx); err == nil {
		t.Fatal("expected an error committing outside a transaction")
	}
	if err := s.Rollback(ctx); err == nil {
		t.Fatal("expected an error rolling back outside a transaction")
	}
}

func TestClosePendingTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	st := openTestDB(t)
	s := NewSession(st.DB())

	if err := s.Begin(ctx); err != nil {
		t.Fatal(err)
	}
	if err := insertNode(ctx, s.Querier()); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if n := countNodes(t, st.DB(), ctx); n != 0 {
		t.Fatalf("expected Close to roll back the pending insert, got %d nodes", n)
	}
}
