// Package txn implements the session/transaction manager (§4.11): begin,
// commit, rollback, and scoped-transaction acquisition with savepoint
// nesting, backing the single-writer concurrency model of §5.
package txn

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/grafito-db/grafito/internal/gerrors"
	"github.com/grafito-db/grafito/internal/graph"
)

// Session owns one logical connection's transaction state. A nil active
// transaction means reads run directly against the pooled *sql.DB as an
// implicit read transaction (§4.11); writes issued outside a scope
// auto-commit per the primitive's own contract.
type Session struct {
	db *sql.DB

	mu     sync.Mutex
	tx     *sql.Tx
	depth  int
	closed bool
}

// NewSession wraps db in a fresh, un-begun session.
func NewSession(db *sql.DB) *Session {
	return &Session{db: db}
}

// Querier returns the Querier writes and reads should run against: the
// active transaction if one is open, otherwise the pooled *sql.DB.
func (s *Session) Querier() graph.Querier {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// Begin opens a transaction, or — if one is already open — a savepoint
// nested inside it (§4.11: "nested scopes open savepoints").
func (s *Session) Begin(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &gerrors.TransactionError{Message: "session is closed"}
	}
	if s.tx == nil {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return &gerrors.StorageError{Op: "begin", Err: err}
		}
		s.tx = tx
		s.depth = 1
		return nil
	}
	s.depth++
	if _, err := s.tx.ExecContext(ctx, "SAVEPOINT "+savepointName(s.depth)); err != nil {
		s.depth--
		return &gerrors.StorageError{Op: "savepoint", Err: err}
	}
	return nil
}

// Commit closes the innermost open scope: releases the savepoint if
// nested, or commits the underlying transaction when it is the outermost
// scope (depth 1).
func (s *Session) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil {
		return &gerrors.TransactionError{Message: "commit outside a transaction"}
	}
	if s.depth == 1 {
		err := s.tx.Commit()
		s.tx = nil
		s.depth = 0
		if err != nil {
			return &gerrors.StorageError{Op: "commit", Err: err}
		}
		return nil
	}
	name := savepointName(s.depth)
	s.depth--
	if _, err := s.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return &gerrors.StorageError{Op: "release_savepoint", Err: err}
	}
	return nil
}

// Rollback aborts the innermost open scope: rolls back to the savepoint
// if nested (without affecting the outer transaction), or rolls back the
// whole transaction when it is the outermost scope (depth 1).
func (s *Session) Rollback(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil {
		return &gerrors.TransactionError{Message: "rollback outside a transaction"}
	}
	if s.depth == 1 {
		err := s.tx.Rollback()
		s.tx = nil
		s.depth = 0
		if err != nil {
			return &gerrors.StorageError{Op: "rollback", Err: err}
		}
		return nil
	}
	name := savepointName(s.depth)
	s.depth--
	if _, err := s.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); err != nil {
		return &gerrors.StorageError{Op: "rollback_to_savepoint", Err: err}
	}
	if _, err := s.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return &gerrors.StorageError{Op: "release_savepoint", Err: err}
	}
	return nil
}

// InTransaction reports whether a transaction or savepoint is currently open.
func (s *Session) InTransaction() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx != nil
}

// Close rolls back any still-open transaction, the abort path a
// cancelled session takes (§5: "aborted queries roll back any partial
// writes").
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	tx := s.tx
	s.tx = nil
	s.depth = 0
	s.closed = true
	s.mu.Unlock()
	if tx == nil {
		return nil
	}
	if err := tx.Rollback(); err != nil {
		return &gerrors.StorageError{Op: "close_rollback", Err: err}
	}
	return nil
}

// Scope runs fn inside a begin/commit-or-rollback bracket (§4.11: "a
// scope opens a transaction on enter and commits on clean exit; any
// error propagates after rollback"). Calling Scope while already inside
// one opens a savepoint, so inner failures roll back only to that point.
func (s *Session) Scope(ctx context.Context, fn func(ctx context.Context, q graph.Querier) error) (err error) {
	if err := s.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = s.Rollback(ctx)
			panic(p)
		}
	}()
	if err := fn(ctx, s.Querier()); err != nil {
		if rerr := s.Rollback(ctx); rerr != nil {
			return rerr
		}
		return err
	}
	return s.Commit(ctx)
}

func savepointName(depth int) string {
	return fmt.Sprintf("grafito_sp_%d", depth)
}
