// Package storage implements Grafito's relational embedded store: schema
// management, the property value codec, and the low-level row access the
// graph primitives and index subsystems build on (§4.1).
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/grafito-db/grafito/internal/gerrors"
)

// InMemoryPath is the sentinel accepted in place of a filesystem path to
// open a private, non-persistent database (§6: "a filesystem path or an
// in-memory sentinel").
const InMemoryPath = ":memory:"

// JournalMode selects the SQLite journal mode used for the writer
// connection (§6: "Writer journaling mode (recommended WAL)").
type JournalMode string

const (
	JournalWAL    JournalMode = "WAL"
	JournalDelete JournalMode = "DELETE"
)

// Options configures Open.
type Options struct {
	// Path is a filesystem path, or InMemoryPath for an ephemeral database.
	Path string
	// Journal selects the SQLite journal mode; defaults to JournalWAL.
	Journal JournalMode
	// BusyTimeoutMS bounds how long a writer waits on SQLITE_BUSY before
	// failing; defaults to 5000.
	BusyTimeoutMS int
}

// Store wraps the single *sql.DB connection backing one Grafito database.
// Per §5 there is exactly one writer; Store does not pool write
// connections, matching the single-writer model the embedded store itself
// enforces via its write-ahead log.
type Store struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// Open opens or creates the database at opts.Path, applying PRAGMAs and
// running schema migrations to the latest version. Mirrors the
// connect-then-migrate sequence of other embedded-sqlite graph stores in
// this codebase's lineage: open, ping, enable foreign keys, migrate.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Journal == "" {
		opts.Journal = JournalWAL
	}
	if opts.BusyTimeoutMS == 0 {
		opts.BusyTimeoutMS = 5000
	}

	dsn := opts.Path
	if dsn != InMemoryPath {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, &gerrors.StorageError{Op: "mkdir", Err: err}
			}
		}
	}
	dsn = fmt.Sprintf("%s?_journal_mode=%s&_busy_timeout=%d&_foreign_keys=on",
		dsn, opts.Journal, opts.BusyTimeoutMS)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, &gerrors.StorageError{Op: "open", Err: err}
	}
	// A single writer connection keeps SQLite's single-writer contract
	// explicit instead of relying on busy-timeout retries under load.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &gerrors.StorageError{Op: "ping", Err: err}
	}

	s := &Store{db: db, path: opts.Path, log: slog.Default()}

	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}

	s.log.Info("storage opened", "path", opts.Path, "journal", opts.Journal)
	return s, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DB exposes the underlying *sql.DB for collaborating packages (graph
// primitives, index subsystems) that need to issue their own statements
// within a caller-supplied transaction.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the path Open was called with.
func (s *Store) Path() string { return s.path }
