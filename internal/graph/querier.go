package graph

import (
	"context"
	"database/sql"
)

// Querier abstracts over *sql.DB and *sql.Tx so every primitive can run
// either against an implicit read connection or inside the caller's
// active transaction (§4.3: "All mutations participate in the active
// transaction").
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
