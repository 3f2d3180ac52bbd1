package store

import (
	"context"
	"database/sql"
)

// DBTX is the database handle the generation store runs its statements
// against. Both *sql.DB and *sql.Tx satisfy it, so the same store can
// execute directly or inside a submit transaction via WithTx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
