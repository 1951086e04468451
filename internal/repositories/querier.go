package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the slice of pgx shared by *pgxpool.Pool, pgx.Tx, and
// pgxmock.PgxPoolIface. Repositories hold one for plain reads; methods with a
// Tx suffix take one explicitly so they run inside the caller's transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// DB additionally opens transactions. Satisfied by *pgxpool.Pool and
// pgxmock.PgxPoolIface.
type DB interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}
