package pgrows

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the statement surface shared by connections and transactions.
type Querier interface {
	// Exec executes a statement without returning any rows.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// Query executes a query that returns rows. The caller must close the rows.
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)

	// QueryRow executes a query that is expected to return at most one row.
	// Errors are deferred until Scan is called.
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Conn is a live database session owned by exactly one connection scope.
//
// Statements run inside an implicit transaction that is opened by the first
// statement after construction, Commit, or Rollback. Commit and Rollback end
// that transaction; both are no-ops when no transaction is open.
//
// A Conn is NOT safe for concurrent use.
type Conn interface {
	Querier

	// Commit commits the pending transaction, if any.
	Commit(ctx context.Context) error

	// Rollback discards the pending transaction, if any.
	Rollback(ctx context.Context) error

	// Close rolls back any pending transaction and closes the physical
	// connection. Calling Close more than once is a no-op.
	Close(ctx context.Context) error

	// IsClosed reports whether Close has been called or the underlying
	// connection has been lost.
	IsClosed() bool
}

// Connector opens new database sessions.
// Different implementations handle the supported authentication methods.
type Connector interface {
	// Connect opens a new session. The caller owns the returned Conn and must Close it.
	Connect(ctx context.Context) (Conn, error)
}

// Operation is a unit of work that runs against a connection supplied by an
// enclosing connection scope.
type Operation[T any] func(ctx context.Context, conn Conn) (T, error)

// Call is an entry point that manages its own resources.
type Call[T any] func(ctx context.Context) (T, error)
