package lifecycle

import (
	"context"

	"github.com/vvka-141/pgrows/internal/cache"
	"github.com/vvka-141/pgrows/internal/logging"
	"github.com/vvka-141/pgrows/internal/retry"
	"github.com/vvka-141/pgrows/pkg/pgrows"
)

// Chain describes which layers wrap an operation. Only Connector is required.
type Chain[T any] struct {
	Connector pgrows.Connector
	Logger    pgrows.Logger

	// LogQueries logs the query text before each attempt.
	LogQueries bool

	// Transactional rolls back on failure before the connection is closed.
	// Failures of the operation are then reported as *pgrows.TransactionError.
	Transactional bool

	// SwallowCommitErrors logs commit failures instead of returning them.
	SwallowCommitErrors bool

	// Retry, when set, retries whole connection scopes.
	Retry *retry.Executor

	// Cache, when set, memoizes successful results by query.
	// Operations built with an empty query are never cached.
	Cache *cache.QueryCache[T]
}

// Build composes op as Cached(WithRetry(WithConnection(Transactional(LogQueries(op))))),
// skipping disabled layers. query names the operation for logging and caching.
func (c Chain[T]) Build(query string, op pgrows.Operation[T]) pgrows.Call[T] {
	if c.Connector == nil {
		panic("lifecycle: Chain requires a Connector")
	}
	logger := c.Logger
	if logger == nil {
		logger = logging.NewNullLogger()
	}

	if c.LogQueries {
		op = LogQueries(logger, query, op)
	}
	if c.Transactional {
		op = markRolledBack(Transactional(logger, op))
	}

	var scopeOpts []ScopeOption
	if c.SwallowCommitErrors {
		scopeOpts = append(scopeOpts, SwallowCommitErrors())
	}
	call := WithConnection(c.Connector, logger, op, scopeOpts...)

	if c.Retry != nil {
		call = WithRetry(c.Retry, call)
	}
	if c.Cache != nil && query != "" {
		call = Cached(c.Cache, logger, query, call)
	}
	return call
}

// Run builds op and invokes it once.
func (c Chain[T]) Run(ctx context.Context, query string, op pgrows.Operation[T]) (T, error) {
	return c.Build(query, op)(ctx)
}

// markRolledBack tags failures of a transactional op with pgrows.ErrTransaction.
func markRolledBack[T any](op pgrows.Operation[T]) pgrows.Operation[T] {
	return func(ctx context.Context, conn pgrows.Conn) (T, error) {
		result, err := op(ctx, conn)
		if err != nil {
			return result, &pgrows.TransactionError{Err: err}
		}
		return result, nil
	}
}
