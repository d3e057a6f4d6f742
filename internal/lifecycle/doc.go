// Package lifecycle wraps database operations with connection, transaction,
// retry, cache and query-logging layers.
//
// Each layer is a plain higher-order function over pgrows.Operation or
// pgrows.Call, so callers compose them explicitly. Chain builds the standard
// order:
//
//	Cached(WithRetry(WithConnection(Transactional(LogQueries(op)))))
//
// Retry sits outside the connection scope: every attempt acquires a fresh
// connection and runs in its own transaction. The cache is outermost, so a hit
// never touches the database.
package lifecycle
