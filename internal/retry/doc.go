// Package retry re-runs operations that fail with transient database errors.
//
// An Executor combines an ErrorClassifier, which decides whether a failure is
// worth retrying, with a BackoffStrategy, which decides how long to wait and
// how many times to try again.
//
// # Example Usage
//
//	executor := retry.NewExecutor(
//	    retry.NewDatabaseErrorClassifier(),
//	    retry.NewFixedBackoff(3, time.Second),
//	)
//
//	users, err := retry.Do(ctx, executor, fetchUsers)
//
// # Error Classification
//
// DatabaseErrorClassifier retries every database-originated failure.
// PostgreSQLErrorClassifier retries only SQLSTATEs that denote transient
// server conditions (connection exceptions, serialization failures,
// insufficient resources, operator intervention) and network errors.
//
// # Backoff Strategies
//
// FixedBackoff waits the same delay before each retry. ExponentialBackoff
// grows the delay geometrically with jitter and is used by connectors.
package retry
