package lifecycle

import (
	"context"

	"github.com/vvka-141/pgrows/pkg/pgrows"
)

// Transactional rolls back conn when op fails and returns op's error unchanged.
// A rollback failure is logged and never replaces the original error.
// Commit on success is left to the enclosing connection scope.
func Transactional[T any](logger pgrows.Logger, op pgrows.Operation[T]) pgrows.Operation[T] {
	return func(ctx context.Context, conn pgrows.Conn) (T, error) {
		result, err := op(ctx, conn)
		if err == nil {
			return result, nil
		}

		if rbErr := conn.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			logger.Error("Rollback failed: %v", rbErr)
		}
		logger.Error("Transaction failed, rolled back: %v", err)

		var zero T
		return zero, err
	}
}
