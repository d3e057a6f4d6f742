package lifecycle

import (
	"context"

	"github.com/vvka-141/pgrows/pkg/pgrows"
)

// LogQueries logs query before every invocation of op.
func LogQueries[T any](logger pgrows.Logger, query string, op pgrows.Operation[T]) pgrows.Operation[T] {
	return func(ctx context.Context, conn pgrows.Conn) (T, error) {
		logger.Info("Executing query: %s", query)
		return op(ctx, conn)
	}
}
