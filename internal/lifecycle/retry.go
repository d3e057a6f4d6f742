package lifecycle

import (
	"context"

	"github.com/vvka-141/pgrows/internal/retry"
	"github.com/vvka-141/pgrows/pkg/pgrows"
)

// WithRetry re-invokes call on transient failures as decided by executor.
// Wrap a WithConnection call to get a fresh connection per attempt.
func WithRetry[T any](executor *retry.Executor, call pgrows.Call[T]) pgrows.Call[T] {
	return func(ctx context.Context) (T, error) {
		return retry.Do(ctx, executor, call)
	}
}
