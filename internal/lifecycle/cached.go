package lifecycle

import (
	"context"

	"github.com/vvka-141/pgrows/internal/cache"
	"github.com/vvka-141/pgrows/pkg/pgrows"
)

// Cached returns the result cached under query, or invokes call and caches a
// successful result. Failures are never cached.
func Cached[T any](c *cache.QueryCache[T], logger pgrows.Logger, query string, call pgrows.Call[T]) pgrows.Call[T] {
	return func(ctx context.Context) (T, error) {
		result, hit, err := c.GetOrLoad(ctx, query, func(ctx context.Context) (T, error) {
			logger.Verbose("Executing query and caching result: %s", query)
			return call(ctx)
		})
		if hit {
			logger.Verbose("Using cached result for query: %s", query)
		}
		return result, err
	}
}

// CachedQuery memoizes fn by its query argument.
func CachedQuery[T any](c *cache.QueryCache[T], logger pgrows.Logger, fn func(ctx context.Context, query string) (T, error)) func(ctx context.Context, query string) (T, error) {
	return func(ctx context.Context, query string) (T, error) {
		return Cached(c, logger, query, func(ctx context.Context) (T, error) {
			return fn(ctx, query)
		})(ctx)
	}
}
