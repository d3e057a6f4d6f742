package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/vvka-141/pgrows/pkg/pgrows"
)

type scopeOptions struct {
	swallowCommitErrors bool
}

// ScopeOption configures WithConnection.
type ScopeOption func(*scopeOptions)

// SwallowCommitErrors makes a failed commit log at Error level and return the
// operation's result with a nil error.
func SwallowCommitErrors() ScopeOption {
	return func(o *scopeOptions) {
		o.swallowCommitErrors = true
	}
}

// WithConnection runs op on a connection acquired from connector.
//
// A failed acquisition is returned wrapped in pgrows.ErrConnectivity and op is
// not invoked. After op succeeds the pending transaction is committed; a commit
// failure is returned wrapped in pgrows.ErrCommitFailed together with op's
// result. Errors from op propagate unchanged. The connection is closed exactly
// once on every path.
func WithConnection[T any](connector pgrows.Connector, logger pgrows.Logger, op pgrows.Operation[T], opts ...ScopeOption) pgrows.Call[T] {
	var o scopeOptions
	for _, opt := range opts {
		opt(&o)
	}

	return func(ctx context.Context) (T, error) {
		var zero T

		conn, err := connector.Connect(ctx)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, pgrows.ErrConnectivity) {
				err = fmt.Errorf("%w: %w", pgrows.ErrConnectivity, err)
			}
			return zero, err
		}
		defer func() {
			if cerr := conn.Close(context.WithoutCancel(ctx)); cerr != nil {
				logger.Warn("Closing connection: %v", cerr)
			}
		}()

		result, err := op(ctx, conn)
		if err != nil {
			return zero, err
		}

		if err := conn.Commit(ctx); err != nil {
			if o.swallowCommitErrors {
				logger.Error("Commit failed: %v", err)
				return result, nil
			}
			return result, fmt.Errorf("%w: %w", pgrows.ErrCommitFailed, err)
		}
		return result, nil
	}
}
