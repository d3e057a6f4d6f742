package stream

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/pgrows/pkg/pgrows"
)

// Source opens the rows to stream. release is called once after the rows are
// closed; it may be nil.
type Source func(ctx context.Context) (rows pgx.Rows, release func(), err error)

// QuerySource opens a dedicated connection from connector for every stream and
// runs sql on it. The connection is closed, with its read-only transaction
// rolled back, when the stream is released.
func QuerySource(connector pgrows.Connector, sql string, args ...any) Source {
	return func(ctx context.Context) (pgx.Rows, func(), error) {
		conn, err := connector.Connect(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", pgrows.ErrConnectivity, err)
		}
		rows, err := conn.Query(ctx, sql, args...)
		if err != nil {
			_ = conn.Close(context.WithoutCancel(ctx))
			return nil, nil, err
		}
		release := func() {
			_ = conn.Close(context.WithoutCancel(ctx))
		}
		return rows, release, nil
	}
}
