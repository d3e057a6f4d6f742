package lifecycle

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vvka-141/pgrows/pkg/pgrows"
)

// fakeConn records the lifecycle calls made against it.
type fakeConn struct {
	commits     int
	rollbacks   int
	closes      int
	commitErr   error
	rollbackErr error
	closed      bool
}

func (c *fakeConn) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	if c.closed {
		return pgconn.CommandTag{}, errors.New("conn closed")
	}
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (c *fakeConn) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (c *fakeConn) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

func (c *fakeConn) Commit(context.Context) error {
	c.commits++
	return c.commitErr
}

func (c *fakeConn) Rollback(context.Context) error {
	c.rollbacks++
	return c.rollbackErr
}

func (c *fakeConn) Close(context.Context) error {
	c.closes++
	c.closed = true
	return nil
}

func (c *fakeConn) IsClosed() bool {
	return c.closed
}

// fakeConnector hands out a new fakeConn per Connect call.
type fakeConnector struct {
	mu         sync.Mutex
	conns      []*fakeConn
	connectErr error
	commitErr  error
}

func (f *fakeConnector) Connect(context.Context) (pgrows.Conn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return nil, f.connectErr
	}
	c := &fakeConn{commitErr: f.commitErr}
	f.conns = append(f.conns, c)
	return c, nil
}

func (f *fakeConnector) connects() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.conns)
}
