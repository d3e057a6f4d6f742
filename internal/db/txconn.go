package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgrows/pkg/pgrows"
)

// beginner is satisfied by *pgx.Conn and *pgxpool.Conn.
type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxConn implements pgrows.Conn on top of a single pgx session.
// The first statement after construction, Commit or Rollback opens a
// transaction; Commit and Rollback end it.
//
// Not safe for concurrent use.
type TxConn struct {
	session beginner
	tx      pgx.Tx
	release func(ctx context.Context) error
	lost    func() bool
	closed  bool
}

// NewTxConn takes ownership of conn. Close closes it.
func NewTxConn(conn *pgx.Conn) *TxConn {
	return &TxConn{
		session: conn,
		release: conn.Close,
		lost:    conn.IsClosed,
	}
}

// NewPooledTxConn takes ownership of a pooled connection. Close returns it to the pool.
func NewPooledTxConn(conn *pgxpool.Conn) *TxConn {
	return &TxConn{
		session: conn,
		release: func(context.Context) error {
			conn.Release()
			return nil
		},
		lost: func() bool { return conn.Conn().IsClosed() },
	}
}

var errConnClosed = errors.New("connection is closed")

func (c *TxConn) begin(ctx context.Context) (pgx.Tx, error) {
	if c.closed {
		return nil, errConnClosed
	}
	if c.tx == nil {
		tx, err := c.session.Begin(ctx)
		if err != nil {
			return nil, fmt.Errorf("begin transaction: %w", err)
		}
		c.tx = tx
	}
	return c.tx, nil
}

// Exec executes a statement inside the current transaction.
func (c *TxConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	tx, err := c.begin(ctx)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	return tx.Exec(ctx, sql, args...)
}

// Query executes a query inside the current transaction.
func (c *TxConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	tx, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx.Query(ctx, sql, args...)
}

// QueryRow executes a single-row query inside the current transaction.
func (c *TxConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	tx, err := c.begin(ctx)
	if err != nil {
		return errRow{err: err}
	}
	return tx.QueryRow(ctx, sql, args...)
}

// Commit commits the open transaction, if any.
func (c *TxConn) Commit(ctx context.Context) error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	return tx.Commit(ctx)
}

// Rollback rolls back the open transaction, if any.
func (c *TxConn) Rollback(ctx context.Context) error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

// Close rolls back any open transaction and releases the session exactly once.
func (c *TxConn) Close(ctx context.Context) error {
	if c.closed {
		return nil
	}
	rbErr := c.Rollback(ctx)
	c.closed = true
	return errors.Join(rbErr, c.release(ctx))
}

// IsClosed reports whether the session was closed or lost.
func (c *TxConn) IsClosed() bool {
	return c.closed || (c.lost != nil && c.lost())
}

type errRow struct {
	err error
}

func (r errRow) Scan(...any) error {
	return r.err
}

var _ pgrows.Conn = (*TxConn)(nil)
