package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTx embeds pgx.Tx so only the methods TxConn uses need implementing.
type fakeTx struct {
	pgx.Tx
	execs       []string
	commits     int
	rollbacks   int
	commitErr   error
	rollbackErr error
}

func (t *fakeTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	t.execs = append(t.execs, sql)
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (t *fakeTx) Commit(context.Context) error {
	t.commits++
	return t.commitErr
}

func (t *fakeTx) Rollback(context.Context) error {
	t.rollbacks++
	return t.rollbackErr
}

type fakeSession struct {
	begun    []*fakeTx
	beginErr error
}

func (s *fakeSession) Begin(context.Context) (pgx.Tx, error) {
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	tx := &fakeTx{}
	s.begun = append(s.begun, tx)
	return tx, nil
}

func newTestTxConn(s *fakeSession) (*TxConn, *int) {
	releases := 0
	return &TxConn{
		session: s,
		release: func(context.Context) error {
			releases++
			return nil
		},
	}, &releases
}

func TestTxConn_ImplicitTransaction(t *testing.T) {
	ctx := context.Background()
	session := &fakeSession{}
	conn, _ := newTestTxConn(session)

	_, err := conn.Exec(ctx, "UPDATE a")
	require.NoError(t, err)
	_, err = conn.Exec(ctx, "UPDATE b")
	require.NoError(t, err)

	require.Len(t, session.begun, 1, "statements share one transaction until commit")
	assert.Equal(t, []string{"UPDATE a", "UPDATE b"}, session.begun[0].execs)

	require.NoError(t, conn.Commit(ctx))
	assert.Equal(t, 1, session.begun[0].commits)

	_, err = conn.Exec(ctx, "UPDATE c")
	require.NoError(t, err)
	assert.Len(t, session.begun, 2, "a new transaction starts after commit")
}

func TestTxConn_CommitAndRollbackWithoutTransactionAreNoops(t *testing.T) {
	session := &fakeSession{}
	conn, _ := newTestTxConn(session)

	assert.NoError(t, conn.Commit(context.Background()))
	assert.NoError(t, conn.Rollback(context.Background()))
	assert.Empty(t, session.begun)
}

func TestTxConn_CloseRollsBackAndReleasesOnce(t *testing.T) {
	ctx := context.Background()
	session := &fakeSession{}
	conn, releases := newTestTxConn(session)

	_, err := conn.Exec(ctx, "INSERT")
	require.NoError(t, err)

	require.NoError(t, conn.Close(ctx))
	require.NoError(t, conn.Close(ctx))

	assert.Equal(t, 1, session.begun[0].rollbacks)
	assert.Equal(t, 0, session.begun[0].commits)
	assert.Equal(t, 1, *releases)
	assert.True(t, conn.IsClosed())

	_, err = conn.Exec(ctx, "INSERT")
	assert.ErrorIs(t, err, errConnClosed)
	assert.ErrorIs(t, conn.QueryRow(ctx, "SELECT 1").Scan(), errConnClosed)
}

func TestTxConn_RollbackIgnoresClosedTx(t *testing.T) {
	ctx := context.Background()
	session := &fakeSession{}
	conn, _ := newTestTxConn(session)

	_, err := conn.Exec(ctx, "INSERT")
	require.NoError(t, err)
	session.begun[0].rollbackErr = pgx.ErrTxClosed

	assert.NoError(t, conn.Rollback(ctx))
}

func TestTxConn_BeginFailure(t *testing.T) {
	boom := errors.New("boom")
	conn, _ := newTestTxConn(&fakeSession{beginErr: boom})

	_, err := conn.Exec(context.Background(), "INSERT")
	assert.ErrorIs(t, err, boom)

	_, err = conn.Query(context.Background(), "SELECT")
	assert.ErrorIs(t, err, boom)
}
