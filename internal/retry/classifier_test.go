package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/pgrows/pkg/pgrows"
)

func TestDatabaseErrorClassifier_IsTransient(t *testing.T) {
	classifier := NewDatabaseErrorClassifier()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"syntax error is still a database error", &pgconn.PgError{Code: "42601"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"connection failure", &pgconn.PgError{Code: "08006"}, true},
		{"wrapped pg error", fmt.Errorf("query: %w", &pgconn.PgError{Code: "40001"}), true},
		{"connectivity sentinel", fmt.Errorf("open: %w", pgrows.ErrConnectivity), true},
		{"transient marker", fmt.Errorf("%w: lock busy", pgrows.ErrTransient), true},
		{"connection refused text", errors.New("dial tcp: connection refused"), true},
		{"econnreset", &net.OpError{Op: "read", Err: syscall.ECONNRESET}, true},
		{"validation error", fmt.Errorf("row 3: %w", pgrows.ErrDataValidation), false},
		{"plain error", errors.New("nil pointer"), false},
		{"cancellation", context.Canceled, false},
		{"failed commit", fmt.Errorf("%w: %w", pgrows.ErrCommitFailed, &pgconn.PgError{Code: "08006"}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifier.IsTransient(tt.err))
		})
	}
}

func TestPostgreSQLErrorClassifier_IsTransient(t *testing.T) {
	classifier := NewPostgreSQLErrorClassifier()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection exception", &pgconn.PgError{Code: "08000"}, true},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"too many connections", &pgconn.PgError{Code: "53300"}, true},
		{"lock not available", &pgconn.PgError{Code: "55P03"}, true},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, true},
		{"syntax error", &pgconn.PgError{Code: "42601"}, false},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"generic error", errors.New("some unrelated error"), false},
		{"failed commit", fmt.Errorf("%w: %w", pgrows.ErrCommitFailed, &pgconn.PgError{Code: "40001"}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifier.IsTransient(tt.err))
		})
	}
}

func TestNewClassifier(t *testing.T) {
	c, err := NewClassifier("")
	require.NoError(t, err)
	assert.IsType(t, &DatabaseErrorClassifier{}, c)

	c, err = NewClassifier(ClassifierStrict)
	require.NoError(t, err)
	assert.IsType(t, &PostgreSQLErrorClassifier{}, c)

	_, err = NewClassifier("bogus")
	assert.ErrorIs(t, err, pgrows.ErrInvalidConfig)
}
