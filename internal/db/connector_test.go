package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/pgrows/internal/logging"
	"github.com/vvka-141/pgrows/pkg/pgrows"
)

func TestWrapConnectionError(t *testing.T) {
	cfg := &pgrows.ConnectionConfig{Host: "db.example.com", Port: 5432, Database: "alx_prodev", Username: "app"}

	tests := []struct {
		name         string
		errMsg       string
		wantContains string
	}{
		{"refused", "dial tcp 10.0.0.1:5432: connection refused", "connection refused by db.example.com:5432"},
		{"dns", "lookup db.example.com: no such host", `cannot resolve host "db.example.com"`},
		{"password", `password authentication failed for user "app"`, `authentication failed for user "app"`},
		{"missing database", `database "alx_prodev" does not exist`, "createdb alx_prodev"},
		{"timeout", "dial tcp: i/o timeout", "timed out"},
		{"tls", "tls: failed to verify certificate", "SSL/TLS"},
		{"too many", "sorry, too many connections already", "too many connections"},
		{"other", "weird failure", "cannot connect to db.example.com:5432"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := errors.New(tt.errMsg)
			err := wrapConnectionError(orig, cfg)

			assert.ErrorIs(t, err, pgrows.ErrConnectivity)
			assert.ErrorIs(t, err, orig)
			assert.Contains(t, err.Error(), tt.wantContains)
		})
	}
}

func TestWrapConnectionError_ContextErrorsPassThrough(t *testing.T) {
	cfg := &pgrows.ConnectionConfig{Host: "h", Port: 5432}
	assert.Equal(t, context.Canceled, wrapConnectionError(context.Canceled, cfg))
}

func TestNewConnector_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *pgrows.ConnectionConfig
		wantErr error
	}{
		{"aws without region", &pgrows.ConnectionConfig{Host: "h", Port: 5432, Username: "u", AuthMethod: pgrows.AuthMethodAWSIAM}, pgrows.ErrInvalidConfig},
		{"aws without user", &pgrows.ConnectionConfig{Host: "h", Port: 5432, AWSRegion: "us-east-1", AuthMethod: pgrows.AuthMethodAWSIAM}, pgrows.ErrInvalidConfig},
		{"google without instance", &pgrows.ConnectionConfig{Username: "u", AuthMethod: pgrows.AuthMethodGoogleIAM}, pgrows.ErrInvalidConfig},
		{"google without user", &pgrows.ConnectionConfig{GoogleInstance: "p:r:i", AuthMethod: pgrows.AuthMethodGoogleIAM}, pgrows.ErrInvalidConfig},
		{"unknown method", &pgrows.ConnectionConfig{AuthMethod: pgrows.AuthMethod(42)}, pgrows.ErrUnsupportedAuthMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConnector(tt.cfg, nil)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewConnector_Standard(t *testing.T) {
	cfg := &pgrows.ConnectionConfig{Host: "h", Port: 5432, Database: "d", Username: "u", Password: "secret"}

	c, err := NewConnector(cfg, nil)
	require.NoError(t, err)

	assert.NotContains(t, c.String(), "secret")
	assert.NoError(t, c.Close())
}

type stubTokenProvider struct {
	token     string
	expiresOn time.Time
	err       error
}

func (p stubTokenProvider) Token(context.Context) (string, time.Time, error) {
	return p.token, p.expiresOn, p.err
}

func (p stubTokenProvider) String() string { return "stub" }

func TestTokenConnector_Prepare(t *testing.T) {
	cfg := &pgrows.ConnectionConfig{Host: "h", Port: 5432, Database: "d", Username: "u"}

	t.Run("token becomes password", func(t *testing.T) {
		c := NewTokenConnector(cfg, stubTokenProvider{token: "tok", expiresOn: time.Now().Add(time.Hour)}, nil)
		cc := &pgx.ConnConfig{}

		require.NoError(t, c.prepare(context.Background(), cc))
		assert.Equal(t, "tok", cc.Password)
	})

	t.Run("short-lived token warns", func(t *testing.T) {
		rec := logging.NewRecordingLogger()
		c := NewTokenConnector(cfg, stubTokenProvider{token: "tok", expiresOn: time.Now().Add(time.Minute)}, rec)

		require.NoError(t, c.prepare(context.Background(), &pgx.ConnConfig{}))
		assert.Len(t, rec.Messages("WARN"), 1)
	})

	t.Run("provider failure is a connectivity error", func(t *testing.T) {
		c := NewTokenConnector(cfg, stubTokenProvider{err: errors.New("denied")}, nil)

		err := c.prepare(context.Background(), &pgx.ConnConfig{})
		assert.ErrorIs(t, err, pgrows.ErrConnectivity)
	})
}

func TestRDSTokenProvider_Validation(t *testing.T) {
	_, err := NewRDSTokenProvider("", 5432, "us-east-1", "u")
	assert.ErrorIs(t, err, pgrows.ErrInvalidConfig)

	p, err := NewRDSTokenProvider("mydb.rds.amazonaws.com", 5432, "us-east-1", "u")
	require.NoError(t, err)
	assert.Contains(t, p.String(), "mydb.rds.amazonaws.com:5432")
}
