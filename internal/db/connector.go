package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgrows/internal/logging"
	"github.com/vvka-141/pgrows/internal/retry"
	"github.com/vvka-141/pgrows/pkg/pgrows"
)

// Pool configuration used by Connector.Pool.
const (
	DefaultMinConns        = 1
	DefaultMaxConnIdleTime = 30 * time.Minute
)

// Connector opens pgx sessions for one ConnectionConfig.
// Cloud authentication methods hook into the parsed pgx config before every
// dial, so fresh tokens are used for each new connection.
type Connector struct {
	config   *pgrows.ConnectionConfig
	label    string
	prepare  func(ctx context.Context, cc *pgx.ConnConfig) error
	closeFn  func() error
	executor *retry.Executor
	logger   pgrows.Logger
}

// NewConnector builds the connector matching config.AuthMethod.
// A nil logger discards connector diagnostics.
func NewConnector(config *pgrows.ConnectionConfig, logger pgrows.Logger) (*Connector, error) {
	switch config.AuthMethod {
	case pgrows.AuthMethodStandard, pgrows.AuthMethodCertificate:
		return NewStandardConnector(config, logger), nil
	case pgrows.AuthMethodAWSIAM:
		provider, err := NewRDSTokenProvider(config.Host, config.Port, config.AWSRegion, config.Username)
		if err != nil {
			return nil, err
		}
		return NewTokenConnector(config, provider, logger), nil
	case pgrows.AuthMethodAzureEntraID:
		provider, err := NewEntraTokenProvider(config.AzureTenantID, config.AzureClientID, config.AzureClientSecret)
		if err != nil {
			return nil, err
		}
		return NewTokenConnector(config, provider, logger), nil
	case pgrows.AuthMethodGoogleIAM:
		return NewGoogleCloudSQLConnector(config, logger)
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, pgrows.ErrUnsupportedAuthMethod)
	}
}

// NewStandardConnector authenticates with the configured password or client certificate.
func NewStandardConnector(config *pgrows.ConnectionConfig, logger pgrows.Logger) *Connector {
	return newConnector(config, config.AuthMethod.String(), logger)
}

// NewTokenConnector uses a token from provider as the password of every new connection.
func NewTokenConnector(config *pgrows.ConnectionConfig, provider TokenProvider, logger pgrows.Logger) *Connector {
	c := newConnector(config, provider.String(), logger)
	c.prepare = func(ctx context.Context, cc *pgx.ConnConfig) error {
		token, expiresOn, err := provider.Token(ctx)
		if err != nil {
			return fmt.Errorf("%w: %s token: %w", pgrows.ErrConnectivity, provider, err)
		}
		if remaining := time.Until(expiresOn); remaining < tokenExpiryWarning {
			c.logger.Warn("%s token expires in %v", provider, remaining.Round(time.Second))
		}
		cc.Password = token
		return nil
	}
	return c
}

// NewGoogleCloudSQLConnector dials through the Cloud SQL Go connector with IAM
// database authentication. The dialer is created on first use and released by Close.
func NewGoogleCloudSQLConnector(config *pgrows.ConnectionConfig, logger pgrows.Logger) (*Connector, error) {
	if config.GoogleInstance == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires --google-instance (project:region:instance): %w", pgrows.ErrInvalidConfig)
	}
	if config.Username == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires a username (-U): %w", pgrows.ErrInvalidConfig)
	}

	var (
		mu     sync.Mutex
		dialer *cloudsqlconn.Dialer
	)
	instance := config.GoogleInstance

	c := newConnector(config, "Cloud SQL "+instance, logger)
	c.prepare = func(ctx context.Context, cc *pgx.ConnConfig) error {
		mu.Lock()
		defer mu.Unlock()
		if dialer == nil {
			d, err := cloudsqlconn.NewDialer(ctx, cloudsqlconn.WithIAMAuthN())
			if err != nil {
				return fmt.Errorf("%w: create Cloud SQL dialer: %w", pgrows.ErrConnectivity, err)
			}
			dialer = d
		}
		d := dialer
		cc.DialFunc = func(ctx context.Context, _, _ string) (net.Conn, error) {
			return d.Dial(ctx, instance)
		}
		// the dialer already provides TLS
		cc.TLSConfig = nil
		cc.Fallbacks = nil
		cc.Password = ""
		return nil
	}
	c.closeFn = func() error {
		mu.Lock()
		defer mu.Unlock()
		if dialer == nil {
			return nil
		}
		err := dialer.Close()
		dialer = nil
		return err
	}
	return c, nil
}

func newConnector(config *pgrows.ConnectionConfig, label string, logger pgrows.Logger) *Connector {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	strategy := retry.NewExponentialBackoff(pgrows.DefaultConnectRetryMaxAttempts,
		retry.WithInitialDelay(pgrows.DefaultConnectRetryInitialDelay),
		retry.WithMaxDelay(pgrows.DefaultConnectRetryMaxDelay),
	)
	executor := retry.NewExecutor(retry.NewPostgreSQLErrorClassifier(), strategy).
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			logger.Verbose("Connection attempt %d failed: %v. Retrying in %v...", attempt+1, err, delay)
		})
	return &Connector{
		config:   config,
		label:    label,
		executor: executor,
		logger:   logger,
	}
}

// String describes the target without credentials.
func (c *Connector) String() string {
	return fmt.Sprintf("%s [%s]", Redacted(c.config), c.label)
}

func (c *Connector) parseConfig() (*pgx.ConnConfig, error) {
	cc, err := pgx.ParseConfig(BuildConnectionString(c.config))
	if err != nil {
		return nil, fmt.Errorf("%w: parse connection config: %w", pgrows.ErrInvalidConfig, err)
	}
	cc.OnNotice = func(_ *pgconn.PgConn, n *pgconn.Notice) {
		c.logger.Verbose("%s: %s", n.Severity, n.Message)
	}
	return cc, nil
}

// Connect opens a dedicated session, retrying transient connection failures.
func (c *Connector) Connect(ctx context.Context) (pgrows.Conn, error) {
	conn, err := c.Dial(ctx)
	if err != nil {
		return nil, err
	}
	return NewTxConn(conn), nil
}

// Dial opens a raw autocommit connection. Statements that cannot run inside a
// transaction block, such as CREATE DATABASE, use it directly.
func (c *Connector) Dial(ctx context.Context) (*pgx.Conn, error) {
	conn, err := retry.Do(ctx, c.executor, func(ctx context.Context) (*pgx.Conn, error) {
		cc, err := c.parseConfig()
		if err != nil {
			return nil, err
		}
		if c.prepare != nil {
			if err := c.prepare(ctx, cc); err != nil {
				return nil, err
			}
		}
		conn, err := pgx.ConnectConfig(ctx, cc)
		if err != nil {
			return nil, wrapConnectionError(err, c.config)
		}
		return conn, nil
	})
	if err != nil {
		return nil, err
	}
	c.logger.Verbose("Connected to %s", c)
	return conn, nil
}

// ForDatabase returns a connector for another database on the same server,
// sharing authentication settings.
func (c *Connector) ForDatabase(name string) *Connector {
	cfg := *c.config
	cfg.Database = name
	clone := *c
	clone.config = &cfg
	clone.closeFn = nil
	return &clone
}

// Close releases resources held by cloud dialers. Open sessions are unaffected.
func (c *Connector) Close() error {
	if c.closeFn == nil {
		return nil
	}
	return c.closeFn()
}

// Pool creates a pgxpool sharing this connector's authentication hooks.
// maxConns <= 0 keeps the pgx default.
func (c *Connector) Pool(ctx context.Context, maxConns int32) (*PoolConnector, error) {
	cc, err := c.parseConfig()
	if err != nil {
		return nil, err
	}
	poolConfig, err := pgxpool.ParseConfig("")
	if err != nil {
		return nil, fmt.Errorf("%w: parse pool config: %w", pgrows.ErrInvalidConfig, err)
	}
	poolConfig.ConnConfig = cc
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
	if maxConns > 0 {
		poolConfig.MaxConns = maxConns
	}
	if c.prepare != nil {
		poolConfig.BeforeConnect = c.prepare
	}

	pool, err := retry.Do(ctx, c.executor, func(ctx context.Context) (*pgxpool.Pool, error) {
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, wrapConnectionError(err, c.config)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, wrapConnectionError(err, c.config)
		}
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return &PoolConnector{pool: pool, owner: c}, nil
}

// PoolConnector hands out pooled sessions. Closing a session returns it to the pool.
type PoolConnector struct {
	pool  *pgxpool.Pool
	owner *Connector
}

// Connect acquires a pooled connection.
func (p *PoolConnector) Connect(ctx context.Context) (pgrows.Conn, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, wrapConnectionError(err, p.owner.config)
	}
	return NewPooledTxConn(conn), nil
}

// Close closes the pool and the owning connector's dialer.
func (p *PoolConnector) Close() error {
	p.pool.Close()
	return p.owner.Close()
}

// wrapConnectionError tags err with ErrConnectivity and adds a hint for the
// most common failure causes.
func wrapConnectionError(err error, cfg *pgrows.ConnectionConfig) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	msg := strings.ToLower(err.Error())
	addr := net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port))

	var hint string
	switch {
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "actively refused"):
		hint = fmt.Sprintf("connection refused by %s (is PostgreSQL running? try: pg_isready -h %s -p %d)", addr, cfg.Host, cfg.Port)
	case strings.Contains(msg, "no such host"):
		hint = fmt.Sprintf("cannot resolve host %q", cfg.Host)
	case strings.Contains(msg, "password authentication failed"):
		hint = fmt.Sprintf("authentication failed for user %q (check $PGPASSWORD or the connection string)", cfg.Username)
	case strings.Contains(msg, "does not exist"):
		hint = fmt.Sprintf("database %q does not exist (create it with: createdb %s)", cfg.Database, cfg.Database)
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out"):
		hint = fmt.Sprintf("connection to %s timed out", addr)
	case strings.Contains(msg, "ssl") || strings.Contains(msg, "tls"):
		hint = "SSL/TLS negotiation failed (check --sslmode and certificate paths)"
	case strings.Contains(msg, "too many connections"):
		hint = fmt.Sprintf("server refused a new connection to %q: too many connections", cfg.Database)
	default:
		hint = "cannot connect to " + addr
	}
	return fmt.Errorf("%w: %s: %w", pgrows.ErrConnectivity, hint, err)
}

var (
	_ pgrows.Connector = (*Connector)(nil)
	_ pgrows.Connector = (*PoolConnector)(nil)
)
