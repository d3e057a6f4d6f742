package db

import (
	"fmt"
	"os"
	"strconv"

	"github.com/vvka-141/pgrows/internal/config"
	"github.com/vvka-141/pgrows/pkg/pgrows"
)

// ConnFlags represents connection parameters from CLI flags.
// These follow PostgreSQL standard flag conventions (-h, -p, -U, -d).
//
// Password is NOT a flag. Use $PGPASSWORD, a connection string, or a cloud
// token provider instead.
type ConnFlags struct {
	Connection string

	Host     string
	Port     int
	Username string
	Database string
	SSLMode  string

	SSLCert     string
	SSLKey      string
	SSLRootCert string

	AWS       bool
	AWSRegion string

	Azure         bool
	AzureTenantID string
	AzureClientID string

	Google         bool
	GoogleInstance string
}

// hasGranular reports whether any host-level granular flag was provided.
// Database is excluded because it may override the database of a connection string.
func (f *ConnFlags) hasGranular() bool {
	return f.Host != "" || f.Port != 0 || f.Username != "" || f.SSLMode != ""
}

// EnvVars represents PostgreSQL and cloud provider environment variables.
// See: https://www.postgresql.org/docs/current/libpq-envars.html
type EnvVars struct {
	PGHOST       string
	PGPORT       string
	PGUSER       string
	PGPASSWORD   string
	PGDATABASE   string
	PGSSLMODE    string
	DATABASE_URL string

	AWS_REGION string

	AZURE_TENANT_ID     string
	AZURE_CLIENT_ID     string
	AZURE_CLIENT_SECRET string
}

// LoadFromEnvironment reads EnvVars from the process environment.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		PGHOST:              os.Getenv("PGHOST"),
		PGPORT:              os.Getenv("PGPORT"),
		PGUSER:              os.Getenv("PGUSER"),
		PGPASSWORD:          os.Getenv("PGPASSWORD"),
		PGDATABASE:          os.Getenv("PGDATABASE"),
		PGSSLMODE:           os.Getenv("PGSSLMODE"),
		DATABASE_URL:        os.Getenv("DATABASE_URL"),
		AWS_REGION:          os.Getenv("AWS_REGION"),
		AZURE_TENANT_ID:     os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:     os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET: os.Getenv("AZURE_CLIENT_SECRET"),
	}
}

// ResolveConnection resolves connection parameters with PostgreSQL-standard precedence:
//
//  1. --connection flag
//  2. DATABASE_URL, when no granular flag is given
//  3. granular flags > PG* environment variables > pgrows.yaml > defaults
//
// The -d flag overrides the database of a connection string. Cloud
// authentication is selected by flag or by pgrows.yaml auth_method.
func ResolveConnection(flags *ConnFlags, env *EnvVars, project *config.ProjectConfig) (*pgrows.ConnectionConfig, error) {
	if flags == nil {
		flags = &ConnFlags{}
	}
	if env == nil {
		env = &EnvVars{}
	}

	if flags.Connection != "" && flags.hasGranular() {
		return nil, fmt.Errorf("cannot specify both --connection and granular flags (-h, -p, -U, --sslmode): %w", pgrows.ErrInvalidConfig)
	}

	var pc config.ConnectionConfig
	if project != nil {
		pc = project.Connection
	}

	var cfg *pgrows.ConnectionConfig
	var err error
	switch {
	case flags.Connection != "":
		cfg, err = resolveFromConnectionString(flags.Connection, env)
	case !flags.hasGranular() && env.DATABASE_URL != "":
		cfg, err = resolveFromConnectionString(env.DATABASE_URL, env)
	default:
		cfg, err = resolveFromGranular(flags, env, pc)
	}
	if err != nil {
		return nil, err
	}

	if flags.Database != "" {
		cfg.Database = flags.Database
	}
	cfg.SSLCert = firstNonEmpty(flags.SSLCert, cfg.SSLCert, pc.SSLCert)
	cfg.SSLKey = firstNonEmpty(flags.SSLKey, cfg.SSLKey, pc.SSLKey)
	cfg.SSLRootCert = firstNonEmpty(flags.SSLRootCert, cfg.SSLRootCert, pc.SSLRootCert)
	if cfg.SSLCert != "" && cfg.SSLKey != "" {
		cfg.AuthMethod = pgrows.AuthMethodCertificate
	}

	if err := applyCloudAuth(cfg, flags, env, pc); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolveFromConnectionString(connStr string, env *EnvVars) (*pgrows.ConnectionConfig, error) {
	cfg, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %v: %w", err, pgrows.ErrInvalidConfig)
	}
	// libpq treats PG* variables as fallbacks for parameters missing from the string
	if cfg.Password == "" {
		cfg.Password = env.PGPASSWORD
	}
	return cfg, nil
}

func resolveFromGranular(flags *ConnFlags, env *EnvVars, pc config.ConnectionConfig) (*pgrows.ConnectionConfig, error) {
	cfg := newDefaultConfig()

	cfg.Host = firstNonEmpty(flags.Host, env.PGHOST, pc.Host, "localhost")

	switch {
	case flags.Port != 0:
		cfg.Port = flags.Port
	case env.PGPORT != "":
		port, err := strconv.Atoi(env.PGPORT)
		if err != nil {
			return nil, fmt.Errorf("invalid $PGPORT value %q: must be an integer: %w", env.PGPORT, pgrows.ErrInvalidConfig)
		}
		cfg.Port = port
	case pc.Port != 0:
		cfg.Port = pc.Port
	}

	cfg.Username = firstNonEmpty(flags.Username, env.PGUSER, pc.Username, os.Getenv("USER"), os.Getenv("USERNAME"))
	cfg.Password = env.PGPASSWORD
	cfg.Database = firstNonEmpty(env.PGDATABASE, pc.Database, pgrows.DefaultDatabase)
	cfg.SSLMode = firstNonEmpty(flags.SSLMode, env.PGSSLMODE, pc.SSLMode, "prefer")

	return cfg, nil
}

// applyCloudAuth switches cfg to a cloud authentication method.
// Flags win over pgrows.yaml; Azure also activates when AZURE_* variables are set.
func applyCloudAuth(cfg *pgrows.ConnectionConfig, flags *ConnFlags, env *EnvVars, pc config.ConnectionConfig) error {
	selected := 0
	for _, on := range []bool{flags.AWS, flags.Azure, flags.Google} {
		if on {
			selected++
		}
	}
	if selected > 1 {
		return fmt.Errorf("only one of --aws, --azure, --google may be set: %w", pgrows.ErrInvalidConfig)
	}

	method := pc.AuthMethod
	switch {
	case flags.AWS:
		method = "aws"
	case flags.Azure:
		method = "azure"
	case flags.Google:
		method = "google"
	case method == "" && (flags.AzureTenantID != "" || flags.AzureClientID != "" || env.AZURE_TENANT_ID != "" || env.AZURE_CLIENT_ID != ""):
		method = "azure"
	}

	switch method {
	case "", "standard":
	case "aws":
		cfg.AuthMethod = pgrows.AuthMethodAWSIAM
		cfg.AWSRegion = firstNonEmpty(flags.AWSRegion, env.AWS_REGION, pc.AWSRegion)
	case "azure":
		cfg.AuthMethod = pgrows.AuthMethodAzureEntraID
		cfg.AzureTenantID = firstNonEmpty(flags.AzureTenantID, env.AZURE_TENANT_ID, pc.AzureTenantID)
		cfg.AzureClientID = firstNonEmpty(flags.AzureClientID, env.AZURE_CLIENT_ID, pc.AzureClientID)
		cfg.AzureClientSecret = env.AZURE_CLIENT_SECRET
	case "google":
		cfg.AuthMethod = pgrows.AuthMethodGoogleIAM
		cfg.GoogleInstance = firstNonEmpty(flags.GoogleInstance, pc.GoogleInstance)
	default:
		return fmt.Errorf("auth_method %q: %w", method, pgrows.ErrUnsupportedAuthMethod)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
