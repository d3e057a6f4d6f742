package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/pgrows/internal/config"
	"github.com/vvka-141/pgrows/pkg/pgrows"
)

func TestResolveConnection_Precedence(t *testing.T) {
	project := &config.ProjectConfig{
		Connection: config.ConnectionConfig{Host: "yaml-host", Port: 7000, Username: "yaml-user", Database: "yaml-db"},
	}

	tests := []struct {
		name     string
		flags    *ConnFlags
		env      *EnvVars
		project  *config.ProjectConfig
		wantHost string
		wantPort int
		wantUser string
		wantDB   string
	}{
		{
			name:     "defaults",
			flags:    &ConnFlags{Username: "me"},
			wantHost: "localhost",
			wantPort: 5432,
			wantUser: "me",
			wantDB:   pgrows.DefaultDatabase,
		},
		{
			name:     "yaml over defaults",
			project:  project,
			wantHost: "yaml-host",
			wantPort: 7000,
			wantUser: "yaml-user",
			wantDB:   "yaml-db",
		},
		{
			name:     "env over yaml",
			env:      &EnvVars{PGHOST: "env-host", PGPORT: "6000", PGUSER: "env-user", PGDATABASE: "env-db"},
			project:  project,
			wantHost: "env-host",
			wantPort: 6000,
			wantUser: "env-user",
			wantDB:   "env-db",
		},
		{
			name:     "flags over env",
			flags:    &ConnFlags{Host: "flag-host", Port: 5000, Username: "flag-user", Database: "flag-db"},
			env:      &EnvVars{PGHOST: "env-host", PGPORT: "6000", PGUSER: "env-user", PGDATABASE: "env-db"},
			project:  project,
			wantHost: "flag-host",
			wantPort: 5000,
			wantUser: "flag-user",
			wantDB:   "flag-db",
		},
		{
			name:     "DATABASE_URL when no granular flags",
			flags:    &ConnFlags{Database: "override"},
			env:      &EnvVars{DATABASE_URL: "postgresql://url-user@url-host:4000/url-db", PGHOST: "ignored"},
			wantHost: "url-host",
			wantPort: 4000,
			wantUser: "url-user",
			wantDB:   "override",
		},
		{
			name:     "connection flag over DATABASE_URL",
			flags:    &ConnFlags{Connection: "postgresql://c@conn-host:3000/conn-db"},
			env:      &EnvVars{DATABASE_URL: "postgresql://url-user@url-host:4000/url-db"},
			wantHost: "conn-host",
			wantPort: 3000,
			wantUser: "c",
			wantDB:   "conn-db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ResolveConnection(tt.flags, tt.env, tt.project)
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, cfg.Host)
			assert.Equal(t, tt.wantPort, cfg.Port)
			assert.Equal(t, tt.wantUser, cfg.Username)
			assert.Equal(t, tt.wantDB, cfg.Database)
		})
	}
}

func TestResolveConnection_PasswordFromEnvironment(t *testing.T) {
	cfg, err := ResolveConnection(&ConnFlags{Connection: "postgresql://u@h/d"}, &EnvVars{PGPASSWORD: "pw"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "pw", cfg.Password)

	cfg, err = ResolveConnection(&ConnFlags{Connection: "postgresql://u:inline@h/d"}, &EnvVars{PGPASSWORD: "pw"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "inline", cfg.Password)
}

func TestResolveConnection_Errors(t *testing.T) {
	tests := []struct {
		name    string
		flags   *ConnFlags
		env     *EnvVars
		project *config.ProjectConfig
		wantErr error
	}{
		{
			name:    "connection string with granular flags",
			flags:   &ConnFlags{Connection: "postgresql://h/d", Host: "other"},
			wantErr: pgrows.ErrInvalidConfig,
		},
		{
			name:    "invalid PGPORT",
			env:     &EnvVars{PGPORT: "five"},
			wantErr: pgrows.ErrInvalidConfig,
		},
		{
			name:    "invalid connection string",
			flags:   &ConnFlags{Connection: "nonsense"},
			wantErr: pgrows.ErrInvalidConfig,
		},
		{
			name:    "two cloud providers",
			flags:   &ConnFlags{AWS: true, Google: true},
			wantErr: pgrows.ErrInvalidConfig,
		},
		{
			name:    "unknown auth method",
			project: &config.ProjectConfig{Connection: config.ConnectionConfig{AuthMethod: "kerberos"}},
			wantErr: pgrows.ErrUnsupportedAuthMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveConnection(tt.flags, tt.env, tt.project)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestResolveConnection_CloudAuth(t *testing.T) {
	t.Run("aws region from environment", func(t *testing.T) {
		cfg, err := ResolveConnection(&ConnFlags{AWS: true, Username: "u"}, &EnvVars{AWS_REGION: "eu-west-1"}, nil)
		require.NoError(t, err)
		assert.Equal(t, pgrows.AuthMethodAWSIAM, cfg.AuthMethod)
		assert.Equal(t, "eu-west-1", cfg.AWSRegion)
	})

	t.Run("azure implied by tenant variable", func(t *testing.T) {
		cfg, err := ResolveConnection(&ConnFlags{Username: "u"}, &EnvVars{AZURE_TENANT_ID: "t", AZURE_CLIENT_SECRET: "s"}, nil)
		require.NoError(t, err)
		assert.Equal(t, pgrows.AuthMethodAzureEntraID, cfg.AuthMethod)
		assert.Equal(t, "t", cfg.AzureTenantID)
		assert.Equal(t, "s", cfg.AzureClientSecret)
	})

	t.Run("google from yaml", func(t *testing.T) {
		project := &config.ProjectConfig{Connection: config.ConnectionConfig{AuthMethod: "google", GoogleInstance: "p:r:i"}}
		cfg, err := ResolveConnection(&ConnFlags{Username: "u"}, nil, project)
		require.NoError(t, err)
		assert.Equal(t, pgrows.AuthMethodGoogleIAM, cfg.AuthMethod)
		assert.Equal(t, "p:r:i", cfg.GoogleInstance)
	})

	t.Run("client certificate", func(t *testing.T) {
		cfg, err := ResolveConnection(&ConnFlags{Username: "u", SSLCert: "c.pem", SSLKey: "k.pem"}, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, pgrows.AuthMethodCertificate, cfg.AuthMethod)
	})
}
