package db

import (
	"context"
	"time"
)

// TokenProvider supplies short-lived passwords for cloud IAM authentication.
type TokenProvider interface {
	// Token returns a token usable as the PostgreSQL password and its expiry.
	Token(ctx context.Context) (token string, expiresOn time.Time, err error)

	// String describes the provider for log output. It must not contain secrets.
	String() string
}

// tokenExpiryWarning is the remaining lifetime below which a fresh token is reported.
const tokenExpiryWarning = 5 * time.Minute

// AzurePostgreSQLScope is the Entra ID scope for Azure Database for PostgreSQL.
const AzurePostgreSQLScope = "https://ossrdbms-aad.database.windows.net/.default"

// rdsTokenLifetime is fixed by AWS.
const rdsTokenLifetime = 15 * time.Minute
