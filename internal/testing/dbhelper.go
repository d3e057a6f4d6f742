package testing

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/pgrows/internal/db"
	"github.com/vvka-141/pgrows/internal/testinfra"
)

var (
	testContainerOnce sync.Once
	testContainerConn string
	testContainerErr  error

	redisOnce sync.Once
	redisURL  string
	redisErr  error
)

func getOrStartTestContainer() (string, error) {
	testContainerOnce.Do(func() {
		ctx := context.Background()
		container, err := testinfra.StartSimplePostgres(ctx)
		if err != nil {
			testContainerErr = err
			return
		}
		testContainerConn = container.ConnString
	})
	return testContainerConn, testContainerErr
}

// GetTestConnectionString returns the test database connection string.
// Priority: PGROWS_TEST_CONN env var > auto-started testcontainer > skip test.
func GetTestConnectionString(t *testing.T) string {
	t.Helper()

	if connString := os.Getenv("PGROWS_TEST_CONN"); connString != "" {
		return connString
	}

	connString, err := getOrStartTestContainer()
	if err != nil {
		t.Skipf("PGROWS_TEST_CONN not set and Docker unavailable: %v", err)
	}
	return connString
}

// RequireRedis returns the URL of a test Redis server.
// Priority: PGROWS_TEST_REDIS env var > auto-started testcontainer > skip test.
func RequireRedis(t *testing.T) string {
	t.Helper()

	SkipIfShort(t)
	if url := os.Getenv("PGROWS_TEST_REDIS"); url != "" {
		return url
	}

	redisOnce.Do(func() {
		container, err := testinfra.StartRedis(context.Background())
		if err != nil {
			redisErr = err
			return
		}
		redisURL = container.URL
	})
	if redisErr != nil {
		t.Skipf("PGROWS_TEST_REDIS not set and Docker unavailable: %v", redisErr)
	}
	return redisURL
}

// SkipIfShort skips the test if running in short mode (-short flag).
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireDatabase combines SkipIfShort and GetTestConnectionString.
func RequireDatabase(t *testing.T) string {
	t.Helper()

	SkipIfShort(t)
	return GetTestConnectionString(t)
}

// NewTestConnector creates a fresh database on the test server and returns a
// connector for it. The database is dropped when the test completes.
func NewTestConnector(t *testing.T) *db.Connector {
	t.Helper()

	connString := RequireDatabase(t)
	cfg, err := db.ParseConnectionString(connString)
	if err != nil {
		t.Fatalf("Failed to parse connection string: %v", err)
	}

	admin, err := db.NewConnector(cfg, nil)
	if err != nil {
		t.Fatalf("Failed to create connector: %v", err)
	}

	dbName := "pgrows_test_" + strings.ReplaceAll(uuid.NewString()[:8], "-", "")
	ctx := context.Background()

	conn, err := admin.Dial(ctx)
	if err != nil {
		t.Fatalf("Failed to connect for test DB creation: %v", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{dbName}.Sanitize()); err != nil {
		t.Fatalf("Failed to create test database %s: %v", dbName, err)
	}

	t.Cleanup(func() {
		dropTestDB(t, admin, dbName)
	})

	return admin.ForDatabase(dbName)
}

// dropTestDB terminates remaining sessions and drops dbName.
func dropTestDB(t *testing.T, admin *db.Connector, dbName string) {
	t.Helper()

	ctx := context.Background()
	conn, err := admin.Dial(ctx)
	if err != nil {
		t.Logf("Warning: Failed to connect for cleanup: %v", err)
		return
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, `
		SELECT pg_terminate_backend(pid)
		FROM pg_stat_activity
		WHERE datname = $1 AND pid <> pg_backend_pid()
	`, dbName)
	if err != nil {
		t.Logf("Warning: Failed to terminate connections to %s: %v", dbName, err)
	}

	if _, err := conn.Exec(ctx, "DROP DATABASE IF EXISTS "+pgx.Identifier{dbName}.Sanitize()); err != nil {
		t.Logf("Warning: Failed to drop database %s: %v", dbName, err)
	}
}
