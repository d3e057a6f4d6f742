package manager

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const queryDatabaseExists = "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)"

// Session is the subset of an autocommit connection the manager needs.
// *pgx.Conn satisfies it.
type Session interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Exists reports whether a database named dbName exists.
func Exists(ctx context.Context, s Session, dbName string) (bool, error) {
	var exists bool
	if err := s.QueryRow(ctx, queryDatabaseExists, dbName).Scan(&exists); err != nil {
		return false, fmt.Errorf("check database %q: %w", dbName, err)
	}
	return exists, nil
}

// Create creates dbName. s must not be inside a transaction block.
func Create(ctx context.Context, s Session, dbName string) error {
	query := "CREATE DATABASE " + pgx.Identifier{dbName}.Sanitize()
	if _, err := s.Exec(ctx, query); err != nil {
		return fmt.Errorf("create database %q: %w", dbName, err)
	}
	return nil
}

// EnsureDatabase creates dbName when it does not exist yet and reports whether it did.
func EnsureDatabase(ctx context.Context, s Session, dbName string) (bool, error) {
	exists, err := Exists(ctx, s, dbName)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := Create(ctx, s, dbName); err != nil {
		return false, err
	}
	return true, nil
}

var _ Session = (*pgx.Conn)(nil)
