package ingest

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vvka-141/pgrows/pkg/pgrows"
)

// memoryTable emulates user_data for the statements the loader issues.
type memoryTable struct {
	rows      []pgrows.User
	created   bool
	insertErr error
}

func (m *memoryTable) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	switch {
	case strings.HasPrefix(sql, "CREATE TABLE"):
		m.created = true
		return pgconn.NewCommandTag("CREATE TABLE"), nil
	case strings.HasPrefix(sql, "INSERT"):
		if m.insertErr != nil {
			return pgconn.CommandTag{}, m.insertErr
		}
		m.rows = append(m.rows, pgrows.User{
			UserID: args[0].(string),
			Name:   args[1].(string),
			Email:  args[2].(string),
			Age:    args[3].(int),
		})
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	return pgconn.CommandTag{}, errors.New("unexpected statement: " + sql)
}

func (m *memoryTable) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (m *memoryTable) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	email := args[0].(string)
	for _, u := range m.rows {
		if u.Email == email {
			return existsRow(true)
		}
	}
	return existsRow(false)
}

type existsRow bool

func (r existsRow) Scan(dest ...any) error {
	*dest[0].(*bool) = bool(r)
	return nil
}
