// Package users holds the SQL for the user_data table.
//
// Functions take a pgrows.Querier so they compose with the lifecycle
// wrappers: they run inside whatever transaction the enclosing connection
// scope has open and never commit on their own.
package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/pgrows/internal/stream"
	"github.com/vvka-141/pgrows/pkg/pgrows"
)

const (
	CreateTableSQL = `CREATE TABLE IF NOT EXISTS user_data (
	user_id VARCHAR(36) PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	email VARCHAR(255) NOT NULL,
	age INT NOT NULL
)`

	SelectAllSQL       = "SELECT user_id, name, email, age FROM user_data"
	SelectAgesSQL      = "SELECT age FROM user_data"
	SelectOlderThanSQL = "SELECT user_id, name, email, age FROM user_data WHERE age > $1"

	selectByIDSQL  = "SELECT user_id, name, email, age FROM user_data WHERE user_id = $1"
	emailExistsSQL = "SELECT EXISTS(SELECT 1 FROM user_data WHERE email = $1)"
	insertSQL      = "INSERT INTO user_data (user_id, name, email, age) VALUES ($1, $2, $3, $4)"
	updateEmailSQL = "UPDATE user_data SET email = $1 WHERE user_id = $2"
	countSQL       = "SELECT count(*) FROM user_data"
)

// CreateTable creates user_data when missing.
func CreateTable(ctx context.Context, q pgrows.Querier) error {
	if _, err := q.Exec(ctx, CreateTableSQL); err != nil {
		return fmt.Errorf("create table %s: %w", pgrows.UserTable, err)
	}
	return nil
}

// Insert adds u. An empty UserID is replaced by a new random UUID.
func Insert(ctx context.Context, q pgrows.Querier, u pgrows.User) (pgrows.User, error) {
	if u.UserID == "" {
		u.UserID = uuid.NewString()
	}
	if _, err := q.Exec(ctx, insertSQL, u.UserID, u.Name, u.Email, u.Age); err != nil {
		return u, fmt.Errorf("insert user %s: %w", u.Email, err)
	}
	return u, nil
}

// EmailExists reports whether a user with email is already stored.
func EmailExists(ctx context.Context, q pgrows.Querier, email string) (bool, error) {
	var exists bool
	if err := q.QueryRow(ctx, emailExistsSQL, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("look up email %s: %w", email, err)
	}
	return exists, nil
}

// GetByID returns the user with id, or an error wrapping pgrows.ErrNotFound.
func GetByID(ctx context.Context, q pgrows.Querier, id string) (pgrows.User, error) {
	if err := validateID(id); err != nil {
		return pgrows.User{}, err
	}
	rows, err := q.Query(ctx, selectByIDSQL, id)
	if err != nil {
		return pgrows.User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	u, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[pgrows.User])
	if errors.Is(err, pgx.ErrNoRows) {
		return pgrows.User{}, fmt.Errorf("user %s: %w", id, pgrows.ErrNotFound)
	}
	if err != nil {
		return pgrows.User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

// UpdateEmail sets the email of user id and returns the number of updated rows.
func UpdateEmail(ctx context.Context, q pgrows.Querier, id, email string) (int64, error) {
	if err := validateID(id); err != nil {
		return 0, err
	}
	tag, err := q.Exec(ctx, updateEmailSQL, email, id)
	if err != nil {
		return 0, fmt.Errorf("update email of user %s: %w", id, err)
	}
	return tag.RowsAffected(), nil
}

// FetchAll returns every user.
func FetchAll(ctx context.Context, q pgrows.Querier) ([]pgrows.User, error) {
	return collect(ctx, q, SelectAllSQL)
}

// FetchOlderThan returns users whose age is strictly greater than age.
func FetchOlderThan(ctx context.Context, q pgrows.Querier, age int) ([]pgrows.User, error) {
	return collect(ctx, q, SelectOlderThanSQL, age)
}

// Count returns the number of stored users.
func Count(ctx context.Context, q pgrows.Querier) (int64, error) {
	var n int64
	if err := q.QueryRow(ctx, countSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func collect(ctx context.Context, q pgrows.Querier, sql string, args ...any) ([]pgrows.User, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	users, err := pgx.CollectRows(rows, pgx.RowToStructByName[pgrows.User])
	if err != nil {
		return nil, fmt.Errorf("read users: %w", err)
	}
	return users, nil
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("user id %q is not a UUID: %w", id, pgrows.ErrDataValidation)
	}
	return nil
}

// StreamAll returns a stream source over every user on a dedicated connection.
func StreamAll(connector pgrows.Connector) stream.Source {
	return stream.QuerySource(connector, SelectAllSQL)
}

// StreamAges returns a stream source over the age column.
func StreamAges(connector pgrows.Connector) stream.Source {
	return stream.QuerySource(connector, SelectAgesSQL)
}
