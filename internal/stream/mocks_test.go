package stream

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vvka-141/pgrows/pkg/pgrows"
)

// fakeRows serves a fixed result set and optionally fails after failAfter rows.
type fakeRows struct {
	fields    []string
	data      [][]any
	pos       int
	failAfter int
	failErr   error
	err       error
	closed    bool
	served    int
}

func userRows(users ...pgrows.User) *fakeRows {
	r := &fakeRows{fields: []string{"user_id", "name", "email", "age"}, failAfter: -1}
	for _, u := range users {
		r.data = append(r.data, []any{u.UserID, u.Name, u.Email, u.Age})
	}
	return r
}

func ageRows(ages ...int) *fakeRows {
	r := &fakeRows{fields: []string{"age"}, failAfter: -1}
	for _, a := range ages {
		r.data = append(r.data, []any{a})
	}
	return r
}

func (r *fakeRows) Close() { r.closed = true }

func (r *fakeRows) Err() error { return r.err }

func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.NewCommandTag("SELECT") }

func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription {
	fds := make([]pgconn.FieldDescription, len(r.fields))
	for i, name := range r.fields {
		fds[i] = pgconn.FieldDescription{Name: name}
	}
	return fds
}

func (r *fakeRows) Next() bool {
	if r.closed || r.err != nil {
		return false
	}
	if r.failAfter >= 0 && r.served == r.failAfter {
		r.err = r.failErr
		return false
	}
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	r.served++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.pos-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: %d targets for %d columns", len(dest), len(row))
	}
	for i, d := range dest {
		switch d := d.(type) {
		case *string:
			*d = row[i].(string)
		case *int:
			*d = row[i].(int)
		default:
			return fmt.Errorf("scan: unsupported target %T", d)
		}
	}
	return nil
}

func (r *fakeRows) Values() ([]any, error) { return r.data[r.pos-1], nil }

func (r *fakeRows) RawValues() [][]byte { return nil }

func (r *fakeRows) Conn() *pgx.Conn { return nil }

// fakeSource hands out rows once and counts releases.
type fakeSource struct {
	rows     *fakeRows
	err      error
	opens    int
	releases int
	onOpen   func()
}

func (s *fakeSource) open(context.Context) (pgx.Rows, func(), error) {
	s.opens++
	if s.onOpen != nil {
		s.onOpen()
	}
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.rows, func() { s.releases++ }, nil
}

func makeUsers(n int) []pgrows.User {
	users := make([]pgrows.User, n)
	for i := range users {
		users[i] = pgrows.User{
			UserID: fmt.Sprintf("id-%d", i+1),
			Name:   fmt.Sprintf("r%d", i+1),
			Email:  fmt.Sprintf("r%d@example.com", i+1),
			Age:    20 + i,
		}
	}
	return users
}

var errConnReset = errors.New("connection reset by peer")
