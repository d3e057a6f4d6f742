// Package ingest loads users from CSV into the user_data table.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vvka-141/pgrows/internal/users"
	"github.com/vvka-141/pgrows/pkg/pgrows"
)

// RequiredColumns must appear in the CSV header, in any order.
var RequiredColumns = []string{"name", "email", "age"}

// Report summarizes one ingestion.
type Report struct {
	Inserted    int      `json:"inserted"`
	Skipped     int      `json:"skipped"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

// Loader inserts CSV rows through a Querier, normally a connection scope's
// connection so that all inserts share one transaction.
type Loader struct {
	logger pgrows.Logger
}

// NewLoader creates a Loader that reports skipped rows to logger.
func NewLoader(logger pgrows.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads r and inserts every valid row. A missing required header fails the
// whole load with pgrows.ErrDataValidation before anything is inserted. Rows
// with a missing field, a non-integer age, or an email that is already stored
// are skipped with a diagnostic. Database errors abort the load.
func (l *Loader) Load(ctx context.Context, q pgrows.Querier, r io.Reader) (Report, error) {
	var report Report

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return report, fmt.Errorf("CSV is empty: %w", pgrows.ErrDataValidation)
	}
	if err != nil {
		return report, fmt.Errorf("read CSV header: %v: %w", err, pgrows.ErrDataValidation)
	}
	columns, err := indexColumns(header)
	if err != nil {
		return report, err
	}

	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			l.skip(&report, "line %d: %v, skipping", line, err)
			continue
		}

		user, problem := parseRecord(record, columns)
		if problem != "" {
			l.skip(&report, "line %d: %s, skipping", line, problem)
			continue
		}

		exists, err := users.EmailExists(ctx, q, user.Email)
		if err != nil {
			return report, err
		}
		if exists {
			l.skip(&report, "line %d: email %s already exists, skipping", line, user.Email)
			continue
		}

		if _, err := users.Insert(ctx, q, user); err != nil {
			return report, err
		}
		report.Inserted++
	}

	return report, nil
}

// Seed creates the user table when missing and loads r into it.
func (l *Loader) Seed(ctx context.Context, q pgrows.Querier, r io.Reader) (Report, error) {
	if err := users.CreateTable(ctx, q); err != nil {
		return Report{}, err
	}
	return l.Load(ctx, q, r)
}

func (l *Loader) skip(report *Report, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	report.Skipped++
	report.Diagnostics = append(report.Diagnostics, msg)
	l.logger.Warn("%s", msg)
}

func indexColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}

	var missing []string
	for _, required := range RequiredColumns {
		if _, ok := columns[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("CSV header is missing column(s) %s: %w", strings.Join(missing, ", "), pgrows.ErrDataValidation)
	}
	return columns, nil
}

// parseRecord returns the user in record, or a description of why it is invalid.
func parseRecord(record []string, columns map[string]int) (pgrows.User, string) {
	field := func(name string) string {
		i := columns[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	name, email, ageText := field("name"), field("email"), field("age")
	var missing []string
	for _, f := range []struct{ name, value string }{{"name", name}, {"email", email}, {"age", ageText}} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return pgrows.User{}, "missing " + strings.Join(missing, ", ")
	}

	age, err := strconv.Atoi(ageText)
	if err != nil {
		return pgrows.User{}, fmt.Sprintf("invalid age value %q", ageText)
	}
	if age < 0 {
		return pgrows.User{}, fmt.Sprintf("negative age %d", age)
	}
	return pgrows.User{Name: name, Email: email, Age: age}, ""
}
