package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vvka-141/pgrows/pkg/pgrows"
)

// Classifier names accepted by NewClassifier and the retry.classifier config key.
const (
	ClassifierDatabase = "database"
	ClassifierStrict   = "strict"
)

// NewClassifier returns the classifier registered under name.
// An empty name selects ClassifierDatabase.
func NewClassifier(name string) (pgrows.ErrorClassifier, error) {
	switch name {
	case "", ClassifierDatabase:
		return NewDatabaseErrorClassifier(), nil
	case ClassifierStrict:
		return NewPostgreSQLErrorClassifier(), nil
	default:
		return nil, fmt.Errorf("unknown retry classifier %q: %w", name, pgrows.ErrInvalidConfig)
	}
}

// DatabaseErrorClassifier treats every database-originated failure as retryable:
// PostgreSQL server errors of any SQLSTATE, connectivity failures and network errors.
// Errors that did not come from the database (validation, programming errors,
// context cancellation) are fatal.
type DatabaseErrorClassifier struct{}

// NewDatabaseErrorClassifier creates a new DatabaseErrorClassifier.
func NewDatabaseErrorClassifier() *DatabaseErrorClassifier {
	return &DatabaseErrorClassifier{}
}

// IsTransient reports whether err originated from the database layer.
// A failed commit is never transient: the transaction may have been applied.
func (c *DatabaseErrorClassifier) IsTransient(err error) bool {
	if err == nil || isCancellation(err) || isCommitFailure(err) {
		return false
	}
	if errors.Is(err, pgrows.ErrTransient) || errors.Is(err, pgrows.ErrConnectivity) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return true
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}

	return isNetworkError(err) || isConnectionMessage(err)
}

// PostgreSQL error codes for transient conditions
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgCodeSerializationFailure = "40001"
	pgCodeDeadlockDetected     = "40P01"
	pgCodeLockNotAvailable     = "55P03"
)

// PostgreSQLErrorClassifier retries only SQLSTATEs that denote transient
// server conditions, plus network and connection failures.
type PostgreSQLErrorClassifier struct{}

// NewPostgreSQLErrorClassifier creates a new PostgreSQL error classifier.
func NewPostgreSQLErrorClassifier() *PostgreSQLErrorClassifier {
	return &PostgreSQLErrorClassifier{}
}

// IsTransient determines if an error is temporary and retryable.
func (c *PostgreSQLErrorClassifier) IsTransient(err error) bool {
	if err == nil || isCancellation(err) || isCommitFailure(err) {
		return false
	}
	if errors.Is(err, pgrows.ErrTransient) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return isTransientCode(pgErr.Code)
	}

	return isNetworkError(err) || isConnectionMessage(err)
}

func isTransientCode(code string) bool {
	switch {
	case strings.HasPrefix(code, "08"): // Connection Exception
		return true
	case strings.HasPrefix(code, "53"): // Insufficient Resources
		return true
	case strings.HasPrefix(code, "57"): // Operator Intervention
		return true
	}

	switch code {
	case pgCodeSerializationFailure, pgCodeDeadlockDetected, pgCodeLockNotAvailable:
		return true
	}
	return false
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled)
}

// isCommitFailure reports a commit whose outcome is unknown. Re-running the
// operation could apply its writes twice.
func isCommitFailure(err error) bool {
	return errors.Is(err, pgrows.ErrCommitFailed)
}

func isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() || dnsErr.Timeout()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return true
		}
		for _, errno := range []syscall.Errno{syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ENETUNREACH, syscall.EHOSTUNREACH} {
			if errors.Is(opErr.Err, errno) {
				return true
			}
		}
	}

	return false
}

var transientPatterns = []string{
	"connection refused",
	"connection reset",
	"connection timeout",
	"connection failure",
	"no such host",
	"network is unreachable",
	"i/o timeout",
	"broken pipe",
	"too many connections",
	"server closed the connection",
	"unexpected eof",
	"conn closed",
}

func isConnectionMessage(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

var (
	_ pgrows.ErrorClassifier = (*DatabaseErrorClassifier)(nil)
	_ pgrows.ErrorClassifier = (*PostgreSQLErrorClassifier)(nil)
)
