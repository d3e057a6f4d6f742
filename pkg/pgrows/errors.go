package pgrows

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	users, err := fetchUsers(ctx)
//	if errors.Is(err, pgrows.ErrConnectivity) {
//	    // database unreachable, nothing was executed
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectivity indicates a connection could not be acquired.
	// The wrapped operation was not invoked.
	ErrConnectivity = errors.New("connection failed")

	// ErrTransient marks an error as retryable regardless of its origin.
	ErrTransient = errors.New("transient database error")

	// ErrTransaction indicates an operation failed and its transaction was rolled back.
	ErrTransaction = errors.New("transaction failed")

	// ErrCommitFailed indicates the operation succeeded but its transaction could not be committed.
	ErrCommitFailed = errors.New("commit failed")

	// ErrDataValidation indicates malformed input data (CSV headers, fields, ages).
	ErrDataValidation = errors.New("data validation failed")

	// ErrStream indicates a row stream terminated early because of an underlying failure.
	ErrStream = errors.New("stream terminated")

	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")
)

// TransactionError reports an operation whose transaction was rolled back.
// It matches ErrTransaction and everything the operation's error matches, and
// reads exactly like the operation's error.
type TransactionError struct {
	Err error
}

func (e *TransactionError) Error() string {
	return e.Err.Error()
}

func (e *TransactionError) Unwrap() []error {
	return []error{ErrTransaction, e.Err}
}

var usageErrorPatterns = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"accepts ",
	"requires at least",
	"required flag",
	"invalid argument",
	"flag needs an argument",
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrConnectivity):
		return ExitConnectionError
	case errors.Is(err, ErrDataValidation):
		return ExitDataValidation
	case errors.Is(err, ErrStream):
		return ExitStreamError
	case errors.Is(err, ErrNotFound):
		return ExitNotFound
	case errors.Is(err, ErrTransaction), errors.Is(err, ErrCommitFailed):
		return ExitExecutionFailed
	}

	errStr := err.Error()
	for _, pattern := range usageErrorPatterns {
		if strings.HasPrefix(errStr, pattern) {
			return ExitUsageError
		}
	}

	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
