package pgrows

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Command completed successfully
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration or parameters
	ExitConnectionError = 11 // Failed to connect to database
	ExitExecutionFailed = 13 // SQL execution, rollback or commit failed
	ExitNotFound        = 14 // Requested row does not exist
	ExitDataValidation  = 15 // Malformed input data
	ExitStreamError     = 16 // Row stream terminated early
)

const (
	// DefaultRetries is the number of additional attempts after the first one.
	DefaultRetries = 3

	// DefaultRetryDelay is the fixed wait between attempts.
	DefaultRetryDelay = 2 * time.Second

	// DefaultConnectRetryInitialDelay is the initial backoff used by connectors
	// while establishing a connection.
	DefaultConnectRetryInitialDelay = 100 * time.Millisecond

	// DefaultConnectRetryMaxDelay caps the connector backoff.
	DefaultConnectRetryMaxDelay = 5 * time.Second

	// DefaultConnectRetryMaxAttempts is the number of connector retries.
	DefaultConnectRetryMaxAttempts = 3

	// DefaultCacheMaxEntries bounds the query cache.
	DefaultCacheMaxEntries = 256

	// DefaultCacheTTL is how long a cached query result stays valid.
	DefaultCacheTTL = 10 * time.Minute

	// DefaultBatchSize is the number of rows per streamed batch.
	DefaultBatchSize = 50

	// DefaultMinAge is the age threshold used by batch processing (strictly greater).
	DefaultMinAge = 25

	// DefaultOlderThan is the age threshold used by the concurrent fetch.
	DefaultOlderThan = 40

	// DefaultDatabase is the database used when none is configured.
	DefaultDatabase = "alx_prodev"

	// UserTable is the table holding streamed user rows.
	UserTable = "user_data"
)
