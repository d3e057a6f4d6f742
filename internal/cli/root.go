package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pgrows",
	Short: "Seed, stream and query the user_data table",
	Long: `pgrows loads user records from CSV into PostgreSQL and reads them back
row by row, in batches, or concurrently.

Every database call runs inside a connection scope with an implicit
transaction. Failed attempts are rolled back and retried on a fresh
connection; successful query results may be served from an in-process cache.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or parameters
  11 - Database connection failed
  13 - SQL execution, rollback or commit failed
  14 - Requested row not found
  15 - Malformed input data
  16 - Row stream terminated early`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	// -h is taken by --host, so help gets a long flag only.
	rootCmd.PersistentFlags().Bool("help", false, "Help for pgrows")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
	bindGlobalFlags(rootCmd)
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
