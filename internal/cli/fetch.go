package cli

import (
	"github.com/spf13/cobra"

	"github.com/vvka-141/pgrows/internal/fetch"
	"github.com/vvka-141/pgrows/pkg/pgrows"
)

var fetchFlags struct {
	olderThan int
}

// fetchOutput is the JSON document printed by the fetch command.
type fetchOutput struct {
	All          []pgrows.User `json:"all"`
	AllError     string        `json:"all_error,omitempty"`
	OlderThan    []pgrows.User `json:"older_than"`
	OlderThanErr string        `json:"older_than_error,omitempty"`
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch all users and older users concurrently",
	Long: `Fetch runs two queries at the same time, each on its own pooled
connection: every user, and users strictly older than --older-than.
Both results are printed even when one of the queries fails.`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().IntVar(&fetchFlags.olderThan, "older-than", pgrows.DefaultOlderThan,
		"Age threshold for the second query (strictly greater)")
}

func runFetch(cmd *cobra.Command, args []string) (err error) {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer func() { s.Close(err) }()

	pool, err := s.connector.Pool(s.ctx, 2)
	if err != nil {
		return err
	}
	defer pool.Close()

	result := fetch.Concurrently(s.ctx, newChain[[]pgrows.User](s, pool, "fetch"), fetchFlags.olderThan)

	out := fetchOutput{All: result.All.Value, OlderThan: result.OlderThan.Value}
	if result.All.Err != nil {
		out.AllError = result.All.Err.Error()
	}
	if result.OlderThan.Err != nil {
		out.OlderThanErr = result.OlderThan.Err.Error()
	}
	if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
		return err
	}
	return result.Err()
}
