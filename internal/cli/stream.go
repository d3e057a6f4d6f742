package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pgrows/internal/stream"
	"github.com/vvka-141/pgrows/internal/users"
	"github.com/vvka-141/pgrows/pkg/pgrows"
)

var streamFlags struct {
	limit int
}

var batchFlags struct {
	batchSize int
	minAge    int
}

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Stream user rows one at a time as JSON lines",
	Long: `Stream reads user_data row by row without loading the table into memory
and writes each row as a JSON line. Stopping early (--limit) closes the
query and releases the connection.`,
	Args: cobra.NoArgs,
	RunE: runStream,
}

var batchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "Stream users in batches and print those above an age",
	Long: `Batches reads user_data in fixed-size batches and writes every user
strictly older than --min-age as a JSON line.`,
	Args: cobra.NoArgs,
	RunE: runBatches,
}

var avgAgeCmd = &cobra.Command{
	Use:   "avg-age",
	Short: "Compute the average user age without loading all rows",
	Args:  cobra.NoArgs,
	RunE:  runAvgAge,
}

func init() {
	rootCmd.AddCommand(streamCmd, batchesCmd, avgAgeCmd)

	streamCmd.Flags().IntVar(&streamFlags.limit, "limit", 0,
		"Stop after this many rows (0 streams every row)")

	batchesCmd.Flags().IntVar(&batchFlags.batchSize, "batch-size", pgrows.DefaultBatchSize,
		"Rows per batch (overrides pgrows.yaml stream.batch_size)")
	batchesCmd.Flags().IntVar(&batchFlags.minAge, "min-age", pgrows.DefaultMinAge,
		"Print users strictly older than this age (overrides pgrows.yaml stream.min_age)")
}

func runStream(cmd *cobra.Command, args []string) (err error) {
	if streamFlags.limit < 0 {
		return fmt.Errorf("invalid argument %d for --limit: must be a non-negative integer", streamFlags.limit)
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer func() { s.Close(err) }()

	rows := stream.NewRowStreamer(users.StreamAll(s.connector), s.logger)
	out := cmd.OutOrStdout()
	return stream.Take(s.ctx, rows, streamFlags.limit, func(u pgrows.User) error {
		s.metrics.RowsStreamed.Inc()
		return writeJSON(out, u)
	})
}

func runBatches(cmd *cobra.Command, args []string) (err error) {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer func() { s.Close(err) }()

	batchSize := s.settings.BatchSize
	if cmd.Flags().Changed("batch-size") {
		batchSize = batchFlags.batchSize
	}
	minAge := s.settings.MinAge
	if cmd.Flags().Changed("min-age") {
		minAge = batchFlags.minAge
	}

	batches, err := stream.NewBatchStreamer(users.StreamAll(s.connector), batchSize, s.logger)
	if err != nil {
		return err
	}
	defer batches.Close()

	out := cmd.OutOrStdout()
	return stream.FilterBatches(s.ctx, batches, minAge, func(u pgrows.User) error {
		s.metrics.RowsStreamed.Inc()
		return writeJSON(out, u)
	})
}

func runAvgAge(cmd *cobra.Command, args []string) (err error) {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer func() { s.Close(err) }()

	avg, err := stream.AverageAge(s.ctx, stream.NewAgeStreamer(users.StreamAges(s.connector), s.logger))
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Average age of users: %.2f\n", avg)
	return nil
}
