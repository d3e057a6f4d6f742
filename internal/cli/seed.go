package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pgrows/internal/db/manager"
	"github.com/vvka-141/pgrows/internal/ingest"
	"github.com/vvka-141/pgrows/pkg/pgrows"
)

// maintenanceDatabase is the database used to run CREATE DATABASE.
const maintenanceDatabase = "postgres"

var seedFlags struct {
	skipCreateDB bool
}

var seedCmd = &cobra.Command{
	Use:   "seed <csv>",
	Short: "Create the user_data table and load users from a CSV file or URL",
	Long: `Seed creates the target database and the user_data table if needed, then
inserts every valid row of the CSV in a single transaction.

The CSV needs the columns name, email and age (any order). Rows with a
missing field, a non-integer age or an email that already exists are
skipped and reported on stderr. A summary is written to stdout as JSON.

The source may be a local path or an http(s) URL.`,
	Args:              requireArgs([]string{"csv"}, "user_data.csv -d alx_prodev"),
	ValidArgsFunction: completeCSVFiles,
	RunE:              runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().BoolVar(&seedFlags.skipCreateDB, "skip-create-db", false,
		"Do not create the target database when it is missing")
}

func runSeed(cmd *cobra.Command, args []string) (err error) {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer func() { s.Close(err) }()

	// Buffered so that a retried attempt reads the CSV from the start.
	data, err := readSource(s, args[0])
	if err != nil {
		return err
	}

	if !seedFlags.skipCreateDB {
		if err := ensureDatabase(s); err != nil {
			return err
		}
	}

	loader := ingest.NewLoader(s.logger)
	chain := newChain[ingest.Report](s, s.connector, "")
	report, err := chain.Run(s.ctx, "", func(ctx context.Context, conn pgrows.Conn) (ingest.Report, error) {
		return loader.Seed(ctx, conn, bytes.NewReader(data))
	})
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	s.metrics.IngestRows.WithLabelValues("inserted").Add(float64(report.Inserted))
	s.metrics.IngestRows.WithLabelValues("skipped").Add(float64(report.Skipped))
	s.logger.Info("Inserted %d user(s), skipped %d row(s)", report.Inserted, report.Skipped)
	return writeJSON(cmd.OutOrStdout(), report)
}

func readSource(s *session, location string) ([]byte, error) {
	r, err := ingest.Open(s.ctx, location, s.logger)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", location, err)
	}
	return data, nil
}

// ensureDatabase creates the session's target database through the
// maintenance database when it does not exist yet.
func ensureDatabase(s *session) error {
	if s.conn.Database == "" || s.conn.Database == maintenanceDatabase {
		return nil
	}

	conn, err := s.connector.ForDatabase(maintenanceDatabase).Dial(s.ctx)
	if err != nil {
		return err
	}
	defer conn.Close(context.WithoutCancel(s.ctx))

	created, err := manager.EnsureDatabase(s.ctx, conn, s.conn.Database)
	if err != nil {
		return err
	}
	if created {
		s.logger.Info("Database %s created", s.conn.Database)
	} else {
		s.logger.Verbose("Database %s already exists", s.conn.Database)
	}
	return nil
}
