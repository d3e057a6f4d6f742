package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/vvka-141/pgrows/pkg/pgrows"
)

var queryFlags struct {
	repeat int
	args   []string
}

var queryCmd = &cobra.Command{
	Use:   "query <sql>",
	Short: "Run a read query with retries and result caching",
	Long: `Query runs sql inside a transactional connection scope, retrying
transient failures on a fresh connection, and prints each result row as a
JSON object.

Placeholders ($1, $2, ...) are bound from --arg values in order. PostgreSQL
converts each text value to the parameter's type.

Results are cached by query text and arguments. With --repeat the query is
issued several times; only the first execution reaches the database.`,
	Example: `  pgrows query "SELECT * FROM user_data WHERE age > $1" --arg 40`,
	Args: requireArgs([]string{"sql"}, `"SELECT * FROM user_data WHERE age > 40"`),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().IntVar(&queryFlags.repeat, "repeat", 1, "Issue the query this many times")
	queryCmd.Flags().StringArrayVar(&queryFlags.args, "arg", nil, "Value bound to the next placeholder (repeatable)")
}

// queryKey identifies a query and its arguments for logging and caching.
func queryKey(sql string, args []string) string {
	if len(args) == 0 {
		return sql
	}
	encoded, _ := json.Marshal(args)
	return sql + " " + string(encoded)
}

// queryRows collects every result row keyed by column name.
func queryRows(sql string, args []string) pgrows.Operation[[]map[string]any] {
	params := make([]any, len(args))
	for i, a := range args {
		params[i] = a
	}
	return func(ctx context.Context, conn pgrows.Conn) ([]map[string]any, error) {
		rows, err := conn.Query(ctx, sql, params...)
		if err != nil {
			return nil, err
		}
		return pgx.CollectRows(rows, pgx.RowToMap)
	}
}

func runQuery(cmd *cobra.Command, args []string) (err error) {
	if queryFlags.repeat < 1 {
		return fmt.Errorf("invalid argument %d for --repeat: must be at least 1", queryFlags.repeat)
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer func() { s.Close(err) }()

	sql := args[0]
	call := newChain[[]map[string]any](s, s.connector, "query").Build(queryKey(sql, queryFlags.args), queryRows(sql, queryFlags.args))

	var rows []map[string]any
	for i := 0; i < queryFlags.repeat; i++ {
		if rows, err = call(s.ctx); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	for _, row := range rows {
		if err := writeJSON(out, row); err != nil {
			return err
		}
	}
	s.logger.Verbose("%d row(s)", len(rows))
	return nil
}
