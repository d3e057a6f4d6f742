package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// requireArgs returns a positional-args validator that prints usage and an
// example when the count is wrong. The error text keeps cobra's "accepts "
// prefix so it maps to the usage exit code.
func requireArgs(names []string, example string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) == len(names) {
			return nil
		}
		if len(args) < len(names) {
			return fmt.Errorf(`accepts %d arg(s), received %d: missing <%s>

Usage: %s

Example:
  %s %s`, len(names), len(args), names[len(args)], cmd.UseLine(), cmd.CommandPath(), example)
		}
		return fmt.Errorf("accepts %d arg(s), received %d", len(names), len(args))
	}
}
