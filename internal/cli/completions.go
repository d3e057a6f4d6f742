package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/vvka-141/pgrows/internal/retry"
)

// sslModes contains valid PostgreSQL SSL modes for shell completion.
var sslModes = []string{"disable", "allow", "prefer", "require", "verify-ca", "verify-full"}

// classifiers contains the retry classifier names for shell completion.
var classifiers = []string{retry.ClassifierDatabase, retry.ClassifierStrict}

func completeFrom(values []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var matches []string
		for _, v := range values {
			if strings.HasPrefix(v, toComplete) {
				matches = append(matches, v)
			}
		}
		return matches, cobra.ShellCompDirectiveNoFileComp
	}
}

// completeCSVFiles restricts file completion to CSV files.
func completeCSVFiles(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return []string{"csv"}, cobra.ShellCompDirectiveFilterFileExt
}

// completeDirectories provides shell completion for directory paths.
func completeDirectories(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return nil, cobra.ShellCompDirectiveFilterDirs
}
