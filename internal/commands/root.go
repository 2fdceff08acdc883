// Package commands implements the budgetctl command line.
package commands

import (
	"github.com/spf13/cobra"

	"budgetify/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "budgetctl",
		Short:   "Inspect expense transcripts and manage Yandex.Disk logins",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newParseCommand())
	rootCmd.AddCommand(newNormalizeCommand())
	rootCmd.AddCommand(newTokensCommand())
	rootCmd.AddCommand(newAuthCommand())
	rootCmd.AddCommand(newExpensesCommand())

	return rootCmd
}
