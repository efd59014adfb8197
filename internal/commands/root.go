package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/txengine/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
// Given a file argument it behaves like "process".
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "txengine [file]",
		Short:   "Apply client transactions and report final account balances",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		Args:    cobra.MaximumNArgs(1),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runProcess(cmd, args[0])
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config file (default ./txengine.yaml if present)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error")
	addProcessFlags(rootCmd)

	rootCmd.AddCommand(newProcessCommand())
	rootCmd.AddCommand(newInitCommand())

	return rootCmd
}
