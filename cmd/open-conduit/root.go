package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/open-conduit/open-conduit/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:           "open-conduit",
	Short:         "Open-Conduit moves records between SaaS providers through a uniform adapter contract.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		structured := commandUsesStructuredLogging(cmd)
		setCommandExecutionContext(commandExecutionContext{
			CommandPath:       cmd.CommandPath(),
			UsesStructuredLog: structured,
		})
		if structured {
			if _, err := logging.BootstrapFromEnv(logging.BootstrapOptions{Command: cmd.CommandPath()}); err != nil {
				// Invalid logging env must not take the command down; fall
				// back to defaults and say why.
				logger := logging.NewLogger(logging.DefaultConfig(), os.Stderr, cmd.CommandPath())
				slog.SetDefault(logger)
				logger.Warn("invalid logging configuration, using defaults", "err", err)
			}
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(
		markStructuredLogging(serveCmd),
		markStructuredLogging(syncCmd),
		markStructuredLogging(migrateCmd),
		healthCmd,
		adaptersCmd,
		versionCmd,
	)
}
