package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"lumeer-engine/internal/config"
	"lumeer-engine/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "lumeer-engine",
	Short: "Read-model engine of a Lumeer workspace",
	Long: `lumeer-engine keeps a local copy of one Lumeer project in sync with the Remote Store
and serves permission-filtered view data, view settings and table editing sessions over HTTP.

Examples:
  # Create the view settings tables
  lumeer-engine migrate

  # Load the workspace and start serving
  lumeer-engine serve --port 9090`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func newLogger(cfg config.Config) zerolog.Logger {
	return logger.New().ForEnvironment(cfg.Environment).WithLevel(cfg.LogLevel).Make()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
