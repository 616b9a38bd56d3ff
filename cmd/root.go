// Package cmd is the corpsite-api command line: the HTTP server plus the
// maintenance commands operators run against the same stores.
package cmd

import (
	"os"

	"github.com/corpsite/corpsite-api/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	logLevel string
)

// rootCmd runs the API server when invoked without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "corpsite-api",
	Short: "Corporate site CMS and investor-relations API",
	Long: `corpsite-api serves the public corporate website content (CMS pages,
investor documents, contact form, download proxy) and the CMS endpoints
used by administrators and the investor-relations team.

Run without arguments to start the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		lvl := logLevel
		if lvl == "" {
			lvl = os.Getenv("LOG_LEVEL")
		}
		logger.Init(lvl)
		logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug|info|warn|error (default $LOG_LEVEL or info)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(userCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
