// Package cli provides the command-line interface for the recruiting assistant.
package cli

import (
	"fmt"

	"recruit-assistant/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	logLevel string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "recruit-assistant",
	Short: "Trooper recruiting chat assistant",
	Long: `Serves the recruiting chat widget: answers questions through the hosted
assistant, caches repeated and paraphrased questions, and records which
topics applicants ask about.

Running without a subcommand starts the web server.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger with default level to load config
		bootLogger, err := config.InitLogger("info")
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		cfg = config.Load(bootLogger)

		level := cfg.LogLevel
		if logLevel != "" {
			level = logLevel
		}
		// Re-initialize logger with configured level
		logger, err = config.InitLogger(level)
		if err != nil {
			return fmt.Errorf("re-initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		config.Cleanup()
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyticsCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
