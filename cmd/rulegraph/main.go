// Package main implements the rulegraph CLI: a thin wrapper around
// internal/rulegraph for checking fixture files from the command line.
package main

import (
	"fmt"
	"os"
	"time"

	"rulegraph/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose    bool
	timeout    time.Duration
	configPath string

	logger *zap.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "rulegraph",
	Short: "Compile and inspect rule graphs",
	Long: `rulegraph compiles declared rules and queries into a static,
monomorphic dependency graph and reports any construction diagnostics.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		cfg = loaded

		zapCfg := zap.NewProductionConfig()
		if level, err := zapcore.ParseLevel(cfg.Logging.Level); err == nil {
			zapCfg.Level = zap.NewAtomicLevelAt(level)
		}
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Compile timeout")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "rulegraph.yaml", "Path to config file")

	rootCmd.AddCommand(checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
