// Package commands implements the frontier CLI.
package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/frontier/internal/config"
	"github.com/aristath/frontier/pkg/logger"
)

var (
	// Global flags
	profilePath string
	logLevel    string
	pretty      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "frontier",
	Short: "Pareto-frontier portfolio optimizer",
	Long: `Frontier computes the Pareto-optimal risk/return trade-offs reachable by
reallocating a portfolio's capital across the same assets.

Examples:
  frontier optimize --holding AAPL=10 --holding MSFT=5
  frontier optimize --holding AAPL=10 --holding MSFT=5 --idx 3
  frontier serve --port 8080`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "YAML analysis profile (overrides FRONTIER_PROFILE)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", true, "human-readable log output")
}

// loadConfig reads the environment and applies global flag overrides.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, logger.New(logger.Config{Level: "info", Pretty: pretty}), err
	}

	if profilePath != "" {
		if err := cfg.ApplyProfile(profilePath); err != nil {
			return nil, logger.New(logger.Config{Level: cfg.LogLevel, Pretty: pretty}), err
		}
		if err := cfg.Validate(); err != nil {
			return nil, logger.New(logger.Config{Level: cfg.LogLevel, Pretty: pretty}), err
		}
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: pretty || cfg.LogPretty,
	})
	logger.SetGlobalLogger(log)
	return cfg, log, nil
}
