package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/barsim/config"
	"github.com/rustyeddy/barsim/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "barsim",
	Short: "A deterministic bar-by-bar backtesting engine",
	Long: `Barsim replays historical OHLCV bars through a trading strategy one bar
at a time. Orders fill at the next bar's open (or the bar's close),
trades are matched oldest first and equity is sampled once per bar.

It provides tools for:
  - Backtesting bundled strategies over CSV, Parquet or TimescaleDB bars
  - Parameter sweeps run in parallel over one shared series
  - Trade and equity journals in CSV or SQLite
  - Replay scripts that reproduce a run's fills on a charting platform`,
	SilenceUsage: true,
}

var (
	cfgFile   string
	logLevel  string
	logFormat string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")
}

// loadConfig reads --config, or the defaults when it is not set.
func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(cfgFile)
}

// newLogger builds the logger from the config with flag overrides.
func newLogger(cfg *config.Config) *slog.Logger {
	level, format := cfg.Log.Level, cfg.Log.Format
	if logLevel != "" {
		level = logLevel
	}
	if logFormat != "" {
		format = logFormat
	}
	return logging.New(level, format, os.Stderr)
}
