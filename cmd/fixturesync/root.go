package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vmunix/fixturesync/internal/config"
)

var version = "dev"

var (
	serverURL  string
	configPath string
	jsonOutput bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "fixturesync",
	Short: "Bulk-import fixtures into a team calendar",
	Long: `fixturesync - bulk-import fixtures into a team calendar

Scrape a fixtures page into CSV, then drive a browser through the
calendar to create one event per row. A run survives page reloads:
progress is stored and picked up again on the next load.

Run 'fixturesyncd' to keep a browser session open behind an HTTP/NATS API.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8585", "Daemon URL")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: discovered)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Debug logging")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("fixturesync {{.Version}}\n")
}

// loadConfig loads the --config file, else the discovered one, else defaults.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		found, err := config.Discover()
		if err != nil {
			_ = config.LoadDotenv("")
			return config.Default(), nil
		}
		path = found
	}
	if err := config.LoadDotenv(path); err != nil {
		return nil, err
	}
	return config.Load(path)
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := cfg.LogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
