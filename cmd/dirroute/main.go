package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dirroute/dirroute/internal/config"
	"github.com/dirroute/dirroute/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dirroute",
		Short: "File-based route resolution for Go services",
		Long: `dirroute maps a directory tree's naming conventions onto HTTP and
WebSocket route registrations, each carrying a deterministic, layered
middleware chain.

Directory naming conventions:

  users           static segment
  [id]            dynamic parameter
  [[version]]     optional parameter (expands into both variants)
  [...path]       catch-all parameter, must be last
  (admin)         group, organizes files without touching the URL`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		routesCmd(),
		checkCmd(),
		exportCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		if e, ok := err.(*errors.Error); ok {
			fmt.Fprintln(os.Stderr, e.Format())
		} else {
			fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		}
		os.Exit(1)
	}
}

// loadConfig reads dirroute.yaml, applying --root and --prefix overrides.
func loadConfig(dir, root, prefix string) (*config.Config, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	if root != "" {
		cfg.Root = root
	}
	if prefix != "" {
		cfg.Prefix = prefix
	}
	return cfg, nil
}

// setupLogger installs a text slog handler at the configured level.
func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}
