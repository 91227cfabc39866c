// Package main provides the venue_scout CLI: official-URL resolution, crawling and opening
// hours extraction for named venues and events.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/venue-scout/internal/config"
	"github.com/jonathan/venue-scout/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "venue_scout",
	Short: "Find official websites and opening times for venues and events",
	Long: "venue_scout resolves the official website of a venue or event, crawls it for opening hours " +
		"and event dates, and writes a structured, schema-validated result.",
	SilenceUsage: true,
}

var (
	configPath string
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (YAML, JSON or TOML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose console logging")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadRuntime loads configuration and builds the logger every subcommand shares.
func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		cfg.Verbose = true
	}
	logger, err := logging.New(cfg.Verbose)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, nil
}
