// Package main is the leadgen command line interface.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"leadgen-engine/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "leadgen",
	Short: "Lead generation pipeline",
	Long: `leadgen turns a prospect query like "Find CTOs at SaaS startups in Berlin"
into a fetched, enriched, scored and exported lead list.`,
	SilenceUsage: true,
}

var flagDataDir string

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "",
		"Workspace directory (default $LEADGEN_DATA_DIR or ~/.leadgen)")
}

// loadConfig bootstraps the workspace on first use and returns the
// effective config: file values, env overlay, then normalization.
func loadConfig() (config.Config, error) {
	dataDir := flagDataDir
	if dataDir == "" {
		dataDir = config.DefaultDataDir()
	}
	cfgPath, err := config.EnsureWorkspace(dataDir)
	if err != nil {
		return config.Config{}, fmt.Errorf("bootstrap workspace: %w", err)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	config.OverlayEnv(&cfg)
	cfg, v := config.NormalizeAndValidate(cfg)
	for _, w := range v.Warnings {
		fmt.Fprintf(os.Stderr, "config warning: %s\n", w)
	}
	if !v.OK() {
		return config.Config{}, fmt.Errorf("invalid config %s: %s", cfgPath, strings.Join(v.Errors, "; "))
	}
	return cfg, nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
