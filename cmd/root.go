// Package cmd wires the CLI commands for the ingredient insights service.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/prabhuch28/ingredient-insights/internal/config"
	"github.com/prabhuch28/ingredient-insights/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "insights",
	Short: "Ingredient Insights - AI analysis of food ingredient lists",
	Long: `Ingredient Insights analyzes food ingredient lists with an AI model and
answers nutrition questions in a chat assistant.

Run "insights serve" to start the HTTP API, or "insights analyze" for a
one-shot analysis from the command line.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads and validates configuration, then installs the default
// logger at the configured level. Every command goes through here.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("validating config: %w", err)
	}

	logger := log.NewWithWriter(os.Stderr, log.Config{
		Level: log.ParseLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON,
	})
	slog.SetDefault(logger)
	return cfg, logger, nil
}
