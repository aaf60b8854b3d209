package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/gema-study-api/internal/config"
	"github.com/noah-isme/gema-study-api/internal/database"
	"github.com/noah-isme/gema-study-api/internal/logging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations and exit",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, logCloser := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	defer logCloser.Close()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	result, err := database.Migrate(cmd.Context(), db, logger)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d -> %d (%d applied in %s)\n",
		result.FromVersion, result.ToVersion, len(result.Applied), result.Duration)
	return nil
}
