package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-study-api/internal/models"
)

// Migration is one schema step. Steps create tables or add columns; the
// legacy rebuilds copy every row into the current layout and keep the
// original table as <name>_legacy.
type Migration struct {
	Version int
	Name    string
	Apply   func(tx *gorm.DB) error
}

// MigrationResult summarises a migration run.
type MigrationResult struct {
	FromVersion int
	ToVersion   int
	Applied     []string
	Duration    time.Duration
}

// Migrations lists every schema step in version order.
var Migrations = []Migration{
	{Version: 1, Name: "create_participants", Apply: createTable(&models.Participant{})},
	{Version: 2, Name: "create_responses", Apply: createTable(&models.Response{})},
	{Version: 3, Name: "participants_add_access_code", Apply: addColumns(&models.Participant{}, "AccessCode")},
	{Version: 4, Name: "responses_add_expression_and_result", Apply: addColumns(&models.Response{}, "ExprText", "ResultVal")},
	{Version: 5, Name: "responses_add_stimulus", Apply: addColumns(&models.Response{}, "Stimulus")},
	{Version: 6, Name: "participants_add_survey", Apply: addColumns(&models.Participant{}, "Survey")},
	{Version: 7, Name: "participants_rebuild_legacy_layout", Apply: rebuildLegacy(legacyParticipants)},
	{Version: 8, Name: "responses_rebuild_legacy_layout", Apply: rebuildLegacy(legacyResponses)},
}

// Migrate applies every migration that has not been recorded yet.
func Migrate(ctx context.Context, db *gorm.DB, logger zerolog.Logger) (MigrationResult, error) {
	return runMigrations(ctx, db, Migrations, logger)
}

func runMigrations(ctx context.Context, db *gorm.DB, steps []Migration, logger zerolog.Logger) (MigrationResult, error) {
	start := time.Now()
	logger = logger.With().Str("component", "migrations").Logger()

	if err := validateOrder(steps); err != nil {
		return MigrationResult{}, err
	}

	if err := db.WithContext(ctx).AutoMigrate(&models.SchemaMigration{}); err != nil {
		return MigrationResult{}, fmt.Errorf("failed to prepare schema_migrations: %w", err)
	}

	var applied []models.SchemaMigration
	if err := db.WithContext(ctx).Order("version ASC").Find(&applied).Error; err != nil {
		return MigrationResult{}, fmt.Errorf("failed to read schema_migrations: %w", err)
	}

	done := make(map[int]bool, len(applied))
	result := MigrationResult{}
	for _, m := range applied {
		done[m.Version] = true
		if m.Version > result.FromVersion {
			result.FromVersion = m.Version
		}
	}
	result.ToVersion = result.FromVersion

	for _, step := range steps {
		if done[step.Version] {
			continue
		}

		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := step.Apply(tx); err != nil {
				return err
			}
			return tx.Create(&models.SchemaMigration{
				Version:   step.Version,
				Name:      step.Name,
				AppliedAt: time.Now().UTC(),
			}).Error
		})
		if err != nil {
			return result, fmt.Errorf("migration %d (%s) failed: %w", step.Version, step.Name, err)
		}

		logger.Info().Int("version", step.Version).Str("name", step.Name).Msg("migration applied")
		result.Applied = append(result.Applied, step.Name)
		if step.Version > result.ToVersion {
			result.ToVersion = step.Version
		}
	}

	result.Duration = time.Since(start)
	logger.Info().
		Int("from_version", result.FromVersion).
		Int("to_version", result.ToVersion).
		Int("applied", len(result.Applied)).
		Msg("schema up to date")

	return result, nil
}

func validateOrder(steps []Migration) error {
	last := 0
	for _, step := range steps {
		if step.Version <= last {
			return fmt.Errorf("migration %q has version %d, expected > %d", step.Name, step.Version, last)
		}
		last = step.Version
	}
	return nil
}

func createTable(model interface{}) func(tx *gorm.DB) error {
	return func(tx *gorm.DB) error {
		if tx.Migrator().HasTable(model) {
			return nil
		}
		return tx.Migrator().CreateTable(model)
	}
}

func addColumns(model interface{}, fields ...string) func(tx *gorm.DB) error {
	return func(tx *gorm.DB) error {
		for _, field := range fields {
			if tx.Migrator().HasColumn(model, field) {
				continue
			}
			if err := tx.Migrator().AddColumn(model, field); err != nil {
				return fmt.Errorf("add column %s: %w", field, err)
			}
		}
		return nil
	}
}
