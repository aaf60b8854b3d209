package database

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-study-api/internal/models"
)

// Databases written by the first version of the study app declare their
// timestamps as TEXT holding ISO strings, and mark unfinished participants
// with finished_at = 'no' under a NOT NULL constraint. SQLite cannot alter a
// column in place, so those tables are rebuilt once with the current layout.
// The untouched original rows are kept in <table>_legacy.

const legacyTimestamp = "COALESCE(NULLIF(TRIM(created_at), ''), CURRENT_TIMESTAMP)"

type legacyTable struct {
	Name    string
	Model   interface{}
	Columns []string
	Exprs   map[string]string
}

type sqliteColumn struct {
	Name    string
	Type    string
	NotNull int `gorm:"column:notnull"`
}

var legacyParticipants = legacyTable{
	Name:    "participants",
	Model:   &models.Participant{},
	Columns: []string{"id", "access_code", "age", "gender", "group_name", "created_at", "finished_at", "survey"},
	Exprs: map[string]string{
		"group_name":  "COALESCE(group_name, '')",
		"created_at":  legacyTimestamp,
		"finished_at": "CASE WHEN finished_at IS NULL OR LOWER(TRIM(finished_at)) IN ('', 'no') THEN NULL ELSE finished_at END",
	},
}

var legacyResponses = legacyTable{
	Name:  "responses",
	Model: &models.Response{},
	Columns: []string{
		"id", "participant_id", "task_name", "q_index", "category", "numbers_text", "ops_text", "target",
		"chosen", "is_correct", "rt_ms", "expr_text", "result_val", "stimulus", "created_at",
	},
	Exprs: map[string]string{
		"is_correct": "COALESCE(is_correct, 0)",
		"created_at": legacyTimestamp,
	},
}

func rebuildLegacy(table legacyTable) func(tx *gorm.DB) error {
	return func(tx *gorm.DB) error {
		legacy, err := isLegacyLayout(tx, table.Name)
		if err != nil || !legacy {
			return err
		}

		backup := table.Name + "_legacy"
		staging := table.Name + "_rebuild"

		if tx.Migrator().HasTable(backup) {
			return fmt.Errorf("backup table %s already exists", backup)
		}
		if err := tx.Exec(fmt.Sprintf("CREATE TABLE %q AS SELECT * FROM %q", backup, table.Name)).Error; err != nil {
			return fmt.Errorf("back up %s: %w", table.Name, err)
		}
		if err := dropModelIndexes(tx, table.Model); err != nil {
			return err
		}
		if err := tx.Table(staging).Migrator().CreateTable(table.Model); err != nil {
			return fmt.Errorf("create %s: %w", staging, err)
		}

		selects := make([]string, len(table.Columns))
		for i, column := range table.Columns {
			if expr, ok := table.Exprs[column]; ok {
				selects[i] = expr
				continue
			}
			selects[i] = column
		}

		statements := []string{
			fmt.Sprintf("INSERT INTO %q (%s) SELECT %s FROM %q",
				staging, strings.Join(table.Columns, ", "), strings.Join(selects, ", "), table.Name),
			fmt.Sprintf("DROP TABLE %q", table.Name),
			fmt.Sprintf("ALTER TABLE %q RENAME TO %q", staging, table.Name),
		}
		for _, statement := range statements {
			if err := tx.Exec(statement).Error; err != nil {
				return fmt.Errorf("rebuild %s: %w", table.Name, err)
			}
		}

		return nil
	}
}

// dropModelIndexes frees the model's index names so the staging table can
// claim them. The indexed table is dropped right after.
func dropModelIndexes(tx *gorm.DB, model interface{}) error {
	stmt := &gorm.Statement{DB: tx}
	if err := stmt.Parse(model); err != nil {
		return fmt.Errorf("parse %T: %w", model, err)
	}
	for _, idx := range stmt.Schema.ParseIndexes() {
		if err := tx.Exec(fmt.Sprintf("DROP INDEX IF EXISTS %q", idx.Name)).Error; err != nil {
			return fmt.Errorf("drop index %s: %w", idx.Name, err)
		}
	}
	return nil
}

// isLegacyLayout reports whether table still uses TEXT timestamps or a NOT
// NULL completion marker. Only SQLite files can carry that layout.
func isLegacyLayout(tx *gorm.DB, table string) (bool, error) {
	if tx.Dialector.Name() != "sqlite" || !tx.Migrator().HasTable(table) {
		return false, nil
	}

	var columns []sqliteColumn
	if err := tx.Raw(fmt.Sprintf("PRAGMA table_info(%q)", table)).Scan(&columns).Error; err != nil {
		return false, fmt.Errorf("inspect %s: %w", table, err)
	}

	for _, column := range columns {
		textType := strings.EqualFold(strings.TrimSpace(column.Type), "TEXT")
		switch column.Name {
		case "created_at":
			if textType {
				return true, nil
			}
		case "finished_at":
			if textType || column.NotNull == 1 {
				return true, nil
			}
		}
	}

	return false, nil
}
