package database

import (
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/yukikurage/task-tracker-api/internal/models"
)

// Migrate creates or updates the users and tasks tables and their indexes.
func Migrate(db *gorm.DB, log zerolog.Logger) error {
	log.Info().Msg("running database migrations")
	if err := db.AutoMigrate(&models.User{}, &models.Task{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := AddIndexes(db, log); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}

	log.Info().Msg("database migrations completed")
	return nil
}

type taskIndex struct {
	name    string
	columns []string
}

// taskIndexes back the filters and sort columns used by the list queries.
var taskIndexes = []taskIndex{
	{"idx_tasks_status", []string{"status"}},
	{"idx_tasks_priority", []string{"priority"}},
	{"idx_tasks_assigned_to", []string{"assigned_to"}},
	{"idx_tasks_due_date", []string{"due_date"}},
	{"idx_tasks_created_at", []string{"created_at"}},
}

// AddIndexes adds performance-critical indexes to the tasks table
func AddIndexes(db *gorm.DB, log zerolog.Logger) error {
	migrator := db.Migrator()

	for _, idx := range taskIndexes {
		if migrator.HasIndex(&models.Task{}, idx.name) {
			log.Debug().Str("index", idx.name).Msg("index already exists, skipping")
			continue
		}

		err := db.Exec(fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
			quote(db, idx.name),
			quote(db, "tasks"),
			quoteColumns(db, idx.columns),
		)).Error
		if err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info().Str("index", idx.name).Strs("columns", idx.columns).Msg("created index")
	}

	return nil
}

func quote(db *gorm.DB, name string) string {
	return db.Statement.Quote(name)
}

func quoteColumns(db *gorm.DB, columns []string) string {
	out := ""
	for i, c := range columns {
		if i > 0 {
			out += ", "
		}
		out += quote(db, c)
	}
	return out
}
