package database

import (
	"fmt"

	"github.com/yukikurage/municipal-tracker/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// compositeIndexes are the indexes the overdue sweep and the history read
// depend on. Tables created by an older build may lack them.
var compositeIndexes = []struct {
	model interface{}
	name  string
}{
	{&models.Task{}, "idx_tasks_status_deadline"},
	{&models.TaskStatusChange{}, "idx_status_changes_task_changed"},
}

// Migrate creates or updates every table and then ensures the composite indexes.
func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := EnsureIndexes(db, log); err != nil {
		return err
	}
	log.Info("database migrations completed")
	return nil
}

// EnsureIndexes creates any missing composite index through the dialect's migrator.
func EnsureIndexes(db *gorm.DB, log *zap.Logger) error {
	m := db.Migrator()
	for _, idx := range compositeIndexes {
		if m.HasIndex(idx.model, idx.name) {
			continue
		}
		if err := m.CreateIndex(idx.model, idx.name); err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
		log.Info("created index", zap.String("index", idx.name))
	}
	return nil
}
