// Package testutil builds the in-memory databases and fixtures shared by
// package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/municipal-tracker/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated in-memory sqlite database. Every connection of an
// in-memory sqlite database is a different database, so the pool is pinned
// to one connection.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// Date returns midnight UTC of the given day.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CreateUser inserts a user with a throwaway password hash.
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		FullName:     username + " Inspector",
		PasswordHash: "hashedpassword",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateFile inserts an in-process file.
func CreateFile(t testing.TB, db *gorm.DB, creatorID uint64, caseNumber string) *models.File {
	t.Helper()
	file := &models.File{
		EntryDate:  Date(2024, 1, 2),
		CaseNumber: caseNumber,
		Caption:    "Caption of " + caseNumber,
		CreatorID:  creatorID,
	}
	require.NoError(t, db.Create(file).Error)
	return file
}

// TaskOption customizes CreateTask.
type TaskOption func(*models.Task)

func WithDeadline(d time.Time) TaskOption {
	return func(t *models.Task) { t.Deadline = &d }
}

func WithStatus(s models.TaskStatus) TaskOption {
	return func(t *models.Task) { t.Status = s }
}

func WithCategory(c models.TaskCategory) TaskOption {
	return func(t *models.Task) { t.Category = c }
}

func WithFile(id uint64) TaskOption {
	return func(t *models.Task) { t.FileID = &id }
}

func WithDate(d time.Time) TaskOption {
	return func(t *models.Task) { t.Date = d }
}

// CreateTask inserts a pending infraction task.
func CreateTask(t testing.TB, db *gorm.DB, creatorID uint64, actNumber string, opts ...TaskOption) *models.Task {
	t.Helper()
	task := &models.Task{
		Date:                 Date(2024, 1, 1),
		Category:             models.CategoryInfraction,
		ActNumber:            actNumber,
		ViolatorName:         "Juan Perez",
		ViolationDescription: "Unauthorized construction",
		Status:               models.TaskStatusPending,
		CreatorID:            creatorID,
	}
	for _, opt := range opts {
		opt(task)
	}
	require.NoError(t, db.Create(task).Error)
	return task
}
