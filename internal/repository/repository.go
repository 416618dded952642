package repository

import (
	"errors"
	"time"

	"github.com/yukikurage/municipal-tracker/internal/models"
)

// ErrStatusConflict is returned by UpdateStatus when the stored status no
// longer matches the expected from status.
var ErrStatusConflict = errors.New("task status changed concurrently")

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID
	FindByID(id uint64) (*models.Task, error)

	// FindDetailed finds a task joined with its file caption and creator name
	FindDetailed(id uint64) (*models.TaskDetail, error)

	// List retrieves joined tasks with filtering, sorting and pagination
	List(filter TaskFilter) ([]models.TaskDetail, int64, error)

	// Count counts tasks matching the filter
	Count(filter TaskFilter) (int64, error)

	// Update updates the editable fields of a task; status is never written here
	Update(task *models.Task) error

	// Delete hard deletes a task and its status history
	Delete(id uint64) error

	// UpdateStatus moves a task from change.FromStatus to change.ToStatus and
	// appends change, atomically. It returns ErrStatusConflict when the task
	// is no longer in change.FromStatus.
	UpdateStatus(change *models.TaskStatusChange) error

	// History lists the status changes of a task in chronological order
	History(taskID uint64) ([]models.TaskStatusChange, error)

	// HistoryFor loads the status changes of several tasks, grouped by task id
	HistoryFor(taskIDs []uint64) (map[uint64][]models.TaskStatusChange, error)

	// PendingPastDeadline lists pending tasks whose deadline is strictly before now
	PendingPastDeadline(now time.Time) ([]models.Task, error)

	// CountCompletedBetween counts tasks moved to completed within [from, to]
	CountCompletedBetween(from, to time.Time) (int64, error)
}

// TaskSortField names the columns a task list can be ordered by.
type TaskSortField string

const (
	SortByDate      TaskSortField = "date"
	SortByDeadline  TaskSortField = "deadline"
	SortByActNumber TaskSortField = "act_number"
	SortByCategory  TaskSortField = "category"
	SortByStatus    TaskSortField = "status"
	SortByCreatedAt TaskSortField = "created_at"
)

// Valid reports whether f is a sortable column.
func (f TaskSortField) Valid() bool {
	switch f {
	case SortByDate, SortByDeadline, SortByActNumber, SortByCategory, SortByStatus, SortByCreatedAt:
		return true
	}
	return false
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	Statuses     []models.TaskStatus
	Categories   []models.TaskCategory
	DateFrom     *time.Time
	DateTo       *time.Time
	DeadlineFrom *time.Time
	DeadlineTo   *time.Time
	FileID       *uint64
	SortBy       TaskSortField
	Descending   bool
	Page         int
	PageSize     int
}

// FileFilter holds filtering options for listing files
type FileFilter struct {
	Status      *models.FileStatus
	Query       string
	EntryBefore *time.Time
	ExitFrom    *time.Time
	ExitTo      *time.Time
	EntryFrom   *time.Time
	EntryTo     *time.Time
	Page        int
	PageSize    int
}

// ActivityFilter holds filtering options for listing other activities
type ActivityFilter struct {
	Query    string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}

// FileRepository defines the interface for file (expediente) data access
type FileRepository interface {
	Create(file *models.File) error
	FindByID(id uint64) (*models.File, error)
	List(filter FileFilter) ([]models.File, int64, error)
	Count(filter FileFilter) (int64, error)
	Update(file *models.File) error

	// Delete hard deletes a file and unlinks its tasks in the same transaction
	Delete(id uint64) error
}

// ActivityRepository defines the interface for other-activity data access
type ActivityRepository interface {
	Create(activity *models.OtherActivity) error
	FindByID(id uint64) (*models.OtherActivity, error)
	List(filter ActivityFilter) ([]models.OtherActivity, int64, error)
	Update(activity *models.OtherActivity) error
	Delete(id uint64) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)

	// List lists every user ordered by username
	List() ([]models.User, error)
}
