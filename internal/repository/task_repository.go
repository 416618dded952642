package repository

import (
	"time"

	"github.com/yukikurage/municipal-tracker/internal/database"
	"github.com/yukikurage/municipal-tracker/internal/models"
	"github.com/yukikurage/municipal-tracker/internal/utils"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

const taskDetailColumns = "tasks.*, " +
	"COALESCE(files.caption, '') AS file_caption, " +
	"COALESCE(NULLIF(users.full_name, ''), users.username, '') AS creator_name"

// editableTaskColumns are the columns Update may write. status is absent on
// purpose: it only changes through UpdateStatus.
var editableTaskColumns = []string{
	"date", "category", "act_number", "deadline",
	"violator_name", "violator_dni", "violator_address",
	"violation_description", "notes", "file_id", "updated_at",
}

var taskSortColumns = map[TaskSortField]string{
	SortByDate:      "tasks.date",
	SortByActNumber: "tasks.act_number",
	SortByCategory:  "tasks.category",
	SortByStatus:    "tasks.status",
	SortByCreatedAt: "tasks.created_at",
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindByID finds a task by ID
func (r *GormTaskRepository) FindByID(id uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *GormTaskRepository) detailQuery() *gorm.DB {
	return r.db.Model(&models.Task{}).
		Select(taskDetailColumns).
		Joins("LEFT JOIN files ON files.id = tasks.file_id").
		Joins("LEFT JOIN users ON users.id = tasks.creator_id")
}

// FindDetailed finds a task joined with its file caption and creator name
func (r *GormTaskRepository) FindDetailed(id uint64) (*models.TaskDetail, error) {
	var detail models.TaskDetail
	if err := r.detailQuery().Where("tasks.id = ?", id).Take(&detail).Error; err != nil {
		return nil, err
	}
	return &detail, nil
}

func (r *GormTaskRepository) filtered(query *gorm.DB, filter TaskFilter) *gorm.DB {
	if len(filter.Statuses) > 0 {
		query = query.Where("tasks.status IN ?", filter.Statuses)
	}
	if len(filter.Categories) > 0 {
		query = query.Where("tasks.category IN ?", filter.Categories)
	}
	if filter.FileID != nil {
		query = query.Where("tasks.file_id = ?", *filter.FileID)
	}
	return query.
		Scopes(database.DateRange("tasks.date", filter.DateFrom, filter.DateTo)).
		Scopes(database.DateRange("tasks.deadline", filter.DeadlineFrom, filter.DeadlineTo))
}

// List retrieves joined tasks with filtering, sorting and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.TaskDetail, int64, error) {
	total, err := r.Count(filter)
	if err != nil {
		return nil, 0, err
	}

	query := r.filtered(r.detailQuery(), filter)

	direction := " ASC"
	if filter.Descending {
		direction = " DESC"
	}
	switch filter.SortBy {
	case SortByDeadline:
		// Tasks without deadline go last in both directions.
		query = query.Order("CASE WHEN tasks.deadline IS NULL THEN 1 ELSE 0 END").
			Order("tasks.deadline" + direction)
	case "":
		query = query.Order("tasks.date DESC")
	default:
		column, ok := taskSortColumns[filter.SortBy]
		if !ok {
			column = "tasks.date"
		}
		query = query.Order(column + direction)
	}
	query = query.Order("tasks.id ASC")

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Scopes(database.Paginate(utils.NewPaginationParams(filter.Page, filter.PageSize)))
	}

	var tasks []models.TaskDetail
	if err := query.Find(&tasks).Error; err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// Count counts tasks matching the filter
func (r *GormTaskRepository) Count(filter TaskFilter) (int64, error) {
	var total int64
	err := r.filtered(r.db.Model(&models.Task{}), filter).Count(&total).Error
	return total, err
}

// Update updates the editable fields of a task
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Model(task).Select(editableTaskColumns).Updates(task).Error
}

// Delete hard deletes a task together with its status history
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskStatusChange{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Task{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// UpdateStatus applies a status change with an optimistic check on the
// current status and appends the audit record in the same transaction.
func (r *GormTaskRepository) UpdateStatus(change *models.TaskStatusChange) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Task{}).
			Where("id = ? AND status = ?", change.TaskID, change.FromStatus).
			Updates(map[string]interface{}{
				"status":     change.ToStatus,
				"updated_at": change.ChangedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStatusConflict
		}

		return tx.Create(change).Error
	})
}

// History lists the status changes of a task in chronological order
func (r *GormTaskRepository) History(taskID uint64) ([]models.TaskStatusChange, error) {
	var changes []models.TaskStatusChange
	err := r.db.Where("task_id = ?", taskID).
		Order("changed_at ASC").
		Order("id ASC").
		Find(&changes).Error
	return changes, err
}

// HistoryFor loads the status changes of several tasks, grouped by task id
func (r *GormTaskRepository) HistoryFor(taskIDs []uint64) (map[uint64][]models.TaskStatusChange, error) {
	grouped := make(map[uint64][]models.TaskStatusChange, len(taskIDs))
	if len(taskIDs) == 0 {
		return grouped, nil
	}

	var changes []models.TaskStatusChange
	if err := r.db.Where("task_id IN ?", taskIDs).
		Order("changed_at ASC").
		Order("id ASC").
		Find(&changes).Error; err != nil {
		return nil, err
	}
	for _, change := range changes {
		grouped[change.TaskID] = append(grouped[change.TaskID], change)
	}
	return grouped, nil
}

// PendingPastDeadline lists pending tasks whose deadline is strictly before now
func (r *GormTaskRepository) PendingPastDeadline(now time.Time) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.Where("status = ? AND deadline IS NOT NULL AND deadline < ?", models.TaskStatusPending, now).
		Order("deadline ASC").
		Find(&tasks).Error
	return tasks, err
}

// CountCompletedBetween counts tasks moved to completed within [from, to]
func (r *GormTaskRepository) CountCompletedBetween(from, to time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.TaskStatusChange{}).
		Where("to_status = ? AND changed_at >= ? AND changed_at <= ?", models.TaskStatusCompleted, from, to).
		Distinct("task_id").
		Count(&count).Error
	return count, err
}
