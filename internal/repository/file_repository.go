package repository

import (
	"strings"

	"github.com/yukikurage/municipal-tracker/internal/database"
	"github.com/yukikurage/municipal-tracker/internal/models"
	"github.com/yukikurage/municipal-tracker/internal/utils"
	"gorm.io/gorm"
)

// GormFileRepository is a GORM implementation of FileRepository
type GormFileRepository struct {
	db *gorm.DB
}

// NewFileRepository creates a new FileRepository
func NewFileRepository(db *gorm.DB) FileRepository {
	return &GormFileRepository{db: db}
}

func (r *GormFileRepository) Create(file *models.File) error {
	return r.db.Create(file).Error
}

func (r *GormFileRepository) FindByID(id uint64) (*models.File, error) {
	var file models.File
	if err := r.db.First(&file, id).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *GormFileRepository) filtered(filter FileFilter) *gorm.DB {
	query := r.db.Model(&models.File{})

	if filter.Status != nil {
		// Status is derived from exit_date, so it filters on that column.
		switch *filter.Status {
		case models.FileStatusCompleted:
			query = query.Where("exit_date IS NOT NULL")
		case models.FileStatusInProcess:
			query = query.Where("exit_date IS NULL")
		}
	}
	if q := strings.ToLower(strings.TrimSpace(filter.Query)); q != "" {
		like := "%" + q + "%"
		query = query.Where(
			"LOWER(case_number) LIKE ? OR LOWER(caption) LIKE ? OR LOWER(destination) LIKE ?",
			like, like, like,
		)
	}
	if filter.EntryBefore != nil {
		query = query.Where("entry_date < ?", *filter.EntryBefore)
	}

	return query.
		Scopes(database.DateRange("entry_date", filter.EntryFrom, filter.EntryTo)).
		Scopes(database.DateRange("exit_date", filter.ExitFrom, filter.ExitTo))
}

func (r *GormFileRepository) List(filter FileFilter) ([]models.File, int64, error) {
	total, err := r.Count(filter)
	if err != nil {
		return nil, 0, err
	}

	query := r.filtered(filter).Order("entry_date DESC").Order("id ASC")
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Scopes(database.Paginate(utils.NewPaginationParams(filter.Page, filter.PageSize)))
	}

	var files []models.File
	if err := query.Find(&files).Error; err != nil {
		return nil, 0, err
	}
	return files, total, nil
}

func (r *GormFileRepository) Count(filter FileFilter) (int64, error) {
	var total int64
	err := r.filtered(filter).Count(&total).Error
	return total, err
}

func (r *GormFileRepository) Update(file *models.File) error {
	return r.db.Model(file).
		Select("entry_date", "case_number", "caption", "exit_date", "destination", "notes", "updated_at").
		Updates(file).Error
}

// Delete removes the file and clears file_id on every task that pointed at it.
func (r *GormFileRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Task{}).
			Where("file_id = ?", id).
			Update("file_id", nil).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.File{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
