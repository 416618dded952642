package repository

import (
	"strings"

	"github.com/yukikurage/municipal-tracker/internal/database"
	"github.com/yukikurage/municipal-tracker/internal/models"
	"github.com/yukikurage/municipal-tracker/internal/utils"
	"gorm.io/gorm"
)

// GormActivityRepository is a GORM implementation of ActivityRepository
type GormActivityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &GormActivityRepository{db: db}
}

func (r *GormActivityRepository) Create(activity *models.OtherActivity) error {
	return r.db.Create(activity).Error
}

func (r *GormActivityRepository) FindByID(id uint64) (*models.OtherActivity, error) {
	var activity models.OtherActivity
	if err := r.db.First(&activity, id).Error; err != nil {
		return nil, err
	}
	return &activity, nil
}

func (r *GormActivityRepository) List(filter ActivityFilter) ([]models.OtherActivity, int64, error) {
	query := r.db.Model(&models.OtherActivity{}).
		Scopes(database.DateRange("date", filter.DateFrom, filter.DateTo))

	if q := strings.ToLower(strings.TrimSpace(filter.Query)); q != "" {
		like := "%" + q + "%"
		query = query.Where("LOWER(description) LIKE ? OR LOWER(address) LIKE ? OR LOWER(notes) LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("date DESC").Order("id ASC")
	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.NewPaginationParams(filter.Page, filter.PageSize)))
	}

	var activities []models.OtherActivity
	if err := listQuery.Find(&activities).Error; err != nil {
		return nil, 0, err
	}
	return activities, total, nil
}

func (r *GormActivityRepository) Update(activity *models.OtherActivity) error {
	return r.db.Model(activity).
		Select("date", "description", "address", "notes", "updated_at").
		Updates(activity).Error
}

func (r *GormActivityRepository) Delete(id uint64) error {
	result := r.db.Delete(&models.OtherActivity{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
