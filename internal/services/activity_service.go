package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/municipal-tracker/internal/models"
	"github.com/yukikurage/municipal-tracker/internal/repository"
	"gorm.io/gorm"
)

// ActivityService handles other-activity business logic
type ActivityService struct {
	activityRepo repository.ActivityRepository
}

// NewActivityService creates a new ActivityService
func NewActivityService(activityRepo repository.ActivityRepository) *ActivityService {
	return &ActivityService{activityRepo: activityRepo}
}

// ActivityInput carries the editable fields of an activity.
type ActivityInput struct {
	Date        *time.Time
	Description string
	Address     string
	Notes       string
}

func validateActivity(input ActivityInput) error {
	fields := fieldErrors{}
	if input.Date == nil || input.Date.IsZero() {
		fields.add("date", "is required")
	}
	fields.required("description", input.Description)
	return fields.err()
}

func (s *ActivityService) CreateActivity(input ActivityInput, creatorID uint64) (*models.OtherActivity, error) {
	if err := validateActivity(input); err != nil {
		return nil, err
	}

	activity := &models.OtherActivity{
		Date:        *input.Date,
		Description: strings.TrimSpace(input.Description),
		Address:     strings.TrimSpace(input.Address),
		Notes:       input.Notes,
		CreatorID:   creatorID,
	}
	if err := s.activityRepo.Create(activity); err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}
	return activity, nil
}

func (s *ActivityService) UpdateActivity(id uint64, input ActivityInput) (*models.OtherActivity, error) {
	activity, err := s.GetActivity(id)
	if err != nil {
		return nil, err
	}
	if err := validateActivity(input); err != nil {
		return nil, err
	}

	activity.Date = *input.Date
	activity.Description = strings.TrimSpace(input.Description)
	activity.Address = strings.TrimSpace(input.Address)
	activity.Notes = input.Notes

	if err := s.activityRepo.Update(activity); err != nil {
		return nil, fmt.Errorf("failed to update activity: %w", err)
	}
	return s.GetActivity(id)
}

func (s *ActivityService) GetActivity(id uint64) (*models.OtherActivity, error) {
	activity, err := s.activityRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, fmt.Errorf("failed to find activity: %w", err)
	}
	return activity, nil
}

// ListActivities searches description, address and notes when query is set
func (s *ActivityService) ListActivities(query string, page, pageSize int) ([]models.OtherActivity, int64, error) {
	activities, total, err := s.activityRepo.List(repository.ActivityFilter{
		Query:    query,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list activities: %w", err)
	}
	return activities, total, nil
}

func (s *ActivityService) DeleteActivity(id uint64) error {
	if err := s.activityRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrActivityNotFound
		}
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	return nil
}
