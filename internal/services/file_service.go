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

// FileService handles expediente business logic
type FileService struct {
	fileRepo repository.FileRepository
}

// NewFileService creates a new FileService
func NewFileService(fileRepo repository.FileRepository) *FileService {
	return &FileService{fileRepo: fileRepo}
}

// FileInput carries the editable fields of a file.
type FileInput struct {
	EntryDate   *time.Time
	CaseNumber  string
	Caption     string
	ExitDate    *time.Time
	Destination string
	Notes       string
}

// ListFilesInput represents filters for listing files
type ListFilesInput struct {
	Status   *models.FileStatus
	Query    string
	Page     int
	PageSize int
}

func validateFile(input FileInput, creating bool) error {
	fields := fieldErrors{}
	if input.EntryDate == nil || input.EntryDate.IsZero() {
		fields.add("entry_date", "is required")
	}
	if creating {
		fields.required("case_number", input.CaseNumber)
	}
	fields.required("caption", input.Caption)
	if input.EntryDate != nil && input.ExitDate != nil && input.ExitDate.Before(*input.EntryDate) {
		fields.add("exit_date", "must not be before entry_date")
	}
	return fields.err()
}

// CreateFile validates input and stores a new file
func (s *FileService) CreateFile(input FileInput, creatorID uint64) (*models.File, error) {
	if err := validateFile(input, true); err != nil {
		return nil, err
	}

	file := &models.File{
		EntryDate:   *input.EntryDate,
		CaseNumber:  strings.TrimSpace(input.CaseNumber),
		Caption:     strings.TrimSpace(input.Caption),
		ExitDate:    input.ExitDate,
		Destination: strings.TrimSpace(input.Destination),
		Notes:       input.Notes,
		CreatorID:   creatorID,
	}
	if err := s.fileRepo.Create(file); err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return file, nil
}

// UpdateFile replaces the editable fields of a file. An empty case number
// keeps the stored one. Setting or clearing ExitDate is the only way the
// derived status changes.
func (s *FileService) UpdateFile(fileID uint64, input FileInput) (*models.File, error) {
	file, err := s.GetFile(fileID)
	if err != nil {
		return nil, err
	}
	if err := validateFile(input, false); err != nil {
		return nil, err
	}

	file.EntryDate = *input.EntryDate
	if caseNumber := strings.TrimSpace(input.CaseNumber); caseNumber != "" {
		file.CaseNumber = caseNumber
	}
	file.Caption = strings.TrimSpace(input.Caption)
	file.ExitDate = input.ExitDate
	file.Destination = strings.TrimSpace(input.Destination)
	file.Notes = input.Notes

	if err := s.fileRepo.Update(file); err != nil {
		return nil, fmt.Errorf("failed to update file: %w", err)
	}
	return s.GetFile(fileID)
}

// GetFile returns a file by ID
func (s *FileService) GetFile(fileID uint64) (*models.File, error) {
	file, err := s.fileRepo.FindByID(fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to find file: %w", err)
	}
	return file, nil
}

// ListFiles returns files matching the filters
func (s *FileService) ListFiles(input ListFilesInput) ([]models.File, int64, error) {
	files, total, err := s.fileRepo.List(repository.FileFilter{
		Status:   input.Status,
		Query:    input.Query,
		Page:     input.Page,
		PageSize: input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list files: %w", err)
	}
	return files, total, nil
}

// DeleteFile hard deletes a file; linked tasks lose their file reference
func (s *FileService) DeleteFile(fileID uint64) error {
	if err := s.fileRepo.Delete(fileID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFileNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
