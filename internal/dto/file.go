package dto

import (
	"time"

	"github.com/yukikurage/municipal-tracker/internal/models"
	"github.com/yukikurage/municipal-tracker/internal/utils"
)

// FileDTO represents an expediente in API responses. Status is derived from ExitDate.
type FileDTO struct {
	SchemaVersion int               `json:"schema_version"`
	ID            uint64            `json:"id"`
	EntryDate     time.Time         `json:"entry_date"`
	CaseNumber    string            `json:"case_number"`
	Caption       string            `json:"caption"`
	ExitDate      *time.Time        `json:"exit_date"`
	Destination   string            `json:"destination"`
	Notes         string            `json:"notes"`
	Status        models.FileStatus `json:"status"`
	CreatorID     uint64            `json:"creator_id"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// FileRequest is the body of file create and update
type FileRequest struct {
	EntryDate   string  `json:"entry_date"`
	CaseNumber  string  `json:"case_number"`
	Caption     string  `json:"caption"`
	ExitDate    *string `json:"exit_date"`
	Destination string  `json:"destination"`
	Notes       string  `json:"notes"`
}

type FileListResponse struct {
	Files      []FileDTO                `json:"files"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ActivityDTO represents an other activity in API responses
type ActivityDTO struct {
	SchemaVersion int       `json:"schema_version"`
	ID            uint64    `json:"id"`
	Date          time.Time `json:"date"`
	Description   string    `json:"description"`
	Address       string    `json:"address"`
	Notes         string    `json:"notes"`
	CreatorID     uint64    `json:"creator_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ActivityRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Address     string `json:"address"`
	Notes       string `json:"notes"`
}

type ActivityListResponse struct {
	Activities []ActivityDTO            `json:"activities"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ToFileDTO converts a File model to FileDTO
func ToFileDTO(file models.File) FileDTO {
	return FileDTO{
		SchemaVersion: SchemaVersion,
		ID:            file.ID,
		EntryDate:     file.EntryDate,
		CaseNumber:    file.CaseNumber,
		Caption:       file.Caption,
		ExitDate:      file.ExitDate,
		Destination:   file.Destination,
		Notes:         file.Notes,
		Status:        file.Status(),
		CreatorID:     file.CreatorID,
		CreatedAt:     file.CreatedAt,
		UpdatedAt:     file.UpdatedAt,
	}
}

func ToFileDTOs(files []models.File) []FileDTO {
	out := make([]FileDTO, len(files))
	for i, file := range files {
		out[i] = ToFileDTO(file)
	}
	return out
}

// ToActivityDTO converts an OtherActivity model to ActivityDTO
func ToActivityDTO(activity models.OtherActivity) ActivityDTO {
	return ActivityDTO{
		SchemaVersion: SchemaVersion,
		ID:            activity.ID,
		Date:          activity.Date,
		Description:   activity.Description,
		Address:       activity.Address,
		Notes:         activity.Notes,
		CreatorID:     activity.CreatorID,
		CreatedAt:     activity.CreatedAt,
		UpdatedAt:     activity.UpdatedAt,
	}
}

func ToActivityDTOs(activities []models.OtherActivity) []ActivityDTO {
	out := make([]ActivityDTO, len(activities))
	for i, activity := range activities {
		out[i] = ToActivityDTO(activity)
	}
	return out
}
