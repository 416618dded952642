package dto

import (
	"time"

	"github.com/yukikurage/municipal-tracker/internal/lifecycle"
	"github.com/yukikurage/municipal-tracker/internal/models"
	"github.com/yukikurage/municipal-tracker/internal/services"
	"github.com/yukikurage/municipal-tracker/internal/utils"
)

// SchemaVersion is carried by every task, file and activity payload.
const SchemaVersion = 1

// StatusChangeDTO represents one audit entry in API responses
type StatusChangeDTO struct {
	From      models.TaskStatus `json:"from"`
	To        models.TaskStatus `json:"to"`
	ChangedAt time.Time         `json:"changed_at"`
	Note      string            `json:"note"`
	Actor     string            `json:"actor"`
	ActorID   *uint64           `json:"actor_id"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	SchemaVersion        int                     `json:"schema_version"`
	ID                   uint64                  `json:"id"`
	Date                 time.Time               `json:"date"`
	Category             models.TaskCategory     `json:"category"`
	ActNumber            string                  `json:"act_number"`
	Deadline             *time.Time              `json:"deadline"`
	ViolatorName         string                  `json:"violator_name"`
	ViolatorDNI          string                  `json:"violator_dni"`
	ViolatorAddress      string                  `json:"violator_address"`
	ViolationDescription string                  `json:"violation_description"`
	Notes                string                  `json:"notes"`
	Status               models.TaskStatus       `json:"status"`
	DeadlineState        lifecycle.DeadlineState `json:"deadline_state"`
	FileID               *uint64                 `json:"file_id"`
	FileCaption          string                  `json:"file_caption,omitempty"`
	CreatorID            uint64                  `json:"creator_id"`
	CreatorName          string                  `json:"creator_name,omitempty"`
	CreatedAt            time.Time               `json:"created_at"`
	UpdatedAt            time.Time               `json:"updated_at"`
	StatusHistory        []StatusChangeDTO       `json:"status_history"`
}

// TaskRequest is the body of task create and update. Dates are RFC3339 or
// YYYY-MM-DD strings; status is deliberately absent.
type TaskRequest struct {
	Date                 string              `json:"date"`
	Category             models.TaskCategory `json:"category"`
	ActNumber            string              `json:"act_number"`
	Deadline             *string             `json:"deadline"`
	ViolatorName         string              `json:"violator_name"`
	ViolatorDNI          string              `json:"violator_dni"`
	ViolatorAddress      string              `json:"violator_address"`
	ViolationDescription string              `json:"violation_description"`
	Notes                string              `json:"notes"`
	FileID               *uint64             `json:"file_id"`
}

// StatusChangeRequest is the body of POST /tasks/:id/status
type StatusChangeRequest struct {
	Status         models.TaskStatus  `json:"status"`
	Note           string             `json:"note"`
	ExpectedStatus *models.TaskStatus `json:"expected_status,omitempty"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO                `json:"tasks"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// HistoryResponse wraps the audit list of a task
type HistoryResponse struct {
	TaskID  uint64            `json:"task_id"`
	History []StatusChangeDTO `json:"history"`
}

// ToStatusChangeDTO converts an audit record
func ToStatusChangeDTO(change models.TaskStatusChange) StatusChangeDTO {
	return StatusChangeDTO{
		From:      change.FromStatus,
		To:        change.ToStatus,
		ChangedAt: change.ChangedAt,
		Note:      change.Note,
		Actor:     change.Actor,
		ActorID:   change.ActorID,
	}
}

// ToStatusChangeDTOs converts an audit list, never returning nil
func ToStatusChangeDTOs(changes []models.TaskStatusChange) []StatusChangeDTO {
	out := make([]StatusChangeDTO, len(changes))
	for i, change := range changes {
		out[i] = ToStatusChangeDTO(change)
	}
	return out
}

// ToTaskDTO converts a task record to TaskDTO
func ToTaskDTO(record services.TaskRecord) TaskDTO {
	task := record.Task
	return TaskDTO{
		SchemaVersion:        SchemaVersion,
		ID:                   task.ID,
		Date:                 task.Date,
		Category:             task.Category,
		ActNumber:            task.ActNumber,
		Deadline:             task.Deadline,
		ViolatorName:         task.ViolatorName,
		ViolatorDNI:          task.ViolatorDNI,
		ViolatorAddress:      task.ViolatorAddress,
		ViolationDescription: task.ViolationDescription,
		Notes:                task.Notes,
		Status:               task.Status,
		DeadlineState:        record.State,
		FileID:               task.FileID,
		FileCaption:          record.FileCaption,
		CreatorID:            task.CreatorID,
		CreatorName:          record.CreatorName,
		CreatedAt:            task.CreatedAt,
		UpdatedAt:            task.UpdatedAt,
		StatusHistory:        ToStatusChangeDTOs(record.History),
	}
}

// ToTaskDTOs converts a slice of task records
func ToTaskDTOs(records []services.TaskRecord) []TaskDTO {
	out := make([]TaskDTO, len(records))
	for i, record := range records {
		out[i] = ToTaskDTO(record)
	}
	return out
}

// ToTaskListResponse converts a page of task records to TaskListResponse
func ToTaskListResponse(records []services.TaskRecord, params utils.PaginationParams, total int64) TaskListResponse {
	return TaskListResponse{
		Tasks: ToTaskDTOs(records),
		Pagination: params.Response(total),
	}
}
