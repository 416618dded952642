package models

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusOverdue   TaskStatus = "overdue"
	TaskStatusCompleted TaskStatus = "completed"
)

// Valid reports whether s is one of the stored statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusOverdue, TaskStatusCompleted:
		return true
	}
	return false
}

type TaskCategory string

const (
	CategoryIntimation        TaskCategory = "intimation"
	CategoryInfraction        TaskCategory = "infraction"
	CategoryClosure           TaskCategory = "closure"
	CategorySeizure           TaskCategory = "seizure"
	CategoryLicensing         TaskCategory = "licensing"
	CategoryBlueprintApproval TaskCategory = "blueprint_approval"
)

// TaskCategories lists every category in display order.
var TaskCategories = []TaskCategory{
	CategoryIntimation,
	CategoryInfraction,
	CategoryClosure,
	CategorySeizure,
	CategoryLicensing,
	CategoryBlueprintApproval,
}

// Valid reports whether c is a known category.
func (c TaskCategory) Valid() bool {
	for _, known := range TaskCategories {
		if c == known {
			return true
		}
	}
	return false
}

// RequiresDeadline reports whether tasks of this category must carry a deadline.
func (c TaskCategory) RequiresDeadline() bool {
	return c == CategoryIntimation
}

type Task struct {
	ID                   uint64       `gorm:"primarykey" json:"id"`
	Date                 time.Time    `gorm:"not null;index" json:"date"`
	Category             TaskCategory `gorm:"type:varchar(30);not null;index" json:"category"`
	ActNumber            string       `gorm:"type:varchar(50);not null" json:"act_number"`
	Deadline             *time.Time   `gorm:"index:idx_tasks_status_deadline,priority:2" json:"deadline"`
	ViolatorName         string       `gorm:"type:varchar(255);not null" json:"violator_name"`
	ViolatorDNI          string       `gorm:"type:varchar(20)" json:"violator_dni"`
	ViolatorAddress      string       `gorm:"type:varchar(255)" json:"violator_address"`
	ViolationDescription string       `gorm:"type:text;not null" json:"violation_description"`
	Notes                string       `gorm:"type:text" json:"notes"`
	Status               TaskStatus   `gorm:"type:varchar(20);not null;default:'pending';index:idx_tasks_status_deadline,priority:1" json:"status"`
	FileID               *uint64      `gorm:"index" json:"file_id"`
	CreatorID            uint64       `gorm:"not null;index" json:"creator_id"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`

	// Relations
	Creator       User               `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	File          *File              `gorm:"foreignKey:FileID" json:"file,omitempty"`
	StatusChanges []TaskStatusChange `gorm:"foreignKey:TaskID" json:"status_changes,omitempty"`
}

// TaskDetail is a task row joined with its file caption and creator name.
type TaskDetail struct {
	Task
	FileCaption string `gorm:"column:file_caption"`
	CreatorName string `gorm:"column:creator_name"`
}
