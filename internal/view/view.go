// Package view filters and orders client-side snapshots. Functions never
// modify their input; they return new slices.
package view

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/yukikurage/municipal-tracker/internal/dto"
	"github.com/yukikurage/municipal-tracker/internal/models"
)

type SortKey string

const (
	SortByDate      SortKey = "date"
	SortByDeadline  SortKey = "deadline"
	SortByActNumber SortKey = "act_number"
	SortByCategory  SortKey = "category"
	SortByStatus    SortKey = "status"
	SortByCreatedAt SortKey = "created_at"
)

// Valid reports whether k is a known sort key.
func (k SortKey) Valid() bool {
	switch k {
	case SortByDate, SortByDeadline, SortByActNumber, SortByCategory, SortByStatus, SortByCreatedAt:
		return true
	}
	return false
}

// TaskFilter composes its criteria with AND. An empty subset matches any
// value; From and To bound Date inclusively.
type TaskFilter struct {
	Statuses   []models.TaskStatus
	Categories []models.TaskCategory
	From       *time.Time
	To         *time.Time
}

// TaskSort orders tasks by Key. The zero value keeps input order.
type TaskSort struct {
	Key        SortKey
	Descending bool
}

func (f TaskFilter) matches(task dto.TaskDTO) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, task.Status) {
		return false
	}
	if len(f.Categories) > 0 && !slices.Contains(f.Categories, task.Category) {
		return false
	}
	if f.From != nil && task.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && task.Date.After(*f.To) {
		return false
	}
	return true
}

// ApplyTasks filters then stable-sorts tasks. Tasks without deadline sort
// last for SortByDeadline in both directions.
func ApplyTasks(tasks []dto.TaskDTO, filter TaskFilter, order TaskSort) []dto.TaskDTO {
	out := make([]dto.TaskDTO, 0, len(tasks))
	for _, task := range tasks {
		if filter.matches(task) {
			out = append(out, task)
		}
	}

	if !order.Key.Valid() {
		return out
	}

	slices.SortStableFunc(out, func(a, b dto.TaskDTO) int {
		if order.Key == SortByDeadline {
			switch {
			case a.Deadline == nil && b.Deadline == nil:
				return 0
			case a.Deadline == nil:
				return 1
			case b.Deadline == nil:
				return -1
			}
		}
		c := compareTasks(order.Key, a, b)
		if order.Descending {
			return -c
		}
		return c
	})
	return out
}

func compareTasks(key SortKey, a, b dto.TaskDTO) int {
	switch key {
	case SortByDate:
		return a.Date.Compare(b.Date)
	case SortByDeadline:
		return a.Deadline.Compare(*b.Deadline)
	case SortByActNumber:
		return cmp.Compare(a.ActNumber, b.ActNumber)
	case SortByCategory:
		return cmp.Compare(a.Category, b.Category)
	case SortByStatus:
		return cmp.Compare(a.Status, b.Status)
	case SortByCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	return 0
}

// FileFilter selects files by derived status and free text.
type FileFilter struct {
	Status *models.FileStatus
	Query  string
}

// FilterFiles matches Query case-insensitively against case number, caption
// and destination.
func FilterFiles(files []dto.FileDTO, filter FileFilter) []dto.FileDTO {
	q := normalize(filter.Query)
	out := make([]dto.FileDTO, 0, len(files))
	for _, file := range files {
		if filter.Status != nil && file.Status != *filter.Status {
			continue
		}
		if q != "" && !containsAny(q, file.CaseNumber, file.Caption, file.Destination) {
			continue
		}
		out = append(out, file)
	}
	return out
}

// SearchActivities matches query case-insensitively against description,
// address and notes. An empty query returns every activity.
func SearchActivities(activities []dto.ActivityDTO, query string) []dto.ActivityDTO {
	q := normalize(query)
	out := make([]dto.ActivityDTO, 0, len(activities))
	for _, activity := range activities {
		if q == "" || containsAny(q, activity.Description, activity.Address, activity.Notes) {
			out = append(out, activity)
		}
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func containsAny(q string, fields ...string) bool {
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
