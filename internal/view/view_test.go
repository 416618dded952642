package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/municipal-tracker/internal/dto"
	"github.com/yukikurage/municipal-tracker/internal/models"
)

func date(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func ids(tasks []dto.TaskDTO) []uint64 {
	out := make([]uint64, len(tasks))
	for i, task := range tasks {
		out[i] = task.ID
	}
	return out
}

func sampleTasks() []dto.TaskDTO {
	return []dto.TaskDTO{
		{ID: 1, Status: models.TaskStatusPending, Category: models.CategoryIntimation, ActNumber: "A-3", Date: date(3), Deadline: ptr(date(10))},
		{ID: 2, Status: models.TaskStatusCompleted, Category: models.CategoryClosure, ActNumber: "A-1", Date: date(1)},
		{ID: 3, Status: models.TaskStatusPending, Category: models.CategoryInfraction, ActNumber: "A-5", Date: date(5), Deadline: ptr(date(7))},
		{ID: 4, Status: models.TaskStatusCompleted, Category: models.CategoryIntimation, ActNumber: "A-2", Date: date(2), Deadline: ptr(date(9))},
		{ID: 5, Status: models.TaskStatusPending, Category: models.CategorySeizure, ActNumber: "A-4", Date: date(4)},
	}
}

func TestApplyTasks_StatusSubsetKeepsInputOrder(t *testing.T) {
	tasks := sampleTasks()

	got := ApplyTasks(tasks, TaskFilter{Statuses: []models.TaskStatus{models.TaskStatusCompleted}}, TaskSort{})
	assert.Equal(t, []uint64{2, 4}, ids(got))
}

func TestApplyTasks_DoesNotMutateInput(t *testing.T) {
	tasks := sampleTasks()
	before := ids(tasks)

	got := ApplyTasks(tasks, TaskFilter{}, TaskSort{Key: SortByActNumber, Descending: true})
	assert.Equal(t, []uint64{3, 5, 1, 4, 2}, ids(got))
	assert.Equal(t, before, ids(tasks))
}

func TestApplyTasks_ComposedFilters(t *testing.T) {
	got := ApplyTasks(sampleTasks(), TaskFilter{
		Statuses:   []models.TaskStatus{models.TaskStatusPending},
		Categories: []models.TaskCategory{models.CategoryIntimation, models.CategoryInfraction},
		From:       ptr(date(3)),
		To:         ptr(date(5)),
	}, TaskSort{Key: SortByDate})
	assert.Equal(t, []uint64{1, 3}, ids(got))
}

func TestApplyTasks_DateBoundsInclusive(t *testing.T) {
	got := ApplyTasks(sampleTasks(), TaskFilter{From: ptr(date(2)), To: ptr(date(2))}, TaskSort{})
	assert.Equal(t, []uint64{4}, ids(got))
}

func TestApplyTasks_DeadlineNilsLast(t *testing.T) {
	tasks := sampleTasks()

	asc := ApplyTasks(tasks, TaskFilter{}, TaskSort{Key: SortByDeadline})
	assert.Equal(t, []uint64{3, 4, 1, 2, 5}, ids(asc))

	desc := ApplyTasks(tasks, TaskFilter{}, TaskSort{Key: SortByDeadline, Descending: true})
	assert.Equal(t, []uint64{1, 4, 3, 2, 5}, ids(desc))
}

func TestApplyTasks_StableTies(t *testing.T) {
	tasks := sampleTasks()

	got := ApplyTasks(tasks, TaskFilter{}, TaskSort{Key: SortByStatus})
	assert.Equal(t, []uint64{2, 4, 1, 3, 5}, ids(got))

	got = ApplyTasks(tasks, TaskFilter{}, TaskSort{Key: SortByStatus, Descending: true})
	assert.Equal(t, []uint64{1, 3, 5, 2, 4}, ids(got))
}

func TestApplyTasks_DatesCompareAsInstants(t *testing.T) {
	buenosAires := time.FixedZone("ART", -3*60*60)
	tasks := []dto.TaskDTO{
		// 2024-01-02 01:00 in ART is 04:00 UTC, later than the second task.
		{ID: 1, Date: time.Date(2024, 1, 2, 1, 0, 0, 0, buenosAires)},
		{ID: 2, Date: time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC)},
	}

	got := ApplyTasks(tasks, TaskFilter{}, TaskSort{Key: SortByDate})
	assert.Equal(t, []uint64{2, 1}, ids(got))
}

func TestApplyTasks_UnknownKeyKeepsOrder(t *testing.T) {
	got := ApplyTasks(sampleTasks(), TaskFilter{}, TaskSort{Key: "violator"})
	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, ids(got))
}

func TestFilterFiles(t *testing.T) {
	exit := date(5)
	files := []dto.FileDTO{
		{ID: 1, CaseNumber: "EXP-1", Caption: "Demolition", Status: models.FileStatusInProcess},
		{ID: 2, CaseNumber: "EXP-2", Caption: "Sidewalk", Destination: "Legal", ExitDate: &exit, Status: models.FileStatusCompleted},
		{ID: 3, CaseNumber: "LEG-3", Caption: "Permit", Status: models.FileStatusInProcess},
	}

	completed := models.FileStatusCompleted
	got := FilterFiles(files, FileFilter{Status: &completed})
	require.Len(t, got, 1)
	assert.Equal(t, uint64(2), got[0].ID)

	got = FilterFiles(files, FileFilter{Query: "  leg "})
	require.Len(t, got, 2)
	assert.Equal(t, uint64(2), got[0].ID)
	assert.Equal(t, uint64(3), got[1].ID)

	assert.Len(t, FilterFiles(files, FileFilter{}), 3)
}

func TestSearchActivities(t *testing.T) {
	activities := []dto.ActivityDTO{
		{ID: 1, Description: "Street inspection", Address: "Belgrano 100"},
		{ID: 2, Description: "Meeting", Notes: "with BELGRANO neighbours"},
		{ID: 3, Description: "Office work"},
	}

	got := SearchActivities(activities, "belgrano")
	require.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[0].ID)
	assert.Equal(t, uint64(2), got[1].ID)

	assert.Len(t, SearchActivities(activities, ""), 3)
	assert.Empty(t, SearchActivities(activities, "nothing"))
}
