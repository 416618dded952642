package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/yukikurage/municipal-tracker/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEvaluate_NoDeadlineIsNotApplicable(t *testing.T) {
	moments := []time.Time{day(1999, 1, 1), day(2024, 1, 10), day(2100, 12, 31)}
	for _, status := range []models.TaskStatus{models.TaskStatusPending, models.TaskStatusOverdue, models.TaskStatusCompleted} {
		for _, now := range moments {
			assert.Equal(t, StateNotApplicable, Evaluate(status, nil, now, DefaultLookahead), "status %s at %s", status, now)
		}
	}
}

func TestEvaluate_PendingWindows(t *testing.T) {
	deadline := day(2024, 1, 10)

	tests := []struct {
		name string
		now  time.Time
		want DeadlineState
	}{
		{"well before the window", day(2024, 1, 1), StateOnTime},
		{"just before the window", deadline.Add(-DefaultLookahead - time.Nanosecond), StateOnTime},
		{"window opens", deadline.Add(-DefaultLookahead), StateNearDeadline},
		{"inside the window", day(2024, 1, 8), StateNearDeadline},
		{"deadline equals now", deadline, StateNearDeadline},
		{"just after the deadline", deadline.Add(time.Nanosecond), StateOverdue},
		{"days after the deadline", day(2024, 1, 11), StateOverdue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(models.TaskStatusPending, &deadline, tt.now, DefaultLookahead))
		})
	}
}

func TestEvaluate_NonPendingStatuses(t *testing.T) {
	deadline := day(2024, 1, 10)

	assert.Equal(t, StateNotApplicable, Evaluate(models.TaskStatusCompleted, &deadline, day(2024, 2, 1), DefaultLookahead))
	assert.Equal(t, StateOverdue, Evaluate(models.TaskStatusOverdue, &deadline, day(2024, 2, 1), DefaultLookahead))
}

func TestEvaluate_ZeroLookahead(t *testing.T) {
	deadline := day(2024, 1, 10)

	assert.Equal(t, StateOnTime, Evaluate(models.TaskStatusPending, &deadline, day(2024, 1, 9), 0))
	assert.Equal(t, StateNearDeadline, Evaluate(models.TaskStatusPending, &deadline, deadline, 0))
}

func TestEvaluateTask_IntimationScenario(t *testing.T) {
	deadline := day(2024, 1, 10)
	task := models.Task{
		Date:     day(2024, 1, 1),
		Category: models.CategoryIntimation,
		Deadline: &deadline,
		Status:   models.TaskStatusPending,
	}

	assert.Equal(t, StateNearDeadline, EvaluateTask(task, day(2024, 1, 8), 3*24*time.Hour))
	assert.Equal(t, StateOverdue, EvaluateTask(task, day(2024, 1, 11), 3*24*time.Hour))
}

func TestDeadlineState_NeedsAttention(t *testing.T) {
	assert.True(t, StateNearDeadline.NeedsAttention())
	assert.True(t, StateOverdue.NeedsAttention())
	assert.False(t, StateOnTime.NeedsAttention())
	assert.False(t, StateNotApplicable.NeedsAttention())
}
