// Package lifecycle holds the task deadline evaluator and the status
// transition table. Everything here is pure: callers pass the clock in.
package lifecycle

import (
	"time"

	"github.com/yukikurage/municipal-tracker/internal/constants"
	"github.com/yukikurage/municipal-tracker/internal/models"
)

// DeadlineState is the derived, never persisted view of a task deadline.
type DeadlineState string

const (
	StateOnTime        DeadlineState = "on_time"
	StateNearDeadline  DeadlineState = "near_deadline"
	StateOverdue       DeadlineState = "overdue"
	StateNotApplicable DeadlineState = "not_applicable"
)

// DefaultLookahead is the near-deadline window used when none is configured.
const DefaultLookahead = constants.DefaultLookaheadDays * 24 * time.Hour

// Evaluate classifies a task deadline at now.
//
// A deadline equal to now is near-deadline, not overdue: overdue requires now
// to be strictly after the deadline. A task already stored as overdue stays
// overdue; completed tasks and tasks without deadline are not applicable.
func Evaluate(status models.TaskStatus, deadline *time.Time, now time.Time, lookahead time.Duration) DeadlineState {
	if deadline == nil {
		return StateNotApplicable
	}

	switch status {
	case models.TaskStatusOverdue:
		return StateOverdue
	case models.TaskStatusPending:
	default:
		return StateNotApplicable
	}

	if now.After(*deadline) {
		return StateOverdue
	}
	if !now.Before(deadline.Add(-lookahead)) {
		return StateNearDeadline
	}
	return StateOnTime
}

// EvaluateTask is Evaluate applied to a stored task.
func EvaluateTask(task models.Task, now time.Time, lookahead time.Duration) DeadlineState {
	return Evaluate(task.Status, task.Deadline, now, lookahead)
}

// NeedsAttention reports whether the state should raise a notification.
func (s DeadlineState) NeedsAttention() bool {
	return s == StateNearDeadline || s == StateOverdue
}
