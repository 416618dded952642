package lifecycle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/municipal-tracker/internal/models"
)

func TestPolicyCheck(t *testing.T) {
	deadline := day(2024, 1, 10)
	after := day(2024, 1, 11)
	before := day(2024, 1, 9)

	tests := []struct {
		name    string
		policy  Policy
		req     Request
		allowed bool
	}{
		{"pending to completed by user", DefaultPolicy,
			Request{From: models.TaskStatusPending, To: models.TaskStatusCompleted, Now: before}, true},
		{"pending to completed by system", DefaultPolicy,
			Request{From: models.TaskStatusPending, To: models.TaskStatusCompleted, System: true, Now: before}, false},
		{"pending to overdue by system after deadline", DefaultPolicy,
			Request{From: models.TaskStatusPending, To: models.TaskStatusOverdue, Deadline: &deadline, System: true, Now: after}, true},
		{"pending to overdue by system at deadline", DefaultPolicy,
			Request{From: models.TaskStatusPending, To: models.TaskStatusOverdue, Deadline: &deadline, System: true, Now: deadline}, false},
		{"pending to overdue without deadline", DefaultPolicy,
			Request{From: models.TaskStatusPending, To: models.TaskStatusOverdue, System: true, Now: after}, false},
		{"pending to overdue by user", DefaultPolicy,
			Request{From: models.TaskStatusPending, To: models.TaskStatusOverdue, Deadline: &deadline, Now: after}, false},
		{"overdue to completed with note", DefaultPolicy,
			Request{From: models.TaskStatusOverdue, To: models.TaskStatusCompleted, Note: "resolved", Now: after}, true},
		{"overdue to completed without note", DefaultPolicy,
			Request{From: models.TaskStatusOverdue, To: models.TaskStatusCompleted, Note: "  ", Now: after}, false},
		{"overdue to completed without note when policy allows", Policy{},
			Request{From: models.TaskStatusOverdue, To: models.TaskStatusCompleted, Now: after}, true},
		{"overdue back to pending", DefaultPolicy,
			Request{From: models.TaskStatusOverdue, To: models.TaskStatusPending, Now: after}, false},
		{"completed is terminal", DefaultPolicy,
			Request{From: models.TaskStatusCompleted, To: models.TaskStatusPending, Now: after}, false},
		{"no-op", DefaultPolicy,
			Request{From: models.TaskStatusPending, To: models.TaskStatusPending, Now: after}, false},
		{"unknown target", DefaultPolicy,
			Request{From: models.TaskStatusPending, To: models.TaskStatus("in_progress"), Now: after}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Check(tt.req)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var violation *Violation
			assert.True(t, errors.As(err, &violation))
			assert.Equal(t, tt.req.From, violation.From)
			assert.Equal(t, tt.req.To, violation.To)
		})
	}
}

func TestTerminal(t *testing.T) {
	assert.True(t, Terminal(models.TaskStatusCompleted))
	assert.False(t, Terminal(models.TaskStatusPending))
	assert.False(t, Terminal(models.TaskStatusOverdue))
}

func TestCheck_TerminalStatusIsFinal(t *testing.T) {
	for _, to := range []models.TaskStatus{models.TaskStatusPending, models.TaskStatusOverdue} {
		err := DefaultPolicy.Check(Request{From: models.TaskStatusCompleted, To: to, System: to == models.TaskStatusOverdue})

		var violation *Violation
		assert.True(t, errors.As(err, &violation))
		assert.Equal(t, "completed tasks are final", violation.Reason)
	}

	err := DefaultPolicy.Check(Request{From: "archived", To: models.TaskStatusCompleted})
	var violation *Violation
	assert.True(t, errors.As(err, &violation))
	assert.Equal(t, "transition not allowed", violation.Reason)
}
