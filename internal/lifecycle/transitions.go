package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/municipal-tracker/internal/models"
)

// Policy holds the configurable parts of the transition rules.
type Policy struct {
	// RequireNoteFromOverdue demands a non-empty note for overdue -> completed.
	RequireNoteFromOverdue bool
}

// DefaultPolicy requires the note, matching the normalized state machine.
var DefaultPolicy = Policy{RequireNoteFromOverdue: true}

// Request describes a status change about to be recorded.
type Request struct {
	From     models.TaskStatus
	To       models.TaskStatus
	Deadline *time.Time
	Note     string
	System   bool
	Now      time.Time
}

// Violation explains why a transition was refused.
type Violation struct {
	From   models.TaskStatus
	To     models.TaskStatus
	Reason string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("cannot change status from %s to %s: %s", v.From, v.To, v.Reason)
}

type rule struct {
	systemOnly bool
	manualOnly bool
}

var table = map[models.TaskStatus]map[models.TaskStatus]rule{
	models.TaskStatusPending: {
		models.TaskStatusOverdue:   {systemOnly: true},
		models.TaskStatusCompleted: {manualOnly: true},
	},
	models.TaskStatusOverdue: {
		models.TaskStatusCompleted: {manualOnly: true},
	},
}

// Check validates req against the transition table and p. It returns nil or
// a *Violation.
func (p Policy) Check(req Request) error {
	if !req.To.Valid() {
		return &Violation{From: req.From, To: req.To, Reason: "unknown target status"}
	}
	if req.From == req.To {
		return &Violation{From: req.From, To: req.To, Reason: "status is unchanged"}
	}
	if req.From.Valid() && Terminal(req.From) {
		return &Violation{From: req.From, To: req.To, Reason: fmt.Sprintf("%s tasks are final", req.From)}
	}

	r, ok := table[req.From][req.To]
	if !ok {
		return &Violation{From: req.From, To: req.To, Reason: "transition not allowed"}
	}
	if r.systemOnly && !req.System {
		return &Violation{From: req.From, To: req.To, Reason: "only the system marks tasks overdue"}
	}
	if r.manualOnly && req.System {
		return &Violation{From: req.From, To: req.To, Reason: "requires a user action"}
	}

	if req.To == models.TaskStatusOverdue {
		if req.Deadline == nil || !req.Now.After(*req.Deadline) {
			return &Violation{From: req.From, To: req.To, Reason: "deadline has not passed"}
		}
	}
	if req.From == models.TaskStatusOverdue && req.To == models.TaskStatusCompleted &&
		p.RequireNoteFromOverdue && strings.TrimSpace(req.Note) == "" {
		return &Violation{From: req.From, To: req.To, Reason: "a note is required to complete an overdue task"}
	}

	return nil
}

// Terminal reports whether no transition leaves s.
func Terminal(s models.TaskStatus) bool {
	return len(table[s]) == 0
}
