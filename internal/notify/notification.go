// Package notify holds the client-side notification inbox, the deadline
// dispatcher that fills it and the native channels it forwards to.
package notify

import "time"

type Kind string

const (
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

type RelatedKind string

const (
	RelatedTask RelatedKind = "task"
	RelatedFile RelatedKind = "file"
)

// Notification is an in-app message. It only lives in the client.
type Notification struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Message     string      `json:"message"`
	Kind        Kind        `json:"kind"`
	Read        bool        `json:"read"`
	CreatedAt   time.Time   `json:"created_at"`
	RelatedID   *uint64     `json:"related_id,omitempty"`
	RelatedKind RelatedKind `json:"related_kind,omitempty"`
}

// Preferences gate which notifications are created and whether they are
// also sent to the native channel.
type Preferences struct {
	TaskReminders       bool `json:"task_reminders"`
	IntimationDeadlines bool `json:"intimation_deadlines"`
	Native              bool `json:"native"`
}

// DefaultPreferences enables everything.
var DefaultPreferences = Preferences{
	TaskReminders:       true,
	IntimationDeadlines: true,
	Native:              true,
}

// PreferencesUpdate changes only the fields that are set.
type PreferencesUpdate struct {
	TaskReminders       *bool
	IntimationDeadlines *bool
	Native              *bool
}
