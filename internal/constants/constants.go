package constants

import "time"

// Context keys
const (
	ContextKeyUserID   = "user_id"
	ContextKeyUsername = "username"
	ContextKeyTask     = "task"
	ContextKeyFile     = "file"
	ContextKeyRequest  = "request_id"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Authentication
const (
	MinPasswordLength = 8
	BearerPrefix      = "Bearer "
)

// Lifecycle
const (
	DefaultLookaheadDays      = 3
	DefaultOverdueSweepPeriod = time.Hour
	DefaultDispatchInterval   = time.Hour
	SystemActorName           = "system"
	OverdueSweepNote          = "marked overdue automatically"
)

// DateLayout is the date-only wire format accepted next to RFC3339.
const DateLayout = "2006-01-02"
