package client

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrTransition   = errors.New("status change refused")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("not authenticated")
)

// APIError is a 4xx answer from the server. It unwraps to the sentinel
// matching its status.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details map[string]interface{}
	kind    error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
}

func (e *APIError) Unwrap() error {
	return e.kind
}

// ValidationError lists the rejected fields of a request.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + " " + e.Fields[name]
	}
	if len(parts) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(parts, ", ")
}

// TransportError is a network failure or a 5xx answer. Nothing is retried
// automatically.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v; check the connection and retry", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: server answered %d; retry later", e.Op, e.Status)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
