// Package event defines the immutable task event journal entries.
package event

import (
	"strings"
	"time"
)

// Type identifies the type of a task event.
//
// The set is closed: replay and projection application switch exhaustively
// over these values and treat anything else as log corruption.
type Type string

const (
	// TypeTaskCreated records the creation of a task.
	TypeTaskCreated Type = "task.created"
	// TypeTaskEdited records edits to task fields.
	TypeTaskEdited Type = "task.edited"
	// TypeTaskClosed records a task transitioning to closed.
	TypeTaskClosed Type = "task.closed"
	// TypeTaskReopened records a closed task transitioning back to open.
	TypeTaskReopened Type = "task.reopened"
)

// Event represents an immutable event in the task journal.
type Event struct {
	// TaskID is the task aggregate this event belongs to.
	TaskID string
	// Seq is the event sequence number within the task (starts at 1).
	// Assigned by storage on append.
	Seq uint64
	// Timestamp is when the event occurred.
	Timestamp time.Time
	// Type identifies the kind of event.
	Type Type
	// PayloadJSON holds event-specific data as JSON.
	PayloadJSON []byte
}

// IsValid reports whether the event type belongs to the closed set.
func (t Type) IsValid() bool {
	switch t {
	case TypeTaskCreated, TypeTaskEdited, TypeTaskClosed, TypeTaskReopened:
		return true
	}
	return false
}

// Domain returns the domain prefix of the event type (e.g., "task").
func (t Type) Domain() string {
	for i, c := range t {
		if c == '.' {
			return string(t[:i])
		}
	}
	return string(t)
}

// Validate reports whether the event is usable for append.
func (e Event) Validate() error {
	if strings.TrimSpace(e.TaskID) == "" {
		return ErrTaskIDRequired
	}
	if !e.Type.IsValid() {
		return ErrUnknownType
	}
	return nil
}
