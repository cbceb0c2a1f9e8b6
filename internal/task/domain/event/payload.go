package event

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrTaskIDRequired indicates an event without a task identity.
	ErrTaskIDRequired = errors.New("event task id is required")
	// ErrUnknownType indicates an event type outside the closed set.
	ErrUnknownType = errors.New("unknown event type")
)

// CreatedPayload captures the payload for task.created events.
type CreatedPayload struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Priority    int    `json:"priority"`
	Cost        int    `json:"cost"`
	DisplayID   int64  `json:"display_id"`
}

// EditedPayload captures the payload for task.edited events.
// Only present fields are updated.
type EditedPayload struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Priority    *int    `json:"priority,omitempty"`
	Cost        *int    `json:"cost,omitempty"`
}

// IsEmpty reports whether the edit carries no field changes.
func (p EditedPayload) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil && p.Cost == nil
}

// NewCreated builds a task.created event for the given task.
func NewCreated(taskID string, payload CreatedPayload) (Event, error) {
	return newEvent(taskID, TypeTaskCreated, payload)
}

// NewEdited builds a task.edited event for the given task.
func NewEdited(taskID string, payload EditedPayload) (Event, error) {
	return newEvent(taskID, TypeTaskEdited, payload)
}

// NewClosed builds a task.closed event for the given task.
func NewClosed(taskID string) (Event, error) {
	return Event{TaskID: taskID, Type: TypeTaskClosed}, nil
}

// NewReopened builds a task.reopened event for the given task.
func NewReopened(taskID string) (Event, error) {
	return Event{TaskID: taskID, Type: TypeTaskReopened}, nil
}

func newEvent(taskID string, t Type, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return Event{TaskID: taskID, Type: t, PayloadJSON: raw}, nil
}

// DecodeCreated parses a task.created payload.
func DecodeCreated(e Event) (CreatedPayload, error) {
	if e.Type != TypeTaskCreated {
		return CreatedPayload{}, fmt.Errorf("decode created payload: event type is %s", e.Type)
	}
	var payload CreatedPayload
	if err := json.Unmarshal(e.PayloadJSON, &payload); err != nil {
		return CreatedPayload{}, fmt.Errorf("unmarshal created payload: %w", err)
	}
	return payload, nil
}

// DecodeEdited parses a task.edited payload.
func DecodeEdited(e Event) (EditedPayload, error) {
	if e.Type != TypeTaskEdited {
		return EditedPayload{}, fmt.Errorf("decode edited payload: event type is %s", e.Type)
	}
	var payload EditedPayload
	if err := json.Unmarshal(e.PayloadJSON, &payload); err != nil {
		return EditedPayload{}, fmt.Errorf("unmarshal edited payload: %w", err)
	}
	return payload, nil
}
