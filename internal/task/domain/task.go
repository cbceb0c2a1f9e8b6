// Package domain defines the task aggregate and its command inputs.
package domain

import (
	"strings"
	"time"

	apperrors "github.com/dondakeshimo/taskmr/internal/platform/errors"
)

// Status represents the lifecycle state of a task.
type Status string

const (
	// StatusOpen marks a task still waiting to be done.
	StatusOpen Status = "open"
	// StatusClosed marks a task that was completed or dismissed.
	// Closed is not terminal: reopening is always legal.
	StatusClosed Status = "closed"
)

// IsValid reports whether the status is a known value.
func (s Status) IsValid() bool {
	return s == StatusOpen || s == StatusClosed
}

// Defaults taken over from the original scoring scheme.
const (
	DefaultPriority = 10
	DefaultCost     = 10
)

// State captures the task aggregate after replaying its events.
type State struct {
	ID          string
	DisplayID   int64
	Title       string
	Description string
	Priority    int
	Cost        int
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
	// Version is the sequence number of the last applied event.
	Version uint64
}

// Exists reports whether the aggregate has been created.
func (s State) Exists() bool {
	return s.Version > 0
}

// CreateInput carries the fields for creating a task.
type CreateInput struct {
	Title       string
	Description string
	// Priority and Cost fall back to the defaults when nil.
	Priority *int
	Cost     *int
}

// NormalizeCreateInput validates and fills defaults for task creation.
func NormalizeCreateInput(input CreateInput) (CreateInput, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return CreateInput{}, apperrors.New(apperrors.CodeTaskTitleEmpty, "task title is required")
	}
	input.Description = strings.TrimSpace(input.Description)

	if input.Priority == nil {
		p := DefaultPriority
		input.Priority = &p
	} else if *input.Priority < 0 {
		return CreateInput{}, apperrors.New(apperrors.CodeTaskInvalidPriority, "task priority must be zero or greater")
	}
	if input.Cost == nil {
		c := DefaultCost
		input.Cost = &c
	} else if *input.Cost < 0 {
		return CreateInput{}, apperrors.New(apperrors.CodeTaskInvalidCost, "task cost must be zero or greater")
	}
	return input, nil
}

// EditInput carries a partial update; nil fields are left unchanged.
type EditInput struct {
	Title       *string
	Description *string
	Priority    *int
	Cost        *int
}

// IsEmpty reports whether the edit carries no field changes.
func (e EditInput) IsEmpty() bool {
	return e.Title == nil && e.Description == nil && e.Priority == nil && e.Cost == nil
}

// NormalizeEditInput validates an edit request.
func NormalizeEditInput(input EditInput) (EditInput, error) {
	if input.IsEmpty() {
		return EditInput{}, apperrors.New(apperrors.CodeEditNoFields, "edit requires at least one field")
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return EditInput{}, apperrors.New(apperrors.CodeTaskTitleEmpty, "task title is required")
		}
		input.Title = &title
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		input.Description = &description
	}
	if input.Priority != nil && *input.Priority < 0 {
		return EditInput{}, apperrors.New(apperrors.CodeTaskInvalidPriority, "task priority must be zero or greater")
	}
	if input.Cost != nil && *input.Cost < 0 {
		return EditInput{}, apperrors.New(apperrors.CodeTaskInvalidCost, "task cost must be zero or greater")
	}
	return input, nil
}
