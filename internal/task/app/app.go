// Package app implements task command handling.
//
// Commands load current state, validate the requested transition, and only
// then record the change. Business-rule failures (missing task, already
// closed) surface as coded errors before anything is written.
package app

import (
	"context"

	"github.com/dondakeshimo/taskmr/internal/task/domain"
	"github.com/dondakeshimo/taskmr/internal/task/storage"
)

// Commander is the command surface shared by the event-sourced service and
// the plain-table variant. Tasks are addressed by their CLI-facing display id.
type Commander interface {
	// Add creates a task and returns its stored record.
	Add(ctx context.Context, input domain.CreateInput) (storage.TaskRecord, error)
	// Edit applies a partial update to an existing task.
	Edit(ctx context.Context, displayID int64, input domain.EditInput) (storage.TaskRecord, error)
	// Close marks an open task as closed.
	Close(ctx context.Context, displayID int64) (storage.TaskRecord, error)
	// Reopen marks a closed task as open again.
	Reopen(ctx context.Context, displayID int64) (storage.TaskRecord, error)
	// Get returns a single task.
	Get(ctx context.Context, displayID int64) (storage.TaskRecord, error)
	// List returns tasks matching the filter in display id order.
	List(ctx context.Context, filter storage.Filter) ([]storage.TaskRecord, error)
}
