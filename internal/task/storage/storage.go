// Package storage defines the persistence boundary for the event-sourced
// task store: the append-only event journal and the projection read model.
package storage

import (
	"context"
	"time"

	apperrors "github.com/dondakeshimo/taskmr/internal/platform/errors"
	"github.com/dondakeshimo/taskmr/internal/task/domain"
	"github.com/dondakeshimo/taskmr/internal/task/domain/event"
)

// ErrNotFound indicates a requested persistence record is missing.
// Callers use this to differentiate between legitimate "no such task"
// states and transport or data corruption failures.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrConcurrencyConflict indicates an append with a stale expected version.
// The caller should reload state, re-validate, and retry; never overwrite.
var ErrConcurrencyConflict = apperrors.New(apperrors.CodeConcurrencyConflict, "event version conflict")

// TaskRecord captures the denormalized task snapshot that queries read.
// Its content must always equal the result of replaying the task's events.
type TaskRecord struct {
	TaskID      string
	DisplayID   int64
	Title       string
	Description string
	Priority    int
	Cost        int
	Status      domain.Status
	// Version is the sequence number of the last event applied.
	Version   uint64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Filter controls which tasks ListTasks returns.
type Filter struct {
	// Status restricts results to one lifecycle state when non-nil.
	Status *domain.Status
}

// Watermark records the last event sequence applied to the projection for
// one task. It is written in the same transaction as the projection row and
// is read by the verify maintenance path.
type Watermark struct {
	TaskID     string
	AppliedSeq uint64
	UpdatedAt  time.Time
}

// AppendRequest carries one event append plus the projection row that must
// become visible atomically with it.
type AppendRequest struct {
	// Event is appended at ExpectedVersion+1.
	Event event.Event
	// ExpectedVersion is the caller's view of the task's latest sequence
	// number (0 for a new task). A mismatch fails with ErrConcurrencyConflict.
	ExpectedVersion uint64
	// Record is the projection row computed for the post-event state.
	Record TaskRecord
}

// EventStore owns the append-only event journal. Events are immutable:
// there is no update or delete surface.
type EventStore interface {
	// AppendEvent appends the event and upserts the projection record in a
	// single transaction, returning the stored event with sequence and
	// timestamp set.
	AppendEvent(ctx context.Context, req AppendRequest) (event.Event, error)
	// ListEvents returns events for a task ordered by sequence ascending.
	ListEvents(ctx context.Context, taskID string, afterSeq uint64, limit int) ([]event.Event, error)
	// GetLatestEventSeq returns the latest sequence for a task, 0 when none.
	GetLatestEventSeq(ctx context.Context, taskID string) (uint64, error)
	// ListTaskIDs returns all task identities in first-event order.
	ListTaskIDs(ctx context.Context) ([]string, error)
}

// ProjectionStore owns the queryable read model kept in lockstep with the
// journal.
type ProjectionStore interface {
	// GetTask returns the projection row for a task or ErrNotFound.
	GetTask(ctx context.Context, taskID string) (TaskRecord, error)
	// GetTaskByDisplayID resolves the CLI-facing short id or ErrNotFound.
	GetTaskByDisplayID(ctx context.Context, displayID int64) (TaskRecord, error)
	// ListTasks returns matching tasks ordered by display id ascending
	// (creation order); the ordering is stable across calls.
	ListTasks(ctx context.Context, filter Filter) ([]TaskRecord, error)
	// NextDisplayID allocates the next CLI-facing short id.
	NextDisplayID(ctx context.Context) (int64, error)
	// GetWatermark returns the projection watermark for a task or ErrNotFound.
	GetWatermark(ctx context.Context, taskID string) (Watermark, error)
	// ReplaceProjections truncates the projection and watermark tables and
	// writes the provided records in one transaction (rebuild path).
	ReplaceProjections(ctx context.Context, records []TaskRecord) error
}

// Store is the composite persistence interface for the event-sourced
// implementation.
type Store interface {
	EventStore
	ProjectionStore
	Close() error
}
