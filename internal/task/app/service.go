package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	apperrors "github.com/dondakeshimo/taskmr/internal/platform/errors"
	"github.com/dondakeshimo/taskmr/internal/platform/id"
	"github.com/dondakeshimo/taskmr/internal/task/domain"
	"github.com/dondakeshimo/taskmr/internal/task/domain/event"
	"github.com/dondakeshimo/taskmr/internal/task/domain/replay"
	"github.com/dondakeshimo/taskmr/internal/task/projection"
	"github.com/dondakeshimo/taskmr/internal/task/storage"
)

// Service is the event-sourced Commander implementation. Every mutation is
// an event append guarded by the task's expected version.
type Service struct {
	store storage.Store
	clock func() time.Time
	newID func() (string, error)
	// editOnlyOpen restricts edits to open tasks when set.
	editOnlyOpen bool
}

// Option configures service behavior.
type Option func(*Service)

// WithClock overrides the time source, used by tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// WithIDGenerator overrides task identity generation, used by tests.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

// WithEditOnlyOpen restricts edits to open tasks. The default allows editing
// closed tasks.
func WithEditOnlyOpen(enabled bool) Option {
	return func(s *Service) {
		s.editOnlyOpen = enabled
	}
}

// NewService creates an event-sourced command service.
func NewService(store storage.Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		clock: time.Now,
		newID: id.NewID,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func notFound(displayID int64) error {
	return apperrors.WithMetadata(
		apperrors.CodeNotFound,
		fmt.Sprintf("task %d does not exist", displayID),
		map[string]string{"TaskID": strconv.FormatInt(displayID, 10)},
	)
}

func invalidOperation(displayID int64, action string, status domain.Status) error {
	return apperrors.WithMetadata(
		apperrors.CodeInvalidOperation,
		fmt.Sprintf("cannot %s task %d while %s", action, displayID, status),
		map[string]string{
			"TaskID": strconv.FormatInt(displayID, 10),
			"Action": action,
			"Status": string(status),
		},
	)
}

// loadState resolves a display id to current aggregate state.
//
// The projection row is the fast path. When the journal has advanced past the
// row's version the task is replayed from events, so a lagging projection
// never feeds a command stale state.
func (s *Service) loadState(ctx context.Context, displayID int64) (domain.State, error) {
	record, err := s.store.GetTaskByDisplayID(ctx, displayID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.State{}, notFound(displayID)
		}
		return domain.State{}, err
	}

	latest, err := s.store.GetLatestEventSeq(ctx, record.TaskID)
	if err != nil {
		return domain.State{}, err
	}
	if latest == record.Version {
		return projection.StateFromRecord(record), nil
	}

	state, err := projection.ReplayTask(ctx, s.store, record.TaskID)
	if err != nil {
		return domain.State{}, err
	}
	if !state.Exists() {
		return domain.State{}, notFound(displayID)
	}
	return state, nil
}

// append folds the event onto prior state and persists event plus projection
// record atomically at the prior version.
func (s *Service) append(ctx context.Context, prior domain.State, evt event.Event) (storage.TaskRecord, error) {
	evt.Seq = prior.Version + 1
	evt.Timestamp = s.clock().UTC().Truncate(time.Millisecond)

	next, err := replay.Apply(prior, evt)
	if err != nil {
		return storage.TaskRecord{}, err
	}

	record := projection.RecordFromState(next)
	if _, err := s.store.AppendEvent(ctx, storage.AppendRequest{
		Event:           evt,
		ExpectedVersion: prior.Version,
		Record:          record,
	}); err != nil {
		return storage.TaskRecord{}, err
	}
	return record, nil
}

// Add creates a task. Priority and cost fall back to their defaults when the
// input leaves them unset.
func (s *Service) Add(ctx context.Context, input domain.CreateInput) (storage.TaskRecord, error) {
	normalized, err := domain.NormalizeCreateInput(input)
	if err != nil {
		return storage.TaskRecord{}, err
	}

	taskID, err := s.newID()
	if err != nil {
		return storage.TaskRecord{}, fmt.Errorf("generate task id: %w", err)
	}
	displayID, err := s.store.NextDisplayID(ctx)
	if err != nil {
		return storage.TaskRecord{}, err
	}

	evt, err := event.NewCreated(taskID, event.CreatedPayload{
		Title:       normalized.Title,
		Description: normalized.Description,
		Priority:    *normalized.Priority,
		Cost:        *normalized.Cost,
		DisplayID:   displayID,
	})
	if err != nil {
		return storage.TaskRecord{}, err
	}

	return s.append(ctx, domain.State{}, evt)
}

// Edit applies a partial update to an existing task. Closed tasks accept
// edits unless the service was configured otherwise.
func (s *Service) Edit(ctx context.Context, displayID int64, input domain.EditInput) (storage.TaskRecord, error) {
	normalized, err := domain.NormalizeEditInput(input)
	if err != nil {
		return storage.TaskRecord{}, err
	}

	state, err := s.loadState(ctx, displayID)
	if err != nil {
		return storage.TaskRecord{}, err
	}
	if s.editOnlyOpen && state.Status != domain.StatusOpen {
		return storage.TaskRecord{}, invalidOperation(displayID, "edit", state.Status)
	}

	evt, err := event.NewEdited(state.ID, event.EditedPayload{
		Title:       normalized.Title,
		Description: normalized.Description,
		Priority:    normalized.Priority,
		Cost:        normalized.Cost,
	})
	if err != nil {
		return storage.TaskRecord{}, err
	}

	return s.append(ctx, state, evt)
}

// Close marks an open task as closed. Closing a closed task is rejected
// before anything is appended.
func (s *Service) Close(ctx context.Context, displayID int64) (storage.TaskRecord, error) {
	state, err := s.loadState(ctx, displayID)
	if err != nil {
		return storage.TaskRecord{}, err
	}
	if state.Status != domain.StatusOpen {
		return storage.TaskRecord{}, invalidOperation(displayID, "close", state.Status)
	}

	evt, err := event.NewClosed(state.ID)
	if err != nil {
		return storage.TaskRecord{}, err
	}
	return s.append(ctx, state, evt)
}

// Reopen marks a closed task as open again.
func (s *Service) Reopen(ctx context.Context, displayID int64) (storage.TaskRecord, error) {
	state, err := s.loadState(ctx, displayID)
	if err != nil {
		return storage.TaskRecord{}, err
	}
	if state.Status != domain.StatusClosed {
		return storage.TaskRecord{}, invalidOperation(displayID, "reopen", state.Status)
	}

	evt, err := event.NewReopened(state.ID)
	if err != nil {
		return storage.TaskRecord{}, err
	}
	return s.append(ctx, state, evt)
}

// Get returns a single task by display id.
func (s *Service) Get(ctx context.Context, displayID int64) (storage.TaskRecord, error) {
	state, err := s.loadState(ctx, displayID)
	if err != nil {
		return storage.TaskRecord{}, err
	}
	return projection.RecordFromState(state), nil
}

// List returns tasks matching the filter in display id order.
func (s *Service) List(ctx context.Context, filter storage.Filter) ([]storage.TaskRecord, error) {
	return s.store.ListTasks(ctx, filter)
}
