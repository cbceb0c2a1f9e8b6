// Package replay folds ordered task events into aggregate state.
//
// Replay is pure: it never touches storage and always yields the same state
// for the same event sequence. It is used for cold-start reconstruction,
// projection rebuilds, and verification that a projection matches the log.
package replay

import (
	"fmt"

	apperrors "github.com/dondakeshimo/taskmr/internal/platform/errors"
	"github.com/dondakeshimo/taskmr/internal/task/domain"
	"github.com/dondakeshimo/taskmr/internal/task/domain/event"
)

// illegal builds the fatal corruption error for a broken event sequence.
// Command handlers validate transitions before appending, so hitting this
// during replay means the log itself violates the state machine.
func illegal(taskID string, format string, args ...any) error {
	return apperrors.WithMetadata(
		apperrors.CodeIllegalTransition,
		fmt.Sprintf("task %s: %s", taskID, fmt.Sprintf(format, args...)),
		map[string]string{"TaskID": taskID},
	)
}

// Replay reduces an ordered event sequence to aggregate state.
//
// The sequence must be complete (seq 1..N, gap-free) and belong to a single
// task. An empty sequence yields the zero state, which reports
// Exists() == false.
func Replay(events []event.Event) (domain.State, error) {
	var state domain.State
	for _, evt := range events {
		next, err := Apply(state, evt)
		if err != nil {
			return domain.State{}, err
		}
		state = next
	}
	return state, nil
}

// Apply advances state by a single event, enforcing transition legality and
// gap-free sequencing.
func Apply(state domain.State, evt event.Event) (domain.State, error) {
	if err := evt.Validate(); err != nil {
		return domain.State{}, apperrors.Wrap(apperrors.CodeIllegalTransition, "invalid event in log", err)
	}
	if state.Exists() && evt.TaskID != state.ID {
		return domain.State{}, illegal(evt.TaskID, "event belongs to task %s", state.ID)
	}
	if evt.Seq != state.Version+1 {
		return domain.State{}, illegal(evt.TaskID, "sequence gap: expected %d, got %d", state.Version+1, evt.Seq)
	}

	switch evt.Type {
	case event.TypeTaskCreated:
		if state.Exists() {
			return domain.State{}, illegal(evt.TaskID, "created event on existing task")
		}
		payload, err := event.DecodeCreated(evt)
		if err != nil {
			return domain.State{}, apperrors.Wrap(apperrors.CodeIllegalTransition, "undecodable created payload", err)
		}
		state = domain.State{
			ID:          evt.TaskID,
			DisplayID:   payload.DisplayID,
			Title:       payload.Title,
			Description: payload.Description,
			Priority:    payload.Priority,
			Cost:        payload.Cost,
			Status:      domain.StatusOpen,
			CreatedAt:   evt.Timestamp,
		}

	case event.TypeTaskEdited:
		if !state.Exists() {
			return domain.State{}, illegal(evt.TaskID, "edited event on nonexistent task")
		}
		payload, err := event.DecodeEdited(evt)
		if err != nil {
			return domain.State{}, apperrors.Wrap(apperrors.CodeIllegalTransition, "undecodable edited payload", err)
		}
		if payload.Title != nil {
			state.Title = *payload.Title
		}
		if payload.Description != nil {
			state.Description = *payload.Description
		}
		if payload.Priority != nil {
			state.Priority = *payload.Priority
		}
		if payload.Cost != nil {
			state.Cost = *payload.Cost
		}

	case event.TypeTaskClosed:
		if !state.Exists() {
			return domain.State{}, illegal(evt.TaskID, "closed event on nonexistent task")
		}
		if state.Status != domain.StatusOpen {
			return domain.State{}, illegal(evt.TaskID, "closed event on %s task", state.Status)
		}
		state.Status = domain.StatusClosed

	case event.TypeTaskReopened:
		if !state.Exists() {
			return domain.State{}, illegal(evt.TaskID, "reopened event on nonexistent task")
		}
		if state.Status != domain.StatusClosed {
			return domain.State{}, illegal(evt.TaskID, "reopened event on %s task", state.Status)
		}
		state.Status = domain.StatusOpen

	default:
		return domain.State{}, illegal(evt.TaskID, "unknown event type %s", evt.Type)
	}

	state.Version = evt.Seq
	state.UpdatedAt = evt.Timestamp
	return state, nil
}
