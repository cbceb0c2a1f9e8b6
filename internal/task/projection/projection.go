// Package projection keeps the task read model in lockstep with the journal.
//
// The projection is derived state: the event journal is the source of truth
// and every record here must equal a pure replay of that task's events. The
// rebuild and verify paths below exist to restore and check that property.
package projection

import (
	"context"
	"errors"
	"fmt"

	"github.com/dondakeshimo/taskmr/internal/task/domain"
	"github.com/dondakeshimo/taskmr/internal/task/domain/replay"
	"github.com/dondakeshimo/taskmr/internal/task/storage"
)

// listPageSize bounds journal reads during replay walks.
const listPageSize = 200

// RecordFromState converts replayed aggregate state into a projection row.
func RecordFromState(state domain.State) storage.TaskRecord {
	return storage.TaskRecord{
		TaskID:      state.ID,
		DisplayID:   state.DisplayID,
		Title:       state.Title,
		Description: state.Description,
		Priority:    state.Priority,
		Cost:        state.Cost,
		Status:      state.Status,
		Version:     state.Version,
		CreatedAt:   state.CreatedAt,
		UpdatedAt:   state.UpdatedAt,
	}
}

// StateFromRecord converts a projection row back into aggregate state for the
// command-side fast path.
func StateFromRecord(record storage.TaskRecord) domain.State {
	return domain.State{
		ID:          record.TaskID,
		DisplayID:   record.DisplayID,
		Title:       record.Title,
		Description: record.Description,
		Priority:    record.Priority,
		Cost:        record.Cost,
		Status:      record.Status,
		Version:     record.Version,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

// ReplayTask folds the full journal for one task into aggregate state.
func ReplayTask(ctx context.Context, store storage.Store, taskID string) (domain.State, error) {
	var state domain.State
	var afterSeq uint64
	for {
		events, err := store.ListEvents(ctx, taskID, afterSeq, listPageSize)
		if err != nil {
			return domain.State{}, fmt.Errorf("list events task_id=%s: %w", taskID, err)
		}
		if len(events) == 0 {
			return state, nil
		}
		for _, evt := range events {
			next, err := replay.Apply(state, evt)
			if err != nil {
				return domain.State{}, err
			}
			state = next
		}
		afterSeq = state.Version
	}
}

// Rebuild replaces the entire projection with a fresh replay of the journal.
// It returns the number of tasks written.
func Rebuild(ctx context.Context, store storage.Store) (int, error) {
	taskIDs, err := store.ListTaskIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list task ids: %w", err)
	}

	records := make([]storage.TaskRecord, 0, len(taskIDs))
	for _, taskID := range taskIDs {
		state, err := ReplayTask(ctx, store, taskID)
		if err != nil {
			return 0, err
		}
		if !state.Exists() {
			continue
		}
		records = append(records, RecordFromState(state))
	}

	if err := store.ReplaceProjections(ctx, records); err != nil {
		return 0, fmt.Errorf("replace projections: %w", err)
	}
	return len(records), nil
}

// Divergence describes one task whose projection does not match its journal.
type Divergence struct {
	TaskID string
	Reason string
}

// Verify replays every task and compares the result against the stored
// projection and watermark. It returns one divergence per broken task; an
// empty result means the read model is consistent.
func Verify(ctx context.Context, store storage.Store) ([]Divergence, error) {
	taskIDs, err := store.ListTaskIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list task ids: %w", err)
	}

	var divergences []Divergence
	for _, taskID := range taskIDs {
		state, err := ReplayTask(ctx, store, taskID)
		if err != nil {
			return nil, err
		}
		if !state.Exists() {
			continue
		}
		expected := RecordFromState(state)

		record, err := store.GetTask(ctx, taskID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				divergences = append(divergences, Divergence{
					TaskID: taskID,
					Reason: "projection row is missing",
				})
				continue
			}
			return nil, fmt.Errorf("get task task_id=%s: %w", taskID, err)
		}

		if record != expected {
			divergences = append(divergences, Divergence{
				TaskID: taskID,
				Reason: fmt.Sprintf("projection row diverged at version %d, journal at %d", record.Version, expected.Version),
			})
			continue
		}

		mark, err := store.GetWatermark(ctx, taskID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				divergences = append(divergences, Divergence{
					TaskID: taskID,
					Reason: "projection watermark is missing",
				})
				continue
			}
			return nil, fmt.Errorf("get watermark task_id=%s: %w", taskID, err)
		}
		if mark.AppliedSeq != state.Version {
			divergences = append(divergences, Divergence{
				TaskID: taskID,
				Reason: fmt.Sprintf("watermark at seq %d, journal at %d", mark.AppliedSeq, state.Version),
			})
		}
	}

	return divergences, nil
}
