package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/dondakeshimo/taskmr/internal/platform/errors"
	"github.com/dondakeshimo/taskmr/internal/task/domain/event"
	"github.com/dondakeshimo/taskmr/internal/task/storage"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// storageErr wraps a driver failure in the coded error the CLI maps to an
// exit status.
func storageErr(message string, cause error) error {
	return apperrors.Wrap(apperrors.CodeStorageFailure, message, cause)
}

// AppendEvent appends an event at ExpectedVersion+1 and upserts the
// projection record and its watermark in the same transaction.
//
// A stale ExpectedVersion fails with storage.ErrConcurrencyConflict and
// leaves the database untouched.
func (s *Store) AppendEvent(ctx context.Context, req storage.AppendRequest) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	if s == nil || s.sqlDB == nil {
		return event.Event{}, fmt.Errorf("storage is not configured")
	}

	evt := req.Event
	if err := evt.Validate(); err != nil {
		return event.Event{}, err
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	evt.Timestamp = evt.Timestamp.UTC().Truncate(time.Millisecond)
	evt.Seq = req.ExpectedVersion + 1

	if req.Record.TaskID != evt.TaskID {
		return event.Event{}, fmt.Errorf("projection record task id mismatch")
	}
	if req.Record.Version != evt.Seq {
		return event.Event{}, fmt.Errorf("projection record version must equal appended seq")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return event.Event{}, storageErr("begin tx", err)
	}
	defer tx.Rollback()

	var latest uint64
	row := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) FROM task_events WHERE task_id = ?",
		evt.TaskID,
	)
	if err := row.Scan(&latest); err != nil {
		return event.Event{}, storageErr("get latest event seq", err)
	}
	if latest != req.ExpectedVersion {
		return event.Event{}, apperrors.WrapWithMetadata(
			apperrors.CodeConcurrencyConflict,
			fmt.Sprintf("task %s is at version %d, expected %d", evt.TaskID, latest, req.ExpectedVersion),
			map[string]string{"TaskID": evt.TaskID},
			storage.ErrConcurrencyConflict,
		)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO task_events (task_id, seq, event_type, timestamp, payload_json) VALUES (?, ?, ?, ?, ?)",
		evt.TaskID,
		int64(evt.Seq),
		string(evt.Type),
		toMillis(evt.Timestamp),
		evt.PayloadJSON,
	); err != nil {
		// The (task_id, seq) primary key is the last line of defense against
		// a concurrent writer that slipped past the version check.
		if isConstraintError(err) {
			return event.Event{}, apperrors.WrapWithMetadata(
				apperrors.CodeConcurrencyConflict,
				fmt.Sprintf("task %s already has an event at seq %d", evt.TaskID, evt.Seq),
				map[string]string{"TaskID": evt.TaskID},
				storage.ErrConcurrencyConflict,
			)
		}
		return event.Event{}, storageErr("append event", err)
	}

	if err := upsertTaskTx(ctx, tx, req.Record); err != nil {
		return event.Event{}, err
	}
	if err := saveWatermarkTx(ctx, tx, evt.TaskID, evt.Seq, evt.Timestamp); err != nil {
		return event.Event{}, err
	}

	if err := tx.Commit(); err != nil {
		return event.Event{}, storageErr("commit", err)
	}

	return evt, nil
}

// ListEvents returns events for a task ordered by sequence ascending.
func (s *Store) ListEvents(ctx context.Context, taskID string, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if taskID == "" {
		return nil, fmt.Errorf("task id is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT task_id, seq, event_type, timestamp, payload_json FROM task_events WHERE task_id = ? AND seq > ? ORDER BY seq ASC LIMIT ?",
		taskID, int64(afterSeq), int64(limit),
	)
	if err != nil {
		return nil, storageErr("list events", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var (
			evt       event.Event
			seq       int64
			eventType string
			timestamp int64
		)
		if err := rows.Scan(&evt.TaskID, &seq, &eventType, &timestamp, &evt.PayloadJSON); err != nil {
			return nil, storageErr("scan event", err)
		}
		evt.Seq = uint64(seq)
		evt.Type = event.Type(eventType)
		evt.Timestamp = fromMillis(timestamp)
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate events", err)
	}
	return events, nil
}

// GetLatestEventSeq returns the latest event sequence for a task, 0 when the
// task has no events.
func (s *Store) GetLatestEventSeq(ctx context.Context, taskID string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	if taskID == "" {
		return 0, fmt.Errorf("task id is required")
	}

	var latest uint64
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) FROM task_events WHERE task_id = ?",
		taskID,
	)
	if err := row.Scan(&latest); err != nil {
		return 0, storageErr("get latest event seq", err)
	}
	return latest, nil
}

// ListTaskIDs returns every task identity in the journal ordered by first
// event time, so rebuilds walk tasks in creation order.
func (s *Store) ListTaskIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT task_id FROM task_events WHERE seq = 1 ORDER BY timestamp ASC, task_id ASC",
	)
	if err != nil {
		return nil, storageErr("list task ids", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storageErr("scan task id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate task ids", err)
	}
	return ids, nil
}

func isConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT ||
		code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
