package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dondakeshimo/taskmr/internal/task/domain"
	"github.com/dondakeshimo/taskmr/internal/task/storage"
)

const taskColumns = "task_id, display_id, title, description, priority, cost, status, version, created_at, updated_at"

func scanTask(row interface{ Scan(...any) error }) (storage.TaskRecord, error) {
	var (
		record    storage.TaskRecord
		status    string
		version   int64
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(
		&record.TaskID,
		&record.DisplayID,
		&record.Title,
		&record.Description,
		&record.Priority,
		&record.Cost,
		&status,
		&version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return storage.TaskRecord{}, err
	}
	record.Status = domain.Status(status)
	record.Version = uint64(version)
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

// upsertTaskTx writes a projection row, guarded so a stale record never
// overwrites a newer one. The guard makes projection replays idempotent.
func upsertTaskTx(ctx context.Context, tx *sql.Tx, record storage.TaskRecord) error {
	if record.TaskID == "" {
		return fmt.Errorf("task id is required")
	}
	if !record.Status.IsValid() {
		return fmt.Errorf("task status %q is invalid", record.Status)
	}

	_, err := tx.ExecContext(ctx, `
INSERT INTO tasks (task_id, display_id, title, description, priority, cost, status, version, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (task_id) DO UPDATE SET
    display_id = excluded.display_id,
    title = excluded.title,
    description = excluded.description,
    priority = excluded.priority,
    cost = excluded.cost,
    status = excluded.status,
    version = excluded.version,
    created_at = excluded.created_at,
    updated_at = excluded.updated_at
WHERE excluded.version > tasks.version`,
		record.TaskID,
		record.DisplayID,
		record.Title,
		record.Description,
		record.Priority,
		record.Cost,
		string(record.Status),
		int64(record.Version),
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		return storageErr("upsert task", err)
	}
	return nil
}

// saveWatermarkTx records the last event sequence applied to the projection.
func saveWatermarkTx(ctx context.Context, tx *sql.Tx, taskID string, appliedSeq uint64, updatedAt time.Time) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO projection_watermarks (task_id, applied_seq, updated_at)
VALUES (?, ?, ?)
ON CONFLICT (task_id) DO UPDATE SET
    applied_seq = excluded.applied_seq,
    updated_at = excluded.updated_at
WHERE excluded.applied_seq > projection_watermarks.applied_seq`,
		taskID,
		int64(appliedSeq),
		toMillis(updatedAt),
	)
	if err != nil {
		return storageErr("save watermark", err)
	}
	return nil
}

// GetTask returns the projection row for a task.
func (s *Store) GetTask(ctx context.Context, taskID string) (storage.TaskRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.TaskRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.TaskRecord{}, fmt.Errorf("storage is not configured")
	}
	if taskID == "" {
		return storage.TaskRecord{}, fmt.Errorf("task id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE task_id = ?",
		taskID,
	)
	record, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.TaskRecord{}, storage.ErrNotFound
		}
		return storage.TaskRecord{}, storageErr("get task", err)
	}
	return record, nil
}

// GetTaskByDisplayID resolves a CLI-facing short id to its projection row.
func (s *Store) GetTaskByDisplayID(ctx context.Context, displayID int64) (storage.TaskRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.TaskRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.TaskRecord{}, fmt.Errorf("storage is not configured")
	}
	if displayID <= 0 {
		return storage.TaskRecord{}, storage.ErrNotFound
	}

	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE display_id = ?",
		displayID,
	)
	record, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.TaskRecord{}, storage.ErrNotFound
		}
		return storage.TaskRecord{}, storageErr("get task by display id", err)
	}
	return record, nil
}

// ListTasks returns matching tasks ordered by display id ascending.
func (s *Store) ListTasks(ctx context.Context, filter storage.Filter) ([]storage.TaskRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	query := "SELECT " + taskColumns + " FROM tasks"
	var params []any
	if filter.Status != nil {
		if !filter.Status.IsValid() {
			return nil, fmt.Errorf("task status %q is invalid", *filter.Status)
		}
		query += " WHERE status = ?"
		params = append(params, string(*filter.Status))
	}
	query += " ORDER BY display_id ASC"

	rows, err := s.sqlDB.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, storageErr("list tasks", err)
	}
	defer rows.Close()

	var records []storage.TaskRecord
	for rows.Next() {
		record, err := scanTask(rows)
		if err != nil {
			return nil, storageErr("scan task", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate tasks", err)
	}
	return records, nil
}

// NextDisplayID allocates the next CLI-facing short id. Allocated ids are
// never reused, even when task creation fails afterwards.
func (s *Store) NextDisplayID(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, storageErr("begin tx", err)
	}
	defer tx.Rollback()

	var next int64
	row := tx.QueryRowContext(ctx, "SELECT next_id FROM display_id_seq WHERE id = 1")
	if err := row.Scan(&next); err != nil {
		return 0, storageErr("get next display id", err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE display_id_seq SET next_id = next_id + 1 WHERE id = 1"); err != nil {
		return 0, storageErr("increment display id", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, storageErr("commit", err)
	}
	return next, nil
}

// GetWatermark returns the projection watermark for a task.
func (s *Store) GetWatermark(ctx context.Context, taskID string) (storage.Watermark, error) {
	if err := ctx.Err(); err != nil {
		return storage.Watermark{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Watermark{}, fmt.Errorf("storage is not configured")
	}
	if taskID == "" {
		return storage.Watermark{}, fmt.Errorf("task id is required")
	}

	var (
		mark       storage.Watermark
		appliedSeq int64
		updatedAt  int64
	)
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT task_id, applied_seq, updated_at FROM projection_watermarks WHERE task_id = ?",
		taskID,
	)
	if err := row.Scan(&mark.TaskID, &appliedSeq, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Watermark{}, storage.ErrNotFound
		}
		return storage.Watermark{}, storageErr("get watermark", err)
	}
	mark.AppliedSeq = uint64(appliedSeq)
	mark.UpdatedAt = fromMillis(updatedAt)
	return mark, nil
}

// ReplaceProjections truncates the projection tables and writes the provided
// records in one transaction. The event journal is never touched.
func (s *Store) ReplaceProjections(ctx context.Context, records []storage.TaskRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin tx", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks"); err != nil {
		return storageErr("clear tasks", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM projection_watermarks"); err != nil {
		return storageErr("clear watermarks", err)
	}

	for _, record := range records {
		if err := upsertTaskTx(ctx, tx, record); err != nil {
			return err
		}
		if err := saveWatermarkTx(ctx, tx, record.TaskID, record.Version, record.UpdatedAt); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit", err)
	}
	return nil
}
