// Package simple implements the task command surface on a plain table.
//
// It is the non-event-sourced counterpart of the journal-backed service:
// same commands, same validation, same coded errors, but current state is the
// only thing stored. There is no history to replay or rebuild.
package simple

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/dondakeshimo/taskmr/internal/platform/errors"
	"github.com/dondakeshimo/taskmr/internal/platform/id"
	"github.com/dondakeshimo/taskmr/internal/task/domain"
	"github.com/dondakeshimo/taskmr/internal/task/storage"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
    display_id INTEGER PRIMARY KEY AUTOINCREMENT,
    task_id TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    priority INTEGER NOT NULL,
    cost INTEGER NOT NULL,
    status TEXT NOT NULL,
    version INTEGER NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
`

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Service is the table-backed Commander implementation.
type Service struct {
	sqlDB *sql.DB
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

// Open opens the table-backed service at the provided path and ensures the
// schema exists.
func Open(ctx context.Context, path string, opts ...Option) (*Service, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection sidesteps SQLITE_BUSY for this local write path.
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.ExecContext(ctx, schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &Service{
		sqlDB: sqlDB,
		clock: time.Now,
		newID: id.NewID,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// CloseStore closes the underlying database.
func (s *Service) CloseStore() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func notFound(displayID int64) error {
	return apperrors.WithMetadata(
		apperrors.CodeNotFound,
		fmt.Sprintf("task %d does not exist", displayID),
		map[string]string{"TaskID": fmt.Sprintf("%d", displayID)},
	)
}

func invalidOperation(displayID int64, action string, status domain.Status) error {
	return apperrors.WithMetadata(
		apperrors.CodeInvalidOperation,
		fmt.Sprintf("cannot %s task %d while %s", action, displayID, status),
		map[string]string{
			"TaskID": fmt.Sprintf("%d", displayID),
			"Action": action,
			"Status": string(status),
		},
	)
}

func storageErr(message string, cause error) error {
	return apperrors.Wrap(apperrors.CodeStorageFailure, message, cause)
}

const taskColumns = "display_id, task_id, title, description, priority, cost, status, version, created_at, updated_at"

func scanTask(row interface{ Scan(...any) error }) (storage.TaskRecord, error) {
	var (
		record    storage.TaskRecord
		status    string
		version   int64
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(
		&record.DisplayID,
		&record.TaskID,
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

func (s *Service) getTask(ctx context.Context, displayID int64) (storage.TaskRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE display_id = ?",
		displayID,
	)
	record, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.TaskRecord{}, notFound(displayID)
		}
		return storage.TaskRecord{}, storageErr("get task", err)
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
	now := s.clock().UTC().Truncate(time.Millisecond)

	result, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO tasks (task_id, title, description, priority, cost, status, version, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		taskID,
		normalized.Title,
		normalized.Description,
		*normalized.Priority,
		*normalized.Cost,
		string(domain.StatusOpen),
		toMillis(now),
		toMillis(now),
	)
	if err != nil {
		return storage.TaskRecord{}, storageErr("insert task", err)
	}
	displayID, err := result.LastInsertId()
	if err != nil {
		return storage.TaskRecord{}, storageErr("read display id", err)
	}

	return storage.TaskRecord{
		TaskID:      taskID,
		DisplayID:   displayID,
		Title:       normalized.Title,
		Description: normalized.Description,
		Priority:    *normalized.Priority,
		Cost:        *normalized.Cost,
		Status:      domain.StatusOpen,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Edit applies a partial update to an existing task. Closed tasks accept
// edits unless the service was configured otherwise.
func (s *Service) Edit(ctx context.Context, displayID int64, input domain.EditInput) (storage.TaskRecord, error) {
	normalized, err := domain.NormalizeEditInput(input)
	if err != nil {
		return storage.TaskRecord{}, err
	}

	record, err := s.getTask(ctx, displayID)
	if err != nil {
		return storage.TaskRecord{}, err
	}
	if s.editOnlyOpen && record.Status != domain.StatusOpen {
		return storage.TaskRecord{}, invalidOperation(displayID, "edit", record.Status)
	}

	if normalized.Title != nil {
		record.Title = *normalized.Title
	}
	if normalized.Description != nil {
		record.Description = *normalized.Description
	}
	if normalized.Priority != nil {
		record.Priority = *normalized.Priority
	}
	if normalized.Cost != nil {
		record.Cost = *normalized.Cost
	}
	record.UpdatedAt = s.clock().UTC().Truncate(time.Millisecond)

	// The version guard keeps concurrent writers from silently clobbering
	// each other, mirroring the journal-backed variant.
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE tasks SET title = ?, description = ?, priority = ?, cost = ?, version = version + 1, updated_at = ?
WHERE display_id = ? AND version = ?`,
		record.Title,
		record.Description,
		record.Priority,
		record.Cost,
		toMillis(record.UpdatedAt),
		displayID,
		int64(record.Version),
	)
	if err != nil {
		return storage.TaskRecord{}, storageErr("update task", err)
	}
	if err := s.requireGuardedWrite(result, displayID); err != nil {
		return storage.TaskRecord{}, err
	}

	record.Version++
	return record, nil
}

// Close marks an open task as closed.
func (s *Service) Close(ctx context.Context, displayID int64) (storage.TaskRecord, error) {
	return s.transition(ctx, displayID, "close", domain.StatusOpen, domain.StatusClosed)
}

// Reopen marks a closed task as open again.
func (s *Service) Reopen(ctx context.Context, displayID int64) (storage.TaskRecord, error) {
	return s.transition(ctx, displayID, "reopen", domain.StatusClosed, domain.StatusOpen)
}

func (s *Service) transition(ctx context.Context, displayID int64, action string, from, to domain.Status) (storage.TaskRecord, error) {
	record, err := s.getTask(ctx, displayID)
	if err != nil {
		return storage.TaskRecord{}, err
	}
	if record.Status != from {
		return storage.TaskRecord{}, invalidOperation(displayID, action, record.Status)
	}

	record.Status = to
	record.UpdatedAt = s.clock().UTC().Truncate(time.Millisecond)

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE tasks SET status = ?, version = version + 1, updated_at = ?
WHERE display_id = ? AND version = ? AND status = ?`,
		string(to),
		toMillis(record.UpdatedAt),
		displayID,
		int64(record.Version),
		string(from),
	)
	if err != nil {
		return storage.TaskRecord{}, storageErr(action+" task", err)
	}
	if err := s.requireGuardedWrite(result, displayID); err != nil {
		return storage.TaskRecord{}, err
	}

	record.Version++
	return record, nil
}

// requireGuardedWrite maps a missed guarded UPDATE to a concurrency conflict.
func (s *Service) requireGuardedWrite(result sql.Result, displayID int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return storageErr("read rows affected", err)
	}
	if affected == 0 {
		return apperrors.WrapWithMetadata(
			apperrors.CodeConcurrencyConflict,
			fmt.Sprintf("task %d changed underneath the update", displayID),
			map[string]string{"TaskID": fmt.Sprintf("%d", displayID)},
			storage.ErrConcurrencyConflict,
		)
	}
	return nil
}

// Get returns a single task by display id.
func (s *Service) Get(ctx context.Context, displayID int64) (storage.TaskRecord, error) {
	return s.getTask(ctx, displayID)
}

// List returns tasks matching the filter in display id order.
func (s *Service) List(ctx context.Context, filter storage.Filter) ([]storage.TaskRecord, error) {
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
