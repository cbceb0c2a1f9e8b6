package simple

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	apperrors "github.com/dondakeshimo/taskmr/internal/platform/errors"
	"github.com/dondakeshimo/taskmr/internal/task/domain"
	"github.com/dondakeshimo/taskmr/internal/task/storage"
)

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	service, err := Open(context.Background(), filepath.Join(t.TempDir(), "tasks.db"), opts...)
	if err != nil {
		t.Fatalf("open service: %v", err)
	}
	t.Cleanup(func() {
		if err := service.CloseStore(); err != nil {
			t.Errorf("close service: %v", err)
		}
	})
	return service
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestAddAssignsSequentialDisplayIDs(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	first, err := service.Add(ctx, domain.CreateInput{Title: "first"})
	if err != nil {
		t.Fatalf("add first: %v", err)
	}
	second, err := service.Add(ctx, domain.CreateInput{Title: "second"})
	if err != nil {
		t.Fatalf("add second: %v", err)
	}

	if first.DisplayID != 1 || second.DisplayID != 2 {
		t.Fatalf("expected display ids 1 and 2, got %d and %d", first.DisplayID, second.DisplayID)
	}
	if first.Priority != domain.DefaultPriority || first.Cost != domain.DefaultCost {
		t.Fatalf("expected default scores, got %+v", first)
	}
	if first.TaskID == second.TaskID {
		t.Fatal("task identities must be unique")
	}
}

func TestAddRejectsBlankTitle(t *testing.T) {
	service := newTestService(t)
	_, err := service.Add(context.Background(), domain.CreateInput{Title: " "})
	if !errors.Is(err, apperrors.New(apperrors.CodeTaskTitleEmpty, "")) {
		t.Fatalf("expected TASK_TITLE_EMPTY, got %v", err)
	}
}

func TestCloseLifecycle(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	created, err := service.Add(ctx, domain.CreateInput{Title: "Buy milk"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	closed, err := service.Close(ctx, created.DisplayID)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.Status != domain.StatusClosed || closed.Version != 2 {
		t.Fatalf("expected closed at version 2, got %+v", closed)
	}

	_, err = service.Close(ctx, created.DisplayID)
	if !errors.Is(err, apperrors.New(apperrors.CodeInvalidOperation, "")) {
		t.Fatalf("expected INVALID_OPERATION, got %v", err)
	}

	reopened, err := service.Reopen(ctx, created.DisplayID)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Status != domain.StatusOpen || reopened.Version != 3 {
		t.Fatalf("expected open at version 3, got %+v", reopened)
	}
}

func TestCloseNonexistentTask(t *testing.T) {
	service := newTestService(t)
	_, err := service.Close(context.Background(), 42)
	if !errors.Is(err, apperrors.New(apperrors.CodeNotFound, "")) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestEditUpdatesOnlyProvidedFields(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	created, err := service.Add(ctx, domain.CreateInput{
		Title:       "Buy milk",
		Description: "2 liters",
		Priority:    intPtr(50),
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	edited, err := service.Edit(ctx, created.DisplayID, domain.EditInput{Cost: intPtr(3)})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.Cost != 3 || edited.Title != "Buy milk" || edited.Priority != 50 {
		t.Fatalf("unexpected record after edit: %+v", edited)
	}
	if edited.Version != 2 {
		t.Fatalf("expected version 2, got %d", edited.Version)
	}

	stored, err := service.Get(ctx, created.DisplayID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Cost != 3 || stored.Version != 2 {
		t.Fatalf("edit not persisted: %+v", stored)
	}
}

func TestEditRejectsEmptyInput(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	created, err := service.Add(ctx, domain.CreateInput{Title: "Buy milk"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	_, err = service.Edit(ctx, created.DisplayID, domain.EditInput{})
	if !errors.Is(err, apperrors.New(apperrors.CodeEditNoFields, "")) {
		t.Fatalf("expected EDIT_NO_FIELDS, got %v", err)
	}
}

func TestEditOnlyOpenRejectsClosedTask(t *testing.T) {
	service := newTestService(t, WithEditOnlyOpen(true))
	ctx := context.Background()

	created, err := service.Add(ctx, domain.CreateInput{Title: "Buy milk"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := service.Close(ctx, created.DisplayID); err != nil {
		t.Fatalf("close: %v", err)
	}

	_, err = service.Edit(ctx, created.DisplayID, domain.EditInput{Title: strPtr("nope")})
	if !errors.Is(err, apperrors.New(apperrors.CodeInvalidOperation, "")) {
		t.Fatalf("expected INVALID_OPERATION, got %v", err)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	first, err := service.Add(ctx, domain.CreateInput{Title: "first"})
	if err != nil {
		t.Fatalf("add first: %v", err)
	}
	if _, err := service.Add(ctx, domain.CreateInput{Title: "second"}); err != nil {
		t.Fatalf("add second: %v", err)
	}
	if _, err := service.Close(ctx, first.DisplayID); err != nil {
		t.Fatalf("close first: %v", err)
	}

	closedStatus := domain.StatusClosed
	closed, err := service.List(ctx, storage.Filter{Status: &closedStatus})
	if err != nil {
		t.Fatalf("list closed: %v", err)
	}
	if len(closed) != 1 || closed[0].Title != "first" {
		t.Fatalf("expected only first task closed, got %+v", closed)
	}

	all, err := service.List(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 || all[0].DisplayID != 1 || all[1].DisplayID != 2 {
		t.Fatalf("expected display id order, got %+v", all)
	}
}
