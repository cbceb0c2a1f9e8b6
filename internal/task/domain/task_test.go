package domain

import (
	"errors"
	"testing"

	apperrors "github.com/dondakeshimo/taskmr/internal/platform/errors"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestNormalizeCreateInput(t *testing.T) {
	tests := []struct {
		name         string
		input        CreateInput
		wantErr      apperrors.Code
		wantPriority int
		wantCost     int
	}{
		{
			name:         "defaults applied",
			input:        CreateInput{Title: "buy milk"},
			wantPriority: DefaultPriority,
			wantCost:     DefaultCost,
		},
		{
			name:         "explicit scores kept",
			input:        CreateInput{Title: "buy milk", Priority: intPtr(100), Cost: intPtr(3)},
			wantPriority: 100,
			wantCost:     3,
		},
		{
			name:    "blank title rejected",
			input:   CreateInput{Title: "   "},
			wantErr: apperrors.CodeTaskTitleEmpty,
		},
		{
			name:    "negative priority rejected",
			input:   CreateInput{Title: "t", Priority: intPtr(-1)},
			wantErr: apperrors.CodeTaskInvalidPriority,
		},
		{
			name:    "negative cost rejected",
			input:   CreateInput{Title: "t", Cost: intPtr(-1)},
			wantErr: apperrors.CodeTaskInvalidCost,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeCreateInput(tc.input)
			if tc.wantErr != "" {
				if !errors.Is(err, apperrors.New(tc.wantErr, "")) {
					t.Fatalf("expected code %s, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("normalize: %v", err)
			}
			if *got.Priority != tc.wantPriority {
				t.Fatalf("expected priority %d, got %d", tc.wantPriority, *got.Priority)
			}
			if *got.Cost != tc.wantCost {
				t.Fatalf("expected cost %d, got %d", tc.wantCost, *got.Cost)
			}
		})
	}
}

func TestNormalizeEditInput(t *testing.T) {
	if _, err := NormalizeEditInput(EditInput{}); !errors.Is(err, apperrors.New(apperrors.CodeEditNoFields, "")) {
		t.Fatalf("expected EDIT_NO_FIELDS, got %v", err)
	}
	if _, err := NormalizeEditInput(EditInput{Title: strPtr(" ")}); !errors.Is(err, apperrors.New(apperrors.CodeTaskTitleEmpty, "")) {
		t.Fatalf("expected TASK_TITLE_EMPTY, got %v", err)
	}

	got, err := NormalizeEditInput(EditInput{Title: strPtr("  trimmed  "), Cost: intPtr(0)})
	if err != nil {
		t.Fatalf("normalize edit: %v", err)
	}
	if *got.Title != "trimmed" {
		t.Fatalf("expected trimmed title, got %q", *got.Title)
	}
	if got.Priority != nil {
		t.Fatal("expected absent priority to stay nil")
	}
}

func TestStateExists(t *testing.T) {
	if (State{}).Exists() {
		t.Fatal("zero state must not exist")
	}
	if !(State{Version: 1}).Exists() {
		t.Fatal("state with version must exist")
	}
}

func TestStatusIsValid(t *testing.T) {
	if !StatusOpen.IsValid() || !StatusClosed.IsValid() {
		t.Fatal("expected open and closed to be valid")
	}
	if Status("archived").IsValid() {
		t.Fatal("unexpected valid status")
	}
}
