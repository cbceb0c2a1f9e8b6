package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	base := New(CodeNotFound, "record not found")
	wrapped := fmt.Errorf("load task: %w", Wrap(CodeNotFound, "task missing", stderrors.New("sql: no rows")))

	if !stderrors.Is(wrapped, base) {
		t.Fatal("expected wrapped error to match by code")
	}

	other := New(CodeInvalidOperation, "task already closed")
	if stderrors.Is(wrapped, other) {
		t.Fatal("expected different codes not to match")
	}
}

func TestUnwrapReturnsCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(CodeStorageFailure, "append event", cause)

	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause to be reachable via errors.Is")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeTaskTitleEmpty, ExitUsage},
		{CodeEditNoFields, ExitUsage},
		{CodeNotFound, ExitNotFound},
		{CodeInvalidOperation, ExitInvalid},
		{CodeConcurrencyConflict, ExitConflict},
		{CodeIllegalTransition, ExitCorrupt},
		{CodeStorageFailure, ExitStorageFailure},
		{CodeUnknown, 1},
	}
	for _, tc := range tests {
		if got := tc.code.ExitCode(); got != tc.want {
			t.Errorf("%s: expected exit code %d, got %d", tc.code, tc.want, got)
		}
	}
}
