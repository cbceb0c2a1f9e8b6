package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Validation errors
	CodeTaskTitleEmpty      Code = "TASK_TITLE_EMPTY"
	CodeTaskIDEmpty         Code = "TASK_ID_EMPTY"
	CodeTaskInvalidPriority Code = "TASK_INVALID_PRIORITY"
	CodeTaskInvalidCost     Code = "TASK_INVALID_COST"
	CodeEditNoFields        Code = "EDIT_NO_FIELDS"
	CodeInvalidArgument     Code = "INVALID_ARGUMENT"

	// Command errors
	CodeNotFound         Code = "NOT_FOUND"
	CodeInvalidOperation Code = "INVALID_OPERATION"

	// Store errors
	CodeConcurrencyConflict Code = "CONCURRENCY_CONFLICT"
	CodeIllegalTransition   Code = "ILLEGAL_TRANSITION"
	CodeStorageFailure      Code = "STORAGE_FAILURE"
)

// Process exit codes for the CLI surface.
const (
	ExitOK             = 0
	ExitUsage          = 2
	ExitNotFound       = 3
	ExitInvalid        = 4
	ExitConflict       = 5
	ExitCorrupt        = 6
	ExitStorageFailure = 7
)

// ExitCode maps domain codes to process exit codes.
func (c Code) ExitCode() int {
	switch c {
	// Usage - validation failures, bad input
	case CodeTaskTitleEmpty,
		CodeTaskIDEmpty,
		CodeTaskInvalidPriority,
		CodeTaskInvalidCost,
		CodeEditNoFields,
		CodeInvalidArgument:
		return ExitUsage

	// NotFound - the task does not exist
	case CodeNotFound:
		return ExitNotFound

	// Invalid - current state does not allow the operation
	case CodeInvalidOperation:
		return ExitInvalid

	// Conflict - optimistic version mismatch, retryable
	case CodeConcurrencyConflict:
		return ExitConflict

	// Corrupt - the event log violates the state machine, fatal
	case CodeIllegalTransition:
		return ExitCorrupt

	case CodeStorageFailure:
		return ExitStorageFailure

	default:
		return 1
	}
}
