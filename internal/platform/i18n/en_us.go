package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
var enUS = map[string]string{
	"UNKNOWN":               "An unexpected error occurred.",
	"TASK_TITLE_EMPTY":      "A task title is required.",
	"TASK_ID_EMPTY":         "A task id is required.",
	"TASK_INVALID_PRIORITY": "Priority must be zero or greater.",
	"TASK_INVALID_COST":     "Cost must be zero or greater.",
	"EDIT_NO_FIELDS":        "Nothing to edit: provide at least one field.",
	"INVALID_ARGUMENT":      "Invalid arguments: {{.Reason}}.",
	"NOT_FOUND":             "Task {{.TaskID}} was not found.",
	"INVALID_OPERATION":     "Task {{.TaskID}} cannot be {{.Action}}: it is already {{.Status}}.",
	"CONCURRENCY_CONFLICT":  "Task {{.TaskID}} changed underneath this command; reload and retry.",
	"ILLEGAL_TRANSITION":    "The event log for task {{.TaskID}} is corrupt; run taskmr-maintenance verify.",
	"STORAGE_FAILURE":       "The task store is unavailable.",
}
