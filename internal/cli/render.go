package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dondakeshimo/taskmr/internal/task/storage"
)

// renderTaskTable prints tasks in the aligned table layout.
func renderTaskTable(w io.Writer, records []storage.TaskRecord) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTitle\tPriority\tCost\tStatus")
	for _, record := range records {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\n",
			record.DisplayID,
			record.Title,
			record.Priority,
			record.Cost,
			record.Status,
		)
	}
	return tw.Flush()
}

// renderTask prints the detail view for a single task.
func renderTask(w io.Writer, record storage.TaskRecord) {
	fmt.Fprintf(w, "ID:          %d\n", record.DisplayID)
	fmt.Fprintf(w, "Title:       %s\n", record.Title)
	if record.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", record.Description)
	}
	fmt.Fprintf(w, "Priority:    %d\n", record.Priority)
	fmt.Fprintf(w, "Cost:        %d\n", record.Cost)
	fmt.Fprintf(w, "Status:      %s\n", record.Status)
	fmt.Fprintf(w, "Version:     %d\n", record.Version)
	fmt.Fprintf(w, "Created:     %s\n", record.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Updated:     %s\n", record.UpdatedAt.Format("2006-01-02 15:04:05"))
}
