package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"

	apperrors "github.com/dondakeshimo/taskmr/internal/platform/errors"
	"github.com/dondakeshimo/taskmr/internal/task/app"
	"github.com/dondakeshimo/taskmr/internal/task/domain"
	"github.com/dondakeshimo/taskmr/internal/task/storage"
)

// commandFunc runs one subcommand against the Commander.
type commandFunc func(ctx context.Context, commander app.Commander, args []string, stdout io.Writer) error

var commands = map[string]commandFunc{
	"add":    runAdd,
	"edit":   runEdit,
	"close":  runClose,
	"reopen": runReopen,
	"show":   runShow,
	"list":   runList,
}

func usageErr(message string) error {
	return apperrors.WithMetadata(
		apperrors.CodeInvalidArgument,
		message,
		map[string]string{"Reason": message},
	)
}

// parseDisplayID reads the positional task id argument.
func parseDisplayID(fs *flag.FlagSet) (int64, error) {
	raw := fs.Arg(0)
	if raw == "" {
		return 0, apperrors.New(apperrors.CodeTaskIDEmpty, "a task id argument is required")
	}
	displayID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || displayID <= 0 {
		return 0, usageErr(fmt.Sprintf("invalid task id %q", raw))
	}
	return displayID, nil
}

func runAdd(ctx context.Context, commander app.Commander, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	description := fs.String("description", "", "description of the task")
	priority := fs.Int("priority", 0, "priority of the task")
	cost := fs.Int("cost", 0, "cost of the task")
	if err := fs.Parse(args); err != nil {
		return usageErr(err.Error())
	}

	input := domain.CreateInput{
		Title:       fs.Arg(0),
		Description: *description,
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "priority":
			input.Priority = priority
		case "cost":
			input.Cost = cost
		}
	})

	record, err := commander.Add(ctx, input)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "added task %d: %s\n", record.DisplayID, record.Title)
	return nil
}

func runEdit(ctx context.Context, commander app.Commander, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	title := fs.String("title", "", "new title")
	description := fs.String("description", "", "new description")
	priority := fs.Int("priority", 0, "new priority")
	cost := fs.Int("cost", 0, "new cost")
	if err := fs.Parse(args); err != nil {
		return usageErr(err.Error())
	}

	displayID, err := parseDisplayID(fs)
	if err != nil {
		return err
	}

	// Only flags the user actually set become part of the edit.
	var input domain.EditInput
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			input.Title = title
		case "description":
			input.Description = description
		case "priority":
			input.Priority = priority
		case "cost":
			input.Cost = cost
		}
	})

	record, err := commander.Edit(ctx, displayID, input)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "edited task %d\n", record.DisplayID)
	return nil
}

func runClose(ctx context.Context, commander app.Commander, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("close", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return usageErr(err.Error())
	}
	displayID, err := parseDisplayID(fs)
	if err != nil {
		return err
	}

	record, err := commander.Close(ctx, displayID)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "closed task %d: %s\n", record.DisplayID, record.Title)
	return nil
}

func runReopen(ctx context.Context, commander app.Commander, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("reopen", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return usageErr(err.Error())
	}
	displayID, err := parseDisplayID(fs)
	if err != nil {
		return err
	}

	record, err := commander.Reopen(ctx, displayID)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "reopened task %d: %s\n", record.DisplayID, record.Title)
	return nil
}

func runShow(ctx context.Context, commander app.Commander, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return usageErr(err.Error())
	}
	displayID, err := parseDisplayID(fs)
	if err != nil {
		return err
	}

	record, err := commander.Get(ctx, displayID)
	if err != nil {
		return err
	}
	renderTask(stdout, record)
	return nil
}

func runList(ctx context.Context, commander app.Commander, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	status := fs.String("status", "open", "filter by status: open, closed, or all")
	if err := fs.Parse(args); err != nil {
		return usageErr(err.Error())
	}

	var filter storage.Filter
	switch *status {
	case "all":
	case string(domain.StatusOpen):
		open := domain.StatusOpen
		filter.Status = &open
	case string(domain.StatusClosed):
		closed := domain.StatusClosed
		filter.Status = &closed
	default:
		return usageErr(fmt.Sprintf("invalid status %q: want open, closed, or all", *status))
	}

	records, err := commander.List(ctx, filter)
	if err != nil {
		return err
	}
	return renderTaskTable(stdout, records)
}
