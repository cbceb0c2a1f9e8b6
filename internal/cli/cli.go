// Package cli implements the taskmr command-line surface.
//
// Subcommands parse flags, invoke the configured Commander, and render the
// result. User-facing failures are localized through the i18n catalogs and
// mapped to stable process exit codes.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel"

	platformcmd "github.com/dondakeshimo/taskmr/internal/platform/cmd"
	apperrors "github.com/dondakeshimo/taskmr/internal/platform/errors"
	"github.com/dondakeshimo/taskmr/internal/platform/i18n"
	"github.com/dondakeshimo/taskmr/internal/task/app"
	"github.com/dondakeshimo/taskmr/internal/task/simple"
	"github.com/dondakeshimo/taskmr/internal/task/storage/sqlite"
)

// Backend selects which Commander implementation serves commands.
const (
	BackendEvents = "events"
	BackendTable  = "table"
)

// Config carries the environment-driven CLI settings.
type Config struct {
	// DBPath locates the event-sourced store. Empty resolves to
	// ~/.taskmr/taskmr.db.
	DBPath string `env:"TASKMR_DB_PATH"`
	// TableDBPath locates the plain-table store. Empty resolves to
	// ~/.taskmr/taskmr-table.db.
	TableDBPath string `env:"TASKMR_TABLE_DB_PATH"`
	// Backend picks the command implementation: events or table.
	Backend string `env:"TASKMR_BACKEND" envDefault:"events"`
	// EditOnlyOpen restricts edit to open tasks.
	EditOnlyOpen bool `env:"TASKMR_EDIT_ONLY_OPEN" envDefault:"false"`
	// Locale selects the message catalog, e.g. en-US or ja-JP.
	Locale string `env:"TASKMR_LOCALE"`
}

// resolvePath fills the default store location under the user's home
// directory and ensures the parent directory exists.
func resolvePath(configured, fallback string) (string, error) {
	path := strings.TrimSpace(configured)
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		path = filepath.Join(home, ".taskmr", fallback)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create store dir: %w", err)
	}
	return path, nil
}

// newCommander builds the Commander selected by config. The returned closer
// releases the underlying store.
func newCommander(ctx context.Context, cfg Config) (app.Commander, func() error, error) {
	switch cfg.Backend {
	case BackendEvents, "":
		path, err := resolvePath(cfg.DBPath, "taskmr.db")
		if err != nil {
			return nil, nil, err
		}
		store, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		var opts []app.Option
		if cfg.EditOnlyOpen {
			opts = append(opts, app.WithEditOnlyOpen(true))
		}
		return app.NewService(store, opts...), store.Close, nil

	case BackendTable:
		path, err := resolvePath(cfg.TableDBPath, "taskmr-table.db")
		if err != nil {
			return nil, nil, err
		}
		var opts []simple.Option
		if cfg.EditOnlyOpen {
			opts = append(opts, simple.WithEditOnlyOpen(true))
		}
		service, err := simple.Open(ctx, path, opts...)
		if err != nil {
			return nil, nil, err
		}
		return service, service.CloseStore, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q: want %s or %s", cfg.Backend, BackendEvents, BackendTable)
	}
}

const usage = `Usage: taskmr <command> [arguments]

Commands:
  add      add a task
  edit     edit a task
  close    close an open task
  reopen   reopen a closed task
  show     show one task
  list     list tasks
`

// Run executes one CLI invocation and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		fmt.Fprintln(stderr, err)
		return apperrors.ExitUsage
	}
	catalog := i18n.GetCatalog(cfg.Locale)

	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return apperrors.ExitUsage
	}
	name, rest := args[0], args[1:]

	command, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", name, usage)
		return apperrors.ExitUsage
	}

	commander, closeStore, err := newCommander(ctx, cfg)
	if err != nil {
		return renderError(stderr, catalog, err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			fmt.Fprintf(stderr, "close store: %v\n", err)
		}
	}()

	ctx, span := otel.Tracer("github.com/dondakeshimo/taskmr/internal/cli").Start(ctx, "taskmr."+name)
	defer span.End()

	err = command(ctx, commander, rest, stdout)
	if err != nil && errors.Is(err, apperrors.New(apperrors.CodeConcurrencyConflict, "")) {
		// Conflicts are the one retryable failure: commands reload state on
		// entry, so a single re-run revalidates against the new version.
		err = command(ctx, commander, rest, stdout)
	}
	if err != nil {
		return renderError(stderr, catalog, err)
	}
	return apperrors.ExitOK
}

// renderError prints a localized message and maps the code to an exit status.
func renderError(w io.Writer, catalog *i18n.Catalog, err error) int {
	var coded *apperrors.Error
	if errors.As(err, &coded) {
		fmt.Fprintln(w, catalog.Format(string(coded.Code), coded.Metadata))
		return coded.Code.ExitCode()
	}
	fmt.Fprintln(w, err)
	return 1
}
