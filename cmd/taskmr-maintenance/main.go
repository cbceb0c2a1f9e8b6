// Package main provides maintenance utilities for the taskmr event store:
// projection rebuild from the journal and projection/journal verification.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	platformcmd "github.com/dondakeshimo/taskmr/internal/platform/cmd"
	"github.com/dondakeshimo/taskmr/internal/platform/config"
	"github.com/dondakeshimo/taskmr/internal/task/projection"
	"github.com/dondakeshimo/taskmr/internal/task/storage/sqlite"
)

const usage = `Usage: taskmr-maintenance <command> [arguments]

Commands:
  rebuild   replace the projection with a fresh replay of the event journal
  verify    report tasks whose projection diverges from the journal
`

type maintenanceConfig struct {
	DBPath string `env:"TASKMR_DB_PATH"`
}

func defaultDBPath(configured string) (string, error) {
	path := strings.TrimSpace(configured)
	if path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".taskmr", "taskmr.db"), nil
}

func main() {
	var cfg maintenanceConfig
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		config.Exitf("parse config: %v", err)
	}

	args := os.Args[1:]
	if len(args) == 0 {
		config.Exitf("%s", usage)
	}
	command, rest := args[0], args[1:]

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	dbPath := fs.String("db-path", "", "path to the sqlite event store (default: TASKMR_DB_PATH or ~/.taskmr/taskmr.db)")
	if err := platformcmd.ParseArgs(fs, rest); err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if *dbPath == "" {
		*dbPath = cfg.DBPath
	}

	path, err := defaultDBPath(*dbPath)
	if err != nil {
		config.Exitf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceMaintenance, func(ctx context.Context) error {
		store, err := sqlite.Open(ctx, path)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer store.Close()

		switch command {
		case "rebuild":
			count, err := projection.Rebuild(ctx, store)
			if err != nil {
				return fmt.Errorf("rebuild projection: %w", err)
			}
			log.Printf("rebuilt projection for %d tasks", count)
			return nil

		case "verify":
			divergences, err := projection.Verify(ctx, store)
			if err != nil {
				return fmt.Errorf("verify projection: %w", err)
			}
			if len(divergences) == 0 {
				log.Printf("projection matches the journal")
				return nil
			}
			for _, d := range divergences {
				log.Printf("task %s: %s", d.TaskID, d.Reason)
			}
			return fmt.Errorf("%d tasks diverged; run rebuild", len(divergences))

		default:
			return fmt.Errorf("unknown command %q\n\n%s", command, usage)
		}
	})
	stop()
	if err != nil {
		config.Exitf("%v", err)
	}
}
