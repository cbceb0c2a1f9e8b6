// Package main provides the taskmr command-line task manager.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dondakeshimo/taskmr/internal/cli"
	platformcmd "github.com/dondakeshimo/taskmr/internal/platform/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exitCode := 0
	err := platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceTask, func(ctx context.Context) error {
		exitCode = cli.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
		return nil
	})
	stop()
	if err != nil {
		// Telemetry setup failures are fatal before any command ran.
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	os.Exit(exitCode)
}
