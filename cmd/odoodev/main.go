// Command odoodev manages an Odoo development checkout: virtual environment,
// dependencies, addons repos, git hooks, server and editor configs, the
// server process and database backups.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/odoo-tools/addonspath/internal/runner"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()

	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)

		return exitCode(err)
	}

	return 0
}

// exitCode propagates the status of a failed child process. Every other
// error exits 1.
func exitCode(err error) int {
	var exitErr *runner.ExitError
	if errors.As(err, &exitErr) && !exitErr.Code.IsSuccess() {
		return int(exitErr.Code)
	}

	return 1
}
