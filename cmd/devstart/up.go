package main

import (
	"context"
	"fmt"
	"io"

	"reflective-journal/devstart/internal/launch"
	"reflective-journal/devstart/internal/preflight"

	"github.com/spf13/cobra"
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Run the preflight checklist and start the API server",
	Long: `Run every preflight check in order and, if all pass, replace this
process with the API server (uvicorn app.main:app --host 0.0.0.0 --port 8000
--reload). Running devstart with no subcommand is equivalent.`,
	Args: cobra.NoArgs,
	RunE: runUp,
}

func runUp(cmd *cobra.Command, args []string) error {
	return runUpWith(cmd.Context(), cmd.OutOrStdout(), app.checker, app.launcher, launchSpec(cfg))
}

type preflightRunner interface {
	Run(ctx context.Context) (*preflight.Report, error)
}

type serverLauncher interface {
	Launch(ctx context.Context, spec launch.Spec) error
}

// runUpWith runs the checklist and launches the server only when every check
// passed. Launch is attempted at most once.
func runUpWith(ctx context.Context, w io.Writer, checker preflightRunner, launcher serverLauncher, spec launch.Spec) error {
	report, err := checker.Run(ctx)
	if report != nil {
		printReport(w, report)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "→ starting %s on http://%s:%d\n", spec.App, spec.Host, spec.Port)

	// Exec replaces the process, so deferred shutdowns would never run.
	shutdownTelemetry()
	return launcher.Launch(ctx, spec)
}

// printReport writes one line per executed check. Failures are left to
// printError so the hint follows the diagnostic.
func printReport(w io.Writer, report *preflight.Report) {
	for _, c := range report.Checks {
		switch c.Status {
		case preflight.StatusOK:
			fmt.Fprintf(w, "✓ %s\n", c.Name)
		case preflight.StatusSkipped:
			fmt.Fprintf(w, "- %s (skipped)\n", c.Name)
		}
	}
}

