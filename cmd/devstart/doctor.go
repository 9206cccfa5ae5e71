package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run every check without launching and print a JSON report",
	Long: `Run all preflight checks, including the ones after a failure, and print
a JSON report to stdout. Datastore and cache probes run concurrently. The exit
code is that of the first failing check in checklist order.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		report := app.checker.Diagnose(cmd.Context())

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}

		if f := report.FirstFailure(); f != nil {
			return &exitError{code: report.ExitCode(), err: fmt.Errorf("%s: %s", f.Name, f.Error), silent: true}
		}
		return nil
	},
}
