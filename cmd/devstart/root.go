package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"reflective-journal/devstart/internal/config"
	"reflective-journal/devstart/internal/launch"
	"reflective-journal/devstart/internal/preflight"
	"reflective-journal/devstart/internal/telemetry"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string

	// cfg is populated by PersistentPreRunE and shared with all subcommands.
	cfg *config.Config

	// app holds all wired dependencies; populated by PersistentPreRunE.
	app *AppContext
)

var rootCmd = &cobra.Command{
	Use:   "devstart",
	Short: "Preflight and launch the Reflective Journal API for local development",
	Long: `devstart verifies the local development prerequisites in a fixed order:

  1. a Python virtual environment is active
  2. the .env configuration file exists
  3. PostgreSQL answers a trivial query
  4. Redis answers PING

The first failure aborts with a diagnostic and a non-zero exit code. When
every check passes, the API server is started with auto-reload.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runUp,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		slog.SetDefault(telemetry.NewLogger(os.Stderr, logLevel))

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		// --log-level flag takes precedence over value in config file.
		if cmd.Flags().Changed("log-level") {
			cfg.Telemetry.LogLevel = logLevel
		} else if cfg.Telemetry.LogLevel != "" {
			slog.SetDefault(telemetry.NewLogger(os.Stderr, cfg.Telemetry.LogLevel))
		}

		app = buildAppContext(cmd.Context(), cfg)
		return nil
	}

	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		shutdownTelemetry()
		return nil
	}

	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(envCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(composeCmd)
}

// Execute is the entry point called by main.
func Execute() {
	err := rootCmd.ExecuteContext(context.Background())
	if err == nil {
		return
	}
	shutdownTelemetry()
	printError(os.Stderr, err)
	os.Exit(exitCode(err))
}

func shutdownTelemetry() {
	if app == nil || app.telemetry == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.telemetry.Shutdown(ctx); err != nil {
		slog.Warn("OTEL shutdown error", "err", err)
	}
	app.telemetry = nil
}

// exitError carries an explicit process exit status. silent marks errors
// whose diagnostic has already been written.
type exitError struct {
	code   int
	err    error
	silent bool
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	var pe *preflight.Error
	if errors.As(err, &pe) {
		return pe.ExitCode()
	}
	if errors.Is(err, launch.ErrBinaryMissing) || errors.Is(err, launch.ErrExec) {
		return preflight.ExitLaunch
	}
	return preflight.ExitGeneric
}

// printError writes the one-line diagnostic for err, plus the remediation
// hint when the error carries one.
func printError(w io.Writer, err error) {
	var ee *exitError
	if errors.As(err, &ee) && ee.silent {
		return
	}
	var pe *preflight.Error
	if errors.As(err, &pe) {
		fmt.Fprintf(w, "✗ %s\n", pe.Error())
		if pe.Hint != "" {
			fmt.Fprintf(w, "  hint: %s\n", pe.Hint)
		}
		return
	}
	fmt.Fprintf(w, "✗ %s\n", err)
}
