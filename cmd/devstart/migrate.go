package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"reflective-journal/devstart/internal/migrate"
	"reflective-journal/devstart/internal/preflight"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or inspect the journal database schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, closeDB, err := openMigrator(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB()

		applied, err := m.Up(cmd.Context())
		out := cmd.OutOrStdout()
		for _, mig := range applied {
			fmt.Fprintf(out, "✓ %s_%s\n", mig.Version, mig.Name)
		}
		if err != nil {
			return &exitError{code: preflight.ExitDatastore, err: err}
		}
		if len(applied) == 0 {
			fmt.Fprintln(out, "schema is up to date")
		}
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List migrations and whether each has been applied",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, closeDB, err := openMigrator(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB()

		statuses, err := m.Status(cmd.Context())
		if err != nil {
			return &exitError{code: preflight.ExitDatastore, err: err}
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "VERSION\tNAME\tAPPLIED AT")
		for _, s := range statuses {
			at := "pending"
			if s.AppliedAt != nil {
				at = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Version, s.Name, at)
		}
		return tw.Flush()
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

// openMigrator connects using postgres.url, falling back to DATABASE_URL
// from the env file.
func openMigrator(ctx context.Context) (*migrate.Migrator, func(), error) {
	url := serviceURLs(cfg).database
	if url == "" {
		return nil, nil, &exitError{
			code: preflight.ExitConfig,
			err:  errors.New("no database URL: set postgres.url or DATABASE_URL in " + cfg.Env.File),
		}
	}

	db, err := migrate.Open(ctx, url)
	if err != nil {
		return nil, nil, &exitError{code: preflight.ExitDatastore, err: err}
	}
	closeDB := func() { _ = db.Close() }

	m, err := migrate.New(db, cfg.Migrate.Table)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	return m, closeDB, nil
}

