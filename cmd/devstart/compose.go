package main

import (
	"fmt"

	"reflective-journal/devstart/internal/compose"

	"github.com/spf13/cobra"
)

var composeOut string

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Render a docker-compose file for PostgreSQL and Redis",
	Long: `Render a docker-compose file with the PostgreSQL and Redis services the
API needs, each with a healthcheck. Use -o - to write to stdout.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := compose.Build(cfg.Compose, cfg.Postgres.Database)

		if composeOut == "-" {
			return f.Encode(cmd.OutOrStdout())
		}
		if err := f.WriteFile(composeOut); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ wrote %s\n", composeOut)
		return nil
	},
}

func init() {
	composeCmd.Flags().StringVarP(&composeOut, "output", "o", "", "output path, or - for stdout (default compose.file)")
	composeCmd.PreRun = func(cmd *cobra.Command, args []string) {
		if composeOut == "" {
			composeOut = cfg.Compose.File
		}
	}
}
