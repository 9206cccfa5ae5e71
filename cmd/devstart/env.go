package main

import (
	"fmt"
	"sort"

	"reflective-journal/devstart/internal/dotenv"
	"reflective-journal/devstart/internal/preflight"

	"github.com/spf13/cobra"
)

var envForce bool

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Manage the application's .env file",
}

var envInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create .env from the template",
	Long: `Copy the template (default .env.example) to the env file (default .env),
generating SECRET_KEY when the template leaves it empty. An existing file is
left alone unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := dotenv.InitFromTemplate(cfg.Env.Template, cfg.Env.File, envForce)
		if err != nil {
			return &exitError{code: preflight.ExitConfig, err: err}
		}

		keys := make([]string, 0, len(env))
		for k := range env {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ wrote %s (%d keys)\n", cfg.Env.File, len(keys))
		for _, k := range keys {
			if env[k] == "" {
				fmt.Fprintf(out, "  %s is empty\n", k)
			}
		}
		return nil
	},
}

var envCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the .env file against the application's settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := dotenv.LoadSettings(cfg.Env.File)
		if err != nil {
			return &exitError{code: preflight.ExitConfig, err: err}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid (app %q, debug=%t)\n", cfg.Env.File, s.AppName, s.Debug)
		return nil
	},
}

func init() {
	envInitCmd.Flags().BoolVar(&envForce, "force", false, "overwrite an existing env file")
	envCmd.AddCommand(envInitCmd)
	envCmd.AddCommand(envCheckCmd)
}
