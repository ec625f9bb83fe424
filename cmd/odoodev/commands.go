package main

import (
	"context"
	"fmt"

	"github.com/odoo-tools/addonspath/internal/tasks"
	"github.com/spf13/cobra"
)

// simple wraps a task that only needs a context.
func (a *app) simple(use, short string, fn func(*tasks.Tasks, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:     use,
		Short:   short,
		GroupID: "setup",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := a.load(cmd)
			if err != nil {
				return err
			}

			return fn(t, cmd.Context())
		},
	}
}

func (a *app) venvCmd() *cobra.Command {
	return a.simple("venv", "Create the virtual environment with uv", (*tasks.Tasks).Venv)
}

func (a *app) depsCmd() *cobra.Command {
	return a.simple("deps", "Pin and install the project and server requirements", (*tasks.Tasks).Deps)
}

func (a *app) reposCmd() *cobra.Command {
	return a.simple("repos", "Fetch the addons repos with git-aggregator", (*tasks.Tasks).Repos)
}

func (a *app) hooksCmd() *cobra.Command {
	return a.simple("hooks", "Install the pre-commit git hooks", (*tasks.Tasks).Hooks)
}

func (a *app) confsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "confs",
		Short:   "Write the addons_path to the server config and the pyright config",
		GroupID: "setup",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := a.load(cmd)
			if err != nil {
				return err
			}

			ps, err := t.Confs(cmd.Context())
			if err != nil {
				return err
			}

			cfg := t.Config()
			fmt.Fprintf(cmd.OutOrStdout(), "addons_path: %d directories\n", ps.Len())
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n  %s\n", cfg.ServerConfigPath(), cfg.PyrightConfigPath())

			return nil
		},
	}
}

func (a *app) addonsPathCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:     "addons-path",
		Short:   "Print the computed addons path, one directory per line",
		GroupID: "setup",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := a.load(cmd)
			if err != nil {
				return err
			}

			run := t.AddonsPath
			if check {
				run = t.Check
			}

			ps, err := run(cmd.Context())
			if ps != nil {
				for _, p := range ps.Paths() {
					fmt.Fprintln(cmd.OutOrStdout(), p)
				}
			}

			return err
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "fail if the server config holds a different addons_path")

	return cmd
}

func (a *app) startCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "start [-- server args...]",
		Short:   "Start the Odoo server in the foreground",
		GroupID: "server",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.load(cmd)
			if err != nil {
				return err
			}

			return t.Start(cmd.Context(), args...)
		},
	}
}

func (a *app) backupCmd() *cobra.Command {
	var (
		db     string
		format string
		dest   string
	)

	cmd := &cobra.Command{
		Use:     "backup",
		Short:   "Back up a database with click-odoo-backupdb",
		GroupID: "server",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := a.load(cmd)
			if err != nil {
				return err
			}

			out, err := t.Backup(cmd.Context(), tasks.BackupOptions{
				Database: db,
				Format:   tasks.BackupFormat(format),
				Dest:     dest,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)

			return nil
		},
	}
	cmd.Flags().StringVarP(&db, "database", "d", "", "database name (default from config)")
	cmd.Flags().StringVarP(&format, "format", "f", string(tasks.FormatZip), "backup format: zip, dump or folder")
	cmd.Flags().StringVarP(&dest, "dest", "o", "", "destination (default <backups_dir>/<db>-<timestamp>.<ext>)")

	return cmd
}

func (a *app) restoreCmd() *cobra.Command {
	var opts tasks.RestoreOptions

	cmd := &cobra.Command{
		Use:     "restore <backup>",
		Short:   "Restore a database with click-odoo-restoredb",
		GroupID: "server",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.load(cmd)
			if err != nil {
				return err
			}
			opts.Source = args[0]

			return t.Restore(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.Database, "database", "d", "", "database name (default from config)")
	cmd.Flags().BoolVar(&opts.Copy, "copy", false, "generate a new database uuid")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "drop an existing database first")

	return cmd
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the project configuration",
	}

	var scope string
	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Print the value of a dotted key, e.g. odoo.server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.load(cmd)
			if err != nil {
				return err
			}

			cfg := t.Config()
			var (
				v     string
				found bool
			)
			if scope != "" {
				v, found = cfg.GetFrom(args[0], scope)
			} else {
				v, found = cfg.Get(args[0])
			}
			if !found {
				return fmt.Errorf("key not set: %s", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)

			return nil
		},
	}
	get.Flags().StringVar(&scope, "scope", "", "only look in the given scope (user or project)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List all keys set in the loaded config files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := a.load(cmd)
			if err != nil {
				return err
			}

			cfg := t.Config()
			for _, k := range cfg.Keys() {
				v, _ := cfg.Get(k)
				fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", k, v)
			}

			return nil
		},
	}

	files := &cobra.Command{
		Use:   "files",
		Short: "List the loaded config files, lowest priority first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := a.load(cmd)
			if err != nil {
				return err
			}

			for _, fn := range t.Config().Files() {
				fmt.Fprintln(cmd.OutOrStdout(), fn)
			}

			return nil
		},
	}

	cmd.AddCommand(get, list, files)

	return cmd
}
