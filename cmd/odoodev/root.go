package main

import (
	"fmt"
	"strings"

	"github.com/odoo-tools/addonspath/internal/logging"
	"github.com/odoo-tools/addonspath/internal/project"
	"github.com/odoo-tools/addonspath/internal/runner"
	"github.com/odoo-tools/addonspath/internal/tasks"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries the flag values and the lazily loaded project between the
// commands of one invocation.
type app struct {
	v     *viper.Viper
	tasks *tasks.Tasks
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "odoodev",
		Short: "Odoo development environment helper",
		Long: `odoodev manages an Odoo development checkout described by a config.yaml
in the project root: it creates the virtual environment, pins and installs
dependencies, fetches addons repos, installs git hooks, keeps the addons_path
of the server config and the pyright config in sync, starts the server and
backs up or restores databases.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logging.SetupWriter(cmd.ErrOrStderr(), a.v.GetInt("verbose"), a.v.GetBool("no-color"))
			log.Debug().Str("command", cmd.Name()).Msg("Command started")

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("root", "C", ".", "project root directory")
	flags.StringP("config", "c", project.DefaultFile, "project config file, relative to the root")
	flags.BoolP("dry-run", "n", false, "log commands and changes without executing them")
	flags.CountP("verbose", "v", "increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	flags.Bool("no-color", false, "disable colored log output")

	for _, name := range []string{"root", "config", "dry-run", "verbose", "no-color"} {
		if err := a.v.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind %s flag: %v", name, err))
		}
	}
	a.v.SetEnvPrefix(project.EnvPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	rootCmd.AddGroup(
		&cobra.Group{ID: "setup", Title: "Setup Commands:"},
		&cobra.Group{ID: "server", Title: "Server Commands:"},
	)

	rootCmd.AddCommand(
		a.venvCmd(),
		a.depsCmd(),
		a.reposCmd(),
		a.hooksCmd(),
		a.confsCmd(),
		a.addonsPathCmd(),
		a.startCmd(),
		a.backupCmd(),
		a.restoreCmd(),
		a.configCmd(),
		versionCmd(),
	)

	return rootCmd
}

// load reads the project config once and wires the tasks.
func (a *app) load(cmd *cobra.Command) (*tasks.Tasks, error) {
	if a.tasks != nil {
		return a.tasks, nil
	}

	cfg, err := project.Load(a.v.GetString("root"), a.v.GetString("config"))
	if err != nil {
		return nil, err
	}

	dryRun := a.v.GetBool("dry-run")
	r := runner.New(cfg.VenvPath(), cfg.Root, dryRun)
	r.Stdin = cmd.InOrStdin()
	r.Stdout = cmd.OutOrStdout()
	r.Stderr = cmd.ErrOrStderr()

	a.tasks = tasks.New(cfg, r, dryRun)

	return a.tasks, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "odoodev version %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}
}
