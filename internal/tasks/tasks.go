package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/odoo-tools/addonspath"
	"github.com/odoo-tools/addonspath/internal/logging"
	"github.com/odoo-tools/addonspath/internal/project"
	"github.com/odoo-tools/addonspath/internal/runner"
	"github.com/rs/zerolog"
)

const (
	odooRequirements = "requirements.txt"
	projectIn        = "requirements.in"
	odooIn           = "requirements-odoo.in"
	odooBin          = "odoo-bin"
)

// Tasks bundles the loaded project config, the command runner and a logger.
// It holds no other state; every method can be called on its own.
type Tasks struct {
	cfg    *project.Config
	run    runner.Runner
	log    zerolog.Logger
	dryRun bool
	now    func() time.Time
}

// New creates Tasks. With dryRun set no file is written; commands are still
// handed to r, which is expected to honour dry runs itself.
func New(cfg *project.Config, r runner.Runner, dryRun bool) *Tasks {
	return &Tasks{
		cfg:    cfg,
		run:    r,
		log:    logging.GetLogger("tasks"),
		dryRun: dryRun,
		now:    time.Now,
	}
}

// Config returns the project config the tasks operate on.
func (t *Tasks) Config() *project.Config {
	return t.cfg
}

func (t *Tasks) runAll(ctx context.Context, cmds ...[]string) error {
	for _, argv := range cmds {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := t.run.Run(ctx, argv); err != nil {
			return err
		}
	}

	return nil
}

// Venv creates the virtual environment with uv.
func (t *Tasks) Venv(ctx context.Context) error {
	defer logging.LogOperationStart(t.log, "venv")()

	argv := []string{"uv", "venv", t.cfg.VenvPath()}
	if t.cfg.Python != "" {
		argv = append(argv, "--python", t.cfg.Python)
	}

	return t.runAll(ctx, argv)
}

// Deps pins the project and server requirements with hashes and installs
// them into the virtual environment.
//
// The server requirements are copied to <requirements_dir>/requirements-odoo.in
// first. A missing project requirements.in is skipped with a warning.
func (t *Tasks) Deps(ctx context.Context) error {
	defer logging.LogOperationStart(t.log, "deps")()

	reqDir := t.cfg.Path(t.cfg.RequirementsDir)
	src := filepath.Join(t.cfg.ServerPath(), odooRequirements)
	dst := filepath.Join(reqDir, odooIn)

	if err := t.copyFile(src, dst); err != nil {
		return err
	}

	inputs := make([]string, 0, 2)
	if _, err := os.Stat(filepath.Join(reqDir, projectIn)); err == nil {
		inputs = append(inputs, filepath.Join(reqDir, projectIn))
	} else {
		t.log.Warn().Str("path", filepath.Join(reqDir, projectIn)).Msg("No project requirements, skipping")
	}
	inputs = append(inputs, dst)

	cmds := [][]string{{"uv", "pip", "install", "pip-tools"}}
	for _, in := range inputs {
		cmds = append(cmds, []string{
			"uv", "run", "pip-compile",
			"--generate-hashes", "--resolver=backtracking", "--upgrade", in,
		})
	}
	for _, in := range inputs {
		cmds = append(cmds, []string{"uv", "pip", "install", "-r", strings.TrimSuffix(in, ".in") + ".txt"})
	}

	return t.runAll(ctx, cmds...)
}

func (t *Tasks) copyFile(src, dst string) error {
	buf, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read server requirements: %w", err)
	}

	if t.dryRun {
		t.log.Info().Str("src", src).Str("dst", dst).Msg("[dry-run] copy")

		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(dst), err)
	}
	if err := os.WriteFile(dst, buf, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	t.log.Debug().Str("src", src).Str("dst", dst).Msg("Copied server requirements")

	return nil
}

// Repos fetches the addons repos with git-aggregator.
func (t *Tasks) Repos(ctx context.Context) error {
	defer logging.LogOperationStart(t.log, "repos")()

	return t.runAll(ctx, []string{"gitaggregate", "-c", t.cfg.Path(t.cfg.AggregateFile)})
}

// Hooks installs the pre-commit git hooks.
func (t *Tasks) Hooks(ctx context.Context) error {
	defer logging.LogOperationStart(t.log, "hooks")()

	return t.runAll(ctx, []string{"pre-commit", "install"})
}

// AddonsPath computes the addons path without writing anything. Skipped
// candidates are logged.
func (t *Tasks) AddonsPath(_ context.Context) (*addonspath.PathSet, error) {
	ps, err := addonspath.Compute(t.cfg.Odoo.Server, t.cfg.Odoo.Enterprise, t.cfg.Repos, t.cfg.PathOptions())
	if err != nil {
		return nil, err
	}

	for _, w := range ps.Warnings() {
		t.log.Warn().Msg(w)
	}
	for _, s := range ps.Skipped() {
		if s.Warn() {
			continue
		}
		t.log.Debug().Str("source", s.Source.String()).Str("path", s.Path).Msg(s.Reason.String())
	}

	return ps, nil
}

// Check compares the addons_path of the server config with the computed
// one. It returns ErrAddonsPathOutOfSync if they differ.
func (t *Tasks) Check(ctx context.Context) (*addonspath.PathSet, error) {
	ps, err := t.AddonsPath(ctx)
	if err != nil {
		return nil, err
	}

	sc, err := addonspath.LoadServerConfig(t.cfg.ServerConfigPath())
	if err != nil {
		return nil, err
	}

	current, found := sc.AddonsPath()
	if !found || !slices.Equal(current, ps.Paths()) {
		return ps, fmt.Errorf("%w: %s", ErrAddonsPathOutOfSync, sc.Path())
	}

	return ps, nil
}

// Confs computes the addons path and installs it into the pyright config and
// the server config, in that order. Nothing is written if the computation or
// loading the server config fails, and the server config is left untouched
// if the pyright config can not be written.
func (t *Tasks) Confs(ctx context.Context) (*addonspath.PathSet, error) {
	defer logging.LogOperationStart(t.log, "confs")()

	ps, err := t.AddonsPath(ctx)
	if err != nil {
		return nil, err
	}

	sc, err := addonspath.LoadServerConfig(t.cfg.ServerConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", t.cfg.ServerConfigPath(), err)
	}

	// patch in memory only, the server config is written last
	sc.NoWrites = true
	changed, err := sc.SetAddonsPath(ps.Paths())
	if err != nil {
		return nil, err
	}

	pyright := t.cfg.PyrightConfigPath()
	if t.dryRun {
		t.log.Info().Str("path", sc.Path()).Bool("changed", changed).Msg("[dry-run] not writing server config")
		t.log.Info().Str("path", pyright).Msg("[dry-run] not writing pyright config")

		return ps, nil
	}

	if err := addonspath.WritePyrightConfig(pyright, ps.Paths()); err != nil {
		return nil, err
	}
	t.log.Info().Str("path", pyright).Msg("Pyright config")

	if changed {
		sc.NoWrites = false
		if err := sc.Write(); err != nil {
			return nil, err
		}
	}
	t.log.Info().Str("path", sc.Path()).Bool("changed", changed).Msg("Server config")

	return ps, nil
}

// Start runs the server in the foreground. It returns when the server exits
// or ctx is cancelled.
func (t *Tasks) Start(ctx context.Context, extra ...string) error {
	argv := []string{
		filepath.Join(t.cfg.ServerPath(), odooBin),
		"-c", t.cfg.ServerConfigPath(),
	}
	argv = append(argv, extra...)

	err := t.runAll(ctx, argv)
	if err != nil && ctx.Err() != nil {
		t.log.Info().Msg("Server stopped")

		return nil
	}

	return err
}

// BackupFormat is the archive format of a database backup.
type BackupFormat string

// Supported backup formats.
const (
	FormatZip    BackupFormat = "zip"
	FormatDump   BackupFormat = "dump"
	FormatFolder BackupFormat = "folder"
)

// ParseBackupFormat parses a format name. The empty string is FormatZip.
func ParseBackupFormat(s string) (BackupFormat, error) {
	switch f := BackupFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatZip, nil
	case FormatZip, FormatDump, FormatFolder:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q (want zip, dump or folder)", ErrInvalidFormat, s)
	}
}

func (f BackupFormat) ext() string {
	switch f {
	case FormatZip:
		return ".zip"
	case FormatDump:
		return ".dump"
	default:
		return ""
	}
}

// BackupOptions configure Backup.
type BackupOptions struct {
	// Database defaults to the configured database.
	Database string
	Format   BackupFormat
	// Dest defaults to <backups_dir>/<db>-<UTC timestamp>.<ext>.
	Dest string
}

// Backup dumps a database with click-odoo-backupdb and returns the
// destination.
func (t *Tasks) Backup(ctx context.Context, opts BackupOptions) (string, error) {
	defer logging.LogOperationStart(t.log, "backup")()

	db := t.database(opts.Database)
	if db == "" {
		return "", ErrNoDatabase
	}

	format, err := ParseBackupFormat(string(opts.Format))
	if err != nil {
		return "", err
	}

	dest := opts.Dest
	if dest == "" {
		name := db + "-" + t.now().UTC().Format("20060102-150405") + format.ext()
		dest = filepath.Join(t.cfg.Path(t.cfg.BackupsDir), name)
	} else {
		dest = t.cfg.Path(dest)
	}

	if !t.dryRun {
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return "", fmt.Errorf("failed to create %s: %w", filepath.Dir(dest), err)
		}
	}

	argv := []string{
		"click-odoo-backupdb",
		"-c", t.cfg.ServerConfigPath(),
		"--format", string(format),
		db, dest,
	}
	if err := t.runAll(ctx, argv); err != nil {
		return "", err
	}

	return dest, nil
}

// RestoreOptions configure Restore.
type RestoreOptions struct {
	// Database defaults to the configured database.
	Database string
	Source   string
	// Copy generates a new database uuid.
	Copy bool
	// Force drops an existing database first.
	Force bool
}

// Restore restores a database from a backup with click-odoo-restoredb.
func (t *Tasks) Restore(ctx context.Context, opts RestoreOptions) error {
	defer logging.LogOperationStart(t.log, "restore")()

	db := t.database(opts.Database)
	if db == "" {
		return ErrNoDatabase
	}
	if opts.Source == "" {
		return ErrNoSource
	}

	argv := []string{"click-odoo-restoredb", "-c", t.cfg.ServerConfigPath()}
	if opts.Copy {
		argv = append(argv, "--copy")
	}
	if opts.Force {
		argv = append(argv, "--force")
	}
	argv = append(argv, db, t.cfg.Path(opts.Source))

	return t.runAll(ctx, argv)
}

func (t *Tasks) database(db string) string {
	if db != "" {
		return db
	}

	return t.cfg.Database
}
