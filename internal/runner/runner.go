package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/gopasspw/gopass/pkg/set"
	"github.com/joho/godotenv"
	"github.com/odoo-tools/addonspath/internal/logging"
	"github.com/rs/zerolog"
)

// DotEnvFile is the name of the optional env file in the project root.
const DotEnvFile = ".env"

// Runner runs a command and reports its exit code.
type Runner interface {
	Run(ctx context.Context, argv []string) (ExitCode, error)
}

// VenvRunner runs commands with the virtual environment activated.
type VenvRunner struct {
	// Venv is the absolute path of the virtual environment.
	Venv string
	// Dir is the working directory, usually the project root.
	Dir string
	// DryRun only logs the commands.
	DryRun bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// environ returns the base environment. Defaults to os.Environ.
	environ func() []string
	logger  zerolog.Logger
}

// New creates a VenvRunner for the given venv and project root with stdio
// passed through.
func New(venv, dir string, dryRun bool) *VenvRunner {
	return &VenvRunner{
		Venv:    venv,
		Dir:     dir,
		DryRun:  dryRun,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		environ: os.Environ,
		logger:  logging.GetLogger("runner"),
	}
}

// Run executes argv. A non-zero exit yields an *ExitError, a missing
// executable ErrCommandNotFound.
func (r *VenvRunner) Run(ctx context.Context, argv []string) (ExitCode, error) {
	if len(argv) == 0 {
		return 1, ErrEmptyCommand
	}

	logging.LogCommand(r.logger, argv[0], argv[1:])

	if r.DryRun {
		r.logger.Info().Str("dir", r.Dir).Msgf("[dry-run] %s", strings.Join(argv, " "))

		return 0, nil
	}

	env, err := r.Env()
	if err != nil {
		return 1, err
	}

	bin, err := lookPath(argv[0], env)
	if err != nil {
		return 127, fmt.Errorf("%w: %s", ErrCommandNotFound, argv[0])
	}

	cmd := exec.CommandContext(ctx, bin, argv[1:]...)
	cmd.Dir = r.Dir
	cmd.Env = env
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	done := logging.LogOperationStart(r.logger, argv[0])
	err = cmd.Run()
	done()

	return exitResult(argv, err)
}

func exitResult(argv []string, err error) (ExitCode, error) {
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := ExitCode(exitErr.ExitCode())
		if code < 0 || code > 255 {
			// killed by a signal
			code = 1
		}

		return code, &ExitError{Argv: argv, Code: code}
	}

	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return 127, fmt.Errorf("%w: %s", ErrCommandNotFound, argv[0])
	}

	return 1, fmt.Errorf("failed to run %s: %w", argv[0], err)
}

// BinDir returns the executables directory of the venv.
func (r *VenvRunner) BinDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(r.Venv, "Scripts")
	}

	return filepath.Join(r.Venv, "bin")
}

// Env returns the sorted KEY=VALUE environment for child processes.
func (r *VenvRunner) Env() ([]string, error) {
	environ := r.environ
	if environ == nil {
		environ = os.Environ
	}

	vars := make(map[string]string, 64)
	for _, kv := range environ() {
		k, v, found := strings.Cut(kv, "=")
		if !found || k == "" {
			continue
		}
		vars[k] = v
	}

	if r.Dir != "" {
		fn := filepath.Join(r.Dir, DotEnvFile)
		dotenv, err := godotenv.Read(fn)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// optional
		case err != nil:
			return nil, fmt.Errorf("failed to read %s: %w", fn, err)
		default:
			for k, v := range dotenv {
				if _, found := vars[k]; !found {
					vars[k] = v
				}
			}
		}
	}

	delete(vars, "PYTHONHOME")
	vars["VIRTUAL_ENV"] = r.Venv
	if p := vars["PATH"]; p != "" {
		vars["PATH"] = r.BinDir() + string(os.PathListSeparator) + p
	} else {
		vars["PATH"] = r.BinDir()
	}

	out := make([]string, 0, len(vars))
	for _, k := range set.SortedKeys(vars) {
		out = append(out, k+"="+vars[k])
	}

	return out, nil
}

// lookPath resolves name against the PATH of env so binaries installed in
// the venv are found first.
func lookPath(name string, env []string) (string, error) {
	if strings.ContainsRune(name, os.PathSeparator) || strings.Contains(name, "/") {
		return name, nil
	}

	var path string
	for _, kv := range env {
		if v, found := strings.CutPrefix(kv, "PATH="); found {
			path = v
		}
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			dir = "."
		}
		for _, candidate := range candidates(filepath.Join(dir, name)) {
			fi, err := os.Stat(candidate)
			if err != nil || fi.IsDir() {
				continue
			}
			if runtime.GOOS == "windows" || fi.Mode()&0o111 != 0 {
				return candidate, nil
			}
		}
	}

	return "", exec.ErrNotFound
}

func candidates(p string) []string {
	if runtime.GOOS != "windows" {
		return []string{p}
	}

	return []string{p, p + ".exe", p + ".bat", p + ".cmd"}
}
