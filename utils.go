package addonspath

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/gopasspw/gopass/pkg/debug"
)

// matcher is a compiled set of ignore patterns. Patterns support
// double-asterisk (**) segments.
type matcher []glob.Glob

func compileMatcher(patterns []string) (matcher, error) {
	m := make(matcher, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(filepath.ToSlash(p), '/')
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, p, err)
		}
		m = append(m, g)
	}

	return m, nil
}

// Match reports whether the absolute path p, or p relative to root, matches
// any of the patterns.
func (m matcher) Match(p, root string) bool {
	if len(m) == 0 {
		return false
	}

	candidates := []string{filepath.ToSlash(p)}
	if root != "" {
		if rel, err := filepath.Rel(root, p); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			candidates = append(candidates, filepath.ToSlash(rel))
		}
	}

	for _, g := range m {
		for _, c := range candidates {
			if g.Match(c) {
				return true
			}
		}
	}

	return false
}

// ResolvePath converts a configured path ('/absolute', '~' or '~/from/home',
// 'relative/to/root') to a clean absolute path. An empty input yields an
// empty result. An empty root resolves against the working directory.
func ResolvePath(p, root string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", nil
	}

	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot resolve home directory for %q: %w", p, err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
	}

	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}

	if root == "" {
		abs, err := filepath.Abs(p)
		if err != nil {
			return "", fmt.Errorf("cannot resolve %q: %w", p, err)
		}

		return abs, nil
	}

	return filepath.Join(root, p), nil
}

func pathExists(p string) bool {
	_, err := os.Stat(p)
	if err != nil && !os.IsNotExist(err) {
		debug.V(1).Log("failed to stat %s: %s", p, err)
	}

	return err == nil
}

// splitLines splits text into lines keeping their terminators so that
// joining the result reproduces the input byte for byte.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}

	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}

// lineEnding returns the terminator used by the first line of the document.
func lineEnding(lines []string) string {
	if len(lines) > 0 && strings.HasSuffix(lines[0], "\r\n") {
		return "\r\n"
	}

	return "\n"
}

// eol returns the terminator of a single line, or def if it has none.
func eol(line, def string) string {
	switch {
	case strings.HasSuffix(line, "\r\n"):
		return "\r\n"
	case strings.HasSuffix(line, "\n"):
		return "\n"
	default:
		return def
	}
}

// writeFileAtomic writes data to a temporary file next to fn and renames it
// into place, so readers observe either the old or the new content.
func writeFileAtomic(fn string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(fn)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w %q for %q: %w", ErrCreateConfigDir, dir, fn, err)
	}

	if fi, err := os.Stat(fn); err == nil {
		perm = fi.Mode().Perm()
	}

	fh, err := os.CreateTemp(dir, "."+filepath.Base(fn)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w to %s: %w", ErrWriteConfig, fn, err)
	}
	tmp := fh.Name()

	cleanup := func(err error) error {
		_ = fh.Close()
		_ = os.Remove(tmp)

		return fmt.Errorf("%w to %s: %w", ErrWriteConfig, fn, err)
	}

	if _, err := fh.Write(data); err != nil {
		return cleanup(err)
	}
	if err := fh.Sync(); err != nil {
		return cleanup(err)
	}
	if err := fh.Chmod(perm); err != nil {
		return cleanup(err)
	}
	if err := fh.Close(); err != nil {
		_ = os.Remove(tmp)

		return fmt.Errorf("%w to %s: %w", ErrWriteConfig, fn, err)
	}

	if err := os.Rename(tmp, fn); err != nil {
		_ = os.Remove(tmp)

		return fmt.Errorf("%w to %s: %w", ErrWriteConfig, fn, err)
	}

	debug.V(3).Log("wrote %d bytes to %s", len(data), fn)

	return nil
}
