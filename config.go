package addonspath

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/gopasspw/gopass/pkg/debug"
)

const (
	optionsSection = "options"
	addonsPathKey  = "addons_path"
)

var (
	addonsPathTpl   = addonsPathKey + " = %s"
	reSectionHeader = regexp.MustCompile(`^\[.*\]`)
)

// ServerConfig is an INI-style Odoo server configuration file.
//
// ServerConfig only understands the addons_path key of the [options] section.
// Every other line, including comments, blank lines and other sections, is
// kept byte for byte in its original order.
//
// Fields:
// - path: File path of this config file (may not exist yet)
// - NoWrites: If true, changes are never persisted to disk (dry runs, tests)
// - raw: The full text of the document
//
// Note: ServerConfig is not thread-safe and does not lock the file. It is meant
// for a single operator running one command at a time.
//
// Typical Usage:
//
//	cfg, err := LoadServerConfig("odoo.conf")
//	if err != nil { ... }
//	changed, err := cfg.SetAddonsPath(ps.Paths())
type ServerConfig struct {
	path     string
	NoWrites bool
	raw      strings.Builder
}

// LoadServerConfig loads the server config at fn. A missing file is not an
// error: the result is an empty document that will be created on the first
// write.
func LoadServerConfig(fn string) (*ServerConfig, error) {
	fh, err := os.Open(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			debug.V(1).Log("server config %s does not exist, starting empty", fn)

			return &ServerConfig{path: fn}, nil
		}

		return nil, err
	}
	defer fh.Close() //nolint:errcheck

	c := ParseServerConfig(fh)
	c.path = fn

	return c, nil
}

// ParseServerConfig reads a server config from the given io.Reader. It never
// fails. A read error keeps whatever was read so far.
func ParseServerConfig(r io.Reader) *ServerConfig {
	c := &ServerConfig{}

	buf, err := io.ReadAll(r)
	if err != nil {
		debug.Log("failed to read server config: %s", err)
	}
	c.raw.Write(buf)

	return c
}

// Path returns the file this config is bound to, if any.
func (c *ServerConfig) Path() string {
	return c.path
}

// String returns the full document text.
func (c *ServerConfig) String() string {
	return c.raw.String()
}

// IsEmpty returns true if the document has no content.
func (c *ServerConfig) IsEmpty() bool {
	return c == nil || strings.TrimSpace(c.raw.String()) == ""
}

// AddonsPath returns the directories of the first addons_path key in the
// [options] section. Returns (nil, false) if the key is absent.
func (c *ServerConfig) AddonsPath() ([]string, bool) {
	var inOptions bool

	for _, line := range splitLines(c.raw.String()) {
		trimmed := strings.TrimSpace(line)
		if isSectionHeader(trimmed) {
			inOptions = isOptionsHeader(trimmed)

			continue
		}
		if !inOptions {
			continue
		}

		value, found := addonsPathValue(trimmed)
		if !found {
			continue
		}

		out := make([]string, 0, strings.Count(value, ",")+1)
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}

		return out, true
	}

	return nil, false
}

// SetAddonsPath installs paths as the addons_path of the [options] section and
// persists the document if it changed.
//
// Behavior:
// - The full new document is assembled in memory before anything is written
// - An unchanged document is not rewritten
// - Writes are atomic (temporary file + rename) and create missing directories
//
// Returns whether the document changed.
func (c *ServerConfig) SetAddonsPath(paths []string) (bool, error) {
	old := c.raw.String()
	updated := PatchAddonsPath(old, paths)
	if updated == old {
		debug.V(1).Log("addons_path already up to date. Not re-writing.")

		return false, nil
	}

	debug.V(3).Log("input: \n--------------\n%s\n--------------\n", strings.Join(strings.Split("- "+old, "\n"), "\n- "))

	c.raw = strings.Builder{}
	c.raw.WriteString(updated)

	debug.V(3).Log("output: \n--------------\n%s\n--------------\n", strings.Join(strings.Split("+ "+updated, "\n"), "\n+ "))

	return true, c.flushRaw()
}

// Write persists the document to its path. It is a no-op if NoWrites is set
// or the config is not bound to a file.
func (c *ServerConfig) Write() error {
	return c.flushRaw()
}

func (c *ServerConfig) flushRaw() error {
	if c.NoWrites || c.path == "" {
		debug.V(3).Log("not writing changes to disk (noWrites %t, path %q)", c.NoWrites, c.path)

		return nil
	}

	debug.V(3).Log("writing config to %s", c.path)

	return writeFileAtomic(c.path, []byte(c.raw.String()), 0o644)
}

// PatchAddonsPath returns text with the addons_path key of the [options]
// section set to paths joined by commas.
//
// The rules, in order:
//   - the first addons_path line inside an [options] section is replaced;
//     later addons_path lines are kept verbatim
//   - without such a line, the key is inserted right after the first [options] header
//   - without any [options] header, a blank line, the header and the key are appended
//
// All other lines are copied unchanged. PatchAddonsPath never fails and is
// idempotent: patching its own output with the same paths is a no-op.
func PatchAddonsPath(text string, paths []string) string {
	lines := splitLines(text)
	nl := lineEnding(lines)
	line := formatAddonsPath(paths)

	out := make([]string, 0, len(lines)+3)
	header := -1
	var inOptions, replaced bool

	for _, l := range lines {
		trimmed := strings.TrimSpace(l)

		if isSectionHeader(trimmed) {
			inOptions = isOptionsHeader(trimmed)
			if inOptions && header < 0 {
				header = len(out)
			}
			out = append(out, l)

			continue
		}

		if inOptions && !replaced {
			if _, found := addonsPathValue(trimmed); found {
				out = append(out, line+eol(l, nl))
				replaced = true

				continue
			}
		} else if inOptions {
			if _, found := addonsPathValue(trimmed); found {
				debug.V(1).Log("keeping additional addons_path line %q", trimmed)
			}
		}

		out = append(out, l)
	}

	if replaced {
		return strings.Join(out, "")
	}

	if header >= 0 {
		out[header] = terminate(out[header], nl)
		out = slices.Insert(out, header+1, line+nl)

		return strings.Join(out, "")
	}

	if len(out) > 0 {
		out[len(out)-1] = terminate(out[len(out)-1], nl)
		out = append(out, nl)
	}
	out = append(out, "["+optionsSection+"]"+nl, line+nl)

	return strings.Join(out, "")
}

func formatAddonsPath(paths []string) string {
	return fmt.Sprintf(addonsPathTpl, strings.Join(paths, ","))
}

func terminate(line, nl string) string {
	if strings.HasSuffix(line, "\n") {
		return line
	}

	return line + nl
}

func isSectionHeader(trimmed string) bool {
	return reSectionHeader.MatchString(trimmed)
}

func isOptionsHeader(trimmed string) bool {
	return strings.HasPrefix(trimmed, "["+optionsSection+"]")
}

// addonsPathValue returns the raw value if the trimmed line is an
// addons_path assignment. Both '=' and ':' delimiters are accepted.
func addonsPathValue(trimmed string) (string, bool) {
	if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ";") {
		return "", false
	}

	i := strings.IndexAny(trimmed, "=:")
	if i < 0 {
		return "", false
	}
	if strings.TrimSpace(trimmed[:i]) != addonsPathKey {
		return "", false
	}

	return strings.TrimSpace(trimmed[i+1:]), true
}
