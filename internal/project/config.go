package project

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopasspw/gopass/pkg/appdir"
	"github.com/gopasspw/gopass/pkg/set"
	"github.com/odoo-tools/addonspath"
	"github.com/odoo-tools/addonspath/internal/logging"
	"gopkg.in/yaml.v3"
)

const (
	name = "odoodev"
	// DefaultFile is the name of the project config file in the project root.
	DefaultFile = "config.yaml"
	// EnvPrefix prefixes the environment variables understood by the loader.
	EnvPrefix = "ODOODEV"
)

// Odoo holds the locations of the server checkouts.
type Odoo struct {
	Server     string `yaml:"server"`
	Enterprise string `yaml:"enterprise"`
	Version    string `yaml:"version"`
}

// Addons tunes the addons path computation.
type Addons struct {
	Ignore            []string `yaml:"ignore"`
	MissingCoreAddons string   `yaml:"missing_core_addons"`
}

// Config is the merged project configuration.
type Config struct {
	Odoo            Odoo   `yaml:"odoo"`
	Repos           Repos  `yaml:"repos"`
	Venv            string `yaml:"venv"`
	Python          string `yaml:"python"`
	ServerConfig    string `yaml:"server_config"`
	PyrightConfig   string `yaml:"pyright_config"`
	RequirementsDir string `yaml:"requirements_dir"`
	AggregateFile   string `yaml:"aggregate_file"`
	Database        string `yaml:"database"`
	BackupsDir      string `yaml:"backups_dir"`
	Addons          Addons `yaml:"addons"`

	// Root is the project root all relative paths are resolved against.
	Root string `yaml:"-"`

	scopes []scope
}

// scope is one loaded config file, kept for key lookups.
type scope struct {
	name string
	path string
	vars map[string]any
}

// Loader loads a Config from the user and project scopes.
type Loader struct {
	// UserConfig is the path of the user scope config. Empty disables it.
	UserConfig string
	// ProjectFile is the project config file name, relative to the root.
	ProjectFile string
}

// NewLoader creates a Loader with the default locations.
func NewLoader() *Loader {
	l := &Loader{
		UserConfig:  filepath.Join(appdir.New(name).UserConfig(), DefaultFile),
		ProjectFile: DefaultFile,
	}
	if os.Getenv(EnvPrefix+"_NOUSER") != "" {
		l.UserConfig = ""
	}

	return l
}

// Load is a shorthand for NewLoader().Load(root, file). An empty file uses
// DefaultFile.
func Load(root, file string) (*Config, error) {
	l := NewLoader()
	if file != "" {
		l.ProjectFile = file
	}

	return l.Load(root)
}

// Load reads the user scope (if any) and the project scope below root,
// applies defaults and validates the result.
//
// Errors:
// - ErrNoProjectConfig if the project file is missing
// - ErrInvalidConfig if any file can not be decoded or holds invalid values
// - ErrMissingKey if odoo.server is not set in any scope
func (l *Loader) Load(root string) (*Config, error) {
	log := logging.GetLogger("project")

	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root %q: %w", root, err)
	}

	cfg := &Config{Root: absRoot}

	if l.UserConfig != "" {
		err := cfg.loadScope("user", l.UserConfig)
		switch {
		case errors.Is(err, os.ErrNotExist):
			log.Debug().Str("path", l.UserConfig).Msg("No user config")
		case err != nil:
			return nil, err
		default:
			log.Debug().Str("path", l.UserConfig).Msg("Loaded user config")
		}
	}

	projectFile := l.ProjectFile
	if projectFile == "" {
		projectFile = DefaultFile
	}
	if !filepath.IsAbs(projectFile) {
		projectFile = filepath.Join(absRoot, projectFile)
	}

	if err := cfg.loadScope("project", projectFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoProjectConfig, projectFile)
		}

		return nil, err
	}
	log.Debug().Str("path", projectFile).Msg("Loaded project config")

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse decodes a single project config from buf. It is mainly useful for
// tests and tools that do not read from disk.
func Parse(buf []byte, root string) (*Config, error) {
	cfg := &Config{Root: root}
	if err := cfg.decode("project", "", buf); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return cfg, cfg.Validate()
}

func (c *Config) loadScope(scopeName, fn string) error {
	buf, err := os.ReadFile(fn)
	if err != nil {
		return err
	}

	return c.decode(scopeName, fn, buf)
}

// decode merges buf into c. Keys absent from buf keep their previous value.
func (c *Config) decode(scopeName, fn string, buf []byte) error {
	if len(bytes.TrimSpace(buf)) == 0 {
		c.scopes = append(c.scopes, scope{name: scopeName, path: fn, vars: map[string]any{}})

		return nil
	}

	src := fn
	if src == "" {
		src = scopeName
	}

	if err := yaml.Unmarshal(buf, c); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, src, err)
	}

	vars := map[string]any{}
	if err := yaml.Unmarshal(buf, &vars); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, src, err)
	}
	c.scopes = append(c.scopes, scope{name: scopeName, path: fn, vars: vars})

	return nil
}

func (c *Config) applyDefaults() {
	defaults := []struct {
		field *string
		value string
	}{
		{&c.Venv, ".venv"},
		{&c.ServerConfig, "odoo.conf"},
		{&c.PyrightConfig, "pyrightconfig.json"},
		{&c.RequirementsDir, "requirements"},
		{&c.AggregateFile, "repos.yaml"},
		{&c.BackupsDir, "backups"},
	}
	for _, d := range defaults {
		if strings.TrimSpace(*d.field) == "" {
			*d.field = d.value
		}
	}
}

// Validate checks required keys and enumerations.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Odoo.Server) == "" {
		return fmt.Errorf("%w: odoo.server", ErrMissingKey)
	}
	if _, err := addonspath.ParseMissingPolicy(c.Addons.MissingCoreAddons); err != nil {
		return fmt.Errorf("%w: addons.missing_core_addons: %w", ErrInvalidConfig, err)
	}

	return nil
}

// Path resolves p against the project root with the same rules as the
// addons path computation. A path that can not be resolved is returned
// cleaned.
func (c *Config) Path(p string) string {
	out, err := addonspath.ResolvePath(p, c.Root)
	if err != nil {
		return filepath.Clean(p)
	}

	return out
}

// ServerPath returns the absolute core server checkout path.
func (c *Config) ServerPath() string { return c.Path(c.Odoo.Server) }

// VenvPath returns the absolute virtual environment path.
func (c *Config) VenvPath() string { return c.Path(c.Venv) }

// ServerConfigPath returns the absolute server config path.
func (c *Config) ServerConfigPath() string { return c.Path(c.ServerConfig) }

// PyrightConfigPath returns the absolute pyright config path.
func (c *Config) PyrightConfigPath() string { return c.Path(c.PyrightConfig) }

// MissingPolicy returns the parsed addons.missing_core_addons policy.
func (c *Config) MissingPolicy() addonspath.MissingPolicy {
	p, _ := addonspath.ParseMissingPolicy(c.Addons.MissingCoreAddons)

	return p
}

// PathOptions returns the options for addonspath.Compute.
func (c *Config) PathOptions() addonspath.Options {
	return addonspath.Options{
		Root:              c.Root,
		MissingCoreAddons: c.MissingPolicy(),
		Ignore:            c.Addons.Ignore,
	}
}

// Files returns the config files that were loaded, lowest priority first.
func (c *Config) Files() []string {
	out := make([]string, 0, len(c.scopes))
	for _, s := range c.scopes {
		if s.path != "" {
			out = append(out, s.path)
		}
	}

	return out
}

// Get looks up a dotted key (e.g. "odoo.server") in the loaded files, the
// project scope taking precedence over the user scope. Lists are rendered
// comma separated. Defaults are not reported.
func (c *Config) Get(key string) (string, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if v, found := lookup(c.scopes[i].vars, key); found {
			return render(v), true
		}
	}

	return "", false
}

// GetFrom returns the value for the given key from the given scope only.
// Valid scopes are user and project.
func (c *Config) GetFrom(key, scopeName string) (string, bool) {
	for _, s := range c.scopes {
		if s.name != strings.ToLower(scopeName) {
			continue
		}
		if v, found := lookup(s.vars, key); found {
			return render(v), true
		}
	}

	return "", false
}

// Keys returns all dotted leaf keys set in any scope, sorted.
func (c *Config) Keys() []string {
	keys := map[string]struct{}{}
	for _, s := range c.scopes {
		collectKeys(s.vars, "", keys)
	}

	return set.SortedKeys(keys)
}

func lookup(vars map[string]any, key string) (any, bool) {
	var cur any = vars
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}

	return cur, true
}

func collectKeys(m map[string]any, prefix string, out map[string]struct{}) {
	for k, v := range m {
		if sub, ok := v.(map[string]any); ok && len(sub) > 0 {
			collectKeys(sub, prefix+k+".", out)

			continue
		}
		out[prefix+k] = struct{}{}
	}
}

func render(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, render(e))
		}

		return strings.Join(parts, ",")
	case map[string]any:
		parts := make([]string, 0, len(t))
		for _, k := range set.SortedKeys(t) {
			parts = append(parts, k+"="+render(t[k]))
		}

		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(t)
	}
}
