package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/odoo-tools/addonspath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, fn, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(fn), 0o755))
	require.NoError(t, os.WriteFile(fn, []byte(content), 0o644))
}

func TestLoadProjectOnly(t *testing.T) {
	t.Parallel()

	td := t.TempDir()
	writeFile(t, filepath.Join(td, DefaultFile), `odoo:
  server: ../odoo
  enterprise: ../enterprise
  version: "17.0"
repos:
  - repos/web
  - /abs/server-tools
database: demo
addons:
  ignore:
    - "repos/wip-*"
  missing_core_addons: fail
`)

	l := &Loader{ProjectFile: DefaultFile}
	cfg, err := l.Load(td)
	require.NoError(t, err)

	assert.Equal(t, td, cfg.Root)
	assert.Equal(t, "../odoo", cfg.Odoo.Server)
	assert.Equal(t, "17.0", cfg.Odoo.Version)
	assert.Equal(t, Repos{"repos/web", "/abs/server-tools"}, cfg.Repos)
	assert.Equal(t, "demo", cfg.Database)
	assert.Equal(t, []string{"repos/wip-*"}, cfg.Addons.Ignore)
	assert.Equal(t, addonspath.MissingFail, cfg.MissingPolicy())

	// defaults
	assert.Equal(t, ".venv", cfg.Venv)
	assert.Equal(t, "odoo.conf", cfg.ServerConfig)
	assert.Equal(t, "pyrightconfig.json", cfg.PyrightConfig)
	assert.Equal(t, "requirements", cfg.RequirementsDir)
	assert.Equal(t, "repos.yaml", cfg.AggregateFile)
	assert.Equal(t, "backups", cfg.BackupsDir)

	// resolved paths
	assert.Equal(t, filepath.Join(filepath.Dir(td), "odoo"), cfg.ServerPath())
	assert.Equal(t, filepath.Join(td, ".venv"), cfg.VenvPath())
	assert.Equal(t, filepath.Join(td, "odoo.conf"), cfg.ServerConfigPath())
	assert.Equal(t, filepath.Join(td, "pyrightconfig.json"), cfg.PyrightConfigPath())

	opts := cfg.PathOptions()
	assert.Equal(t, td, opts.Root)
	assert.Equal(t, addonspath.MissingFail, opts.MissingCoreAddons)
	assert.Equal(t, []string{"repos/wip-*"}, opts.Ignore)

	assert.Equal(t, []string{filepath.Join(td, DefaultFile)}, cfg.Files())
}

func TestLoadScopes(t *testing.T) {
	t.Parallel()

	td := t.TempDir()
	user := filepath.Join(td, "home", "odoodev", "config.yaml")
	root := filepath.Join(td, "project")

	writeFile(t, user, `odoo:
  server: /srv/odoo
  enterprise: /srv/enterprise
venv: /opt/venvs/odoo
repos:
  - /srv/shared
addons:
  ignore: ["**/wip"]
`)
	writeFile(t, filepath.Join(root, DefaultFile), `odoo:
  server: ../odoo
repos:
  - repos/web
database: demo
`)

	l := &Loader{UserConfig: user, ProjectFile: DefaultFile}
	cfg, err := l.Load(root)
	require.NoError(t, err)

	// project overrides user
	assert.Equal(t, "../odoo", cfg.Odoo.Server)
	assert.Equal(t, Repos{"repos/web"}, cfg.Repos)
	// user values survive where the project is silent
	assert.Equal(t, "/srv/enterprise", cfg.Odoo.Enterprise)
	assert.Equal(t, "/opt/venvs/odoo", cfg.Venv)
	assert.Equal(t, "/opt/venvs/odoo", cfg.VenvPath())
	assert.Equal(t, []string{"**/wip"}, cfg.Addons.Ignore)

	assert.Equal(t, []string{user, filepath.Join(root, DefaultFile)}, cfg.Files())

	v, found := cfg.Get("odoo.server")
	assert.True(t, found)
	assert.Equal(t, "../odoo", v)

	v, found = cfg.GetFrom("odoo.server", "user")
	assert.True(t, found)
	assert.Equal(t, "/srv/odoo", v)

	v, found = cfg.Get("odoo.enterprise")
	assert.True(t, found)
	assert.Equal(t, "/srv/enterprise", v)

	v, found = cfg.Get("repos")
	assert.True(t, found)
	assert.Equal(t, "repos/web", v)

	_, found = cfg.Get("server_config")
	assert.False(t, found, "defaults are not reported")
	_, found = cfg.Get("odoo.server.deeper")
	assert.False(t, found)
	_, found = cfg.GetFrom("database", "nope")
	assert.False(t, found)

	assert.Equal(t, []string{
		"addons.ignore",
		"database",
		"odoo.enterprise",
		"odoo.server",
		"repos",
		"venv",
	}, cfg.Keys())
}

func TestLoadMissingUserConfigIsFine(t *testing.T) {
	t.Parallel()

	td := t.TempDir()
	writeFile(t, filepath.Join(td, DefaultFile), "odoo:\n  server: odoo\n")

	l := &Loader{UserConfig: filepath.Join(td, "nope", "config.yaml")}
	cfg, err := l.Load(td)
	require.NoError(t, err)
	assert.Equal(t, "odoo", cfg.Odoo.Server)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	t.Run("no project config", func(t *testing.T) {
		t.Parallel()

		_, err := (&Loader{}).Load(t.TempDir())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoProjectConfig)
	})

	t.Run("missing server", func(t *testing.T) {
		t.Parallel()

		td := t.TempDir()
		writeFile(t, filepath.Join(td, DefaultFile), "repos: [a]\n")

		_, err := (&Loader{}).Load(td)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMissingKey)
		assert.Contains(t, err.Error(), "odoo.server")
	})

	t.Run("broken yaml", func(t *testing.T) {
		t.Parallel()

		td := t.TempDir()
		writeFile(t, filepath.Join(td, DefaultFile), "odoo: [unclosed\n")

		_, err := (&Loader{}).Load(td)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("bad policy", func(t *testing.T) {
		t.Parallel()

		td := t.TempDir()
		writeFile(t, filepath.Join(td, DefaultFile), "odoo: {server: odoo}\naddons: {missing_core_addons: explode}\n")

		_, err := (&Loader{}).Load(td)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.ErrorIs(t, err, addonspath.ErrInvalidPolicy)
	})

	t.Run("broken user config", func(t *testing.T) {
		t.Parallel()

		td := t.TempDir()
		user := filepath.Join(td, "user.yaml")
		writeFile(t, user, "venv: [\n")
		writeFile(t, filepath.Join(td, DefaultFile), "odoo: {server: odoo}\n")

		_, err := (&Loader{UserConfig: user}).Load(td)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestLoadCustomProjectFile(t *testing.T) {
	t.Parallel()

	td := t.TempDir()
	writeFile(t, filepath.Join(td, "conf", "dev.yaml"), "odoo:\n  server: /srv/odoo\n")

	l := &Loader{ProjectFile: filepath.Join("conf", "dev.yaml")}
	cfg, err := l.Load(td)
	require.NoError(t, err)
	assert.Equal(t, "/srv/odoo", cfg.ServerPath())
}

func TestNewLoaderHonoursNoUser(t *testing.T) {
	t.Setenv(EnvPrefix+"_NOUSER", "1")

	assert.Empty(t, NewLoader().UserConfig)
	assert.Equal(t, DefaultFile, NewLoader().ProjectFile)
}

func TestPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := &Config{Root: "/project"}
	assert.Equal(t, "", cfg.Path(""))
	assert.Equal(t, filepath.Join("/project", "a", "b"), cfg.Path("a/b"))
	assert.Equal(t, filepath.Clean("/abs/x/"), cfg.Path("/abs/x/"))
	assert.Equal(t, filepath.Join(home, "src"), cfg.Path("~/src"))
	assert.Equal(t, home, cfg.Path("~"))
}

func TestServerPathMatchesComputedCore(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, "addons"), 0o755))
	t.Setenv("HOME", home)

	cfg, err := Parse([]byte("odoo:\n  server: \"~\"\n"), t.TempDir())
	require.NoError(t, err)

	ps, err := addonspath.Compute(cfg.Odoo.Server, "", nil, cfg.PathOptions())
	require.NoError(t, err)
	assert.Equal(t, cfg.ServerPath(), ps.Core())
	assert.Equal(t, home, cfg.ServerPath())
}

func TestParse(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte("odoo:\n  server: odoo\nrepos:\n  custom: repos/custom\n"), "/project")
	require.NoError(t, err)
	assert.Equal(t, Repos{"repos/custom"}, cfg.Repos)
	assert.Empty(t, cfg.Files())

	_, err = Parse([]byte(""), "/project")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingKey)
}
