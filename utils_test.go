package addonspath

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		pattern string
		input   string
		want    bool
		wantErr bool
	}{
		{
			name:    "single asterisk matches within component",
			pattern: "repos/*",
			input:   "repos/web",
			want:    true,
		},
		{
			name:    "double asterisk matches across components",
			pattern: "repos/**",
			input:   "repos/oca/web/addons",
			want:    true,
		},
		{
			name:    "single asterisk no match",
			pattern: "repos/*",
			input:   "repos/oca/web",
			want:    false,
		},
		{
			name:    "question mark matches single character",
			pattern: "v?",
			input:   "v1",
			want:    true,
		},
		{
			name:    "character class matching",
			pattern: "[ab]-addons",
			input:   "a-addons",
			want:    true,
		},
		{
			name:    "no match",
			pattern: "*.md",
			input:   "web",
			want:    false,
		},
		{
			name:    "empty pattern is ignored",
			pattern: "  ",
			input:   "anything",
			want:    false,
		},
		{
			name:    "invalid pattern - bad range",
			pattern: "[z-a].txt",
			wantErr: true,
		},
		{
			name:    "invalid pattern - bad bracket",
			pattern: "[.txt",
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m, err := compileMatcher([]string{tc.pattern})
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidPattern)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, m.Match(tc.input, ""))
		})
	}
}

func TestMatcherRelativeToRoot(t *testing.T) {
	t.Parallel()

	m, err := compileMatcher([]string{"repos/*"})
	require.NoError(t, err)

	root := filepath.Join(string(filepath.Separator), "project")
	assert.True(t, m.Match(filepath.Join(root, "repos", "web"), root))
	assert.False(t, m.Match(filepath.Join(root, "repos", "web"), ""))
	assert.False(t, m.Match(filepath.Join(string(filepath.Separator), "elsewhere", "repos", "web"), root))
	assert.False(t, matcher(nil).Match("/anything", root))
}

func TestResolvePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	root := filepath.Join(string(filepath.Separator), "project")

	for _, tc := range []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "  ", want: ""},
		{in: "/abs/path/", want: filepath.Clean("/abs/path")},
		{in: "rel/path", want: filepath.Join(root, "rel", "path")},
		{in: "./rel/../other", want: filepath.Join(root, "other")},
		{in: "~", want: home},
		{in: "~/src", want: filepath.Join(home, "src")},
		{in: "~user/src", want: filepath.Join(root, "~user", "src")},
	} {
		got, err := ResolvePath(tc.in, root)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	wd, err := os.Getwd()
	require.NoError(t, err)
	got, err := ResolvePath("x", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "x"), got)
}

func TestSplitLines(t *testing.T) {
	t.Parallel()

	for _, in := range []string{
		"",
		"a",
		"a\n",
		"a\nb",
		"a\nb\n",
		"\n\n",
		"a\r\nb\r\n",
	} {
		lines := splitLines(in)
		assert.Equal(t, in, strings.Join(lines, ""), "%q", in)
		for _, l := range lines[:max(len(lines)-1, 0)] {
			assert.True(t, strings.HasSuffix(l, "\n"), "%q in %q", l, in)
		}
	}

	assert.Equal(t, []string{"a\n", "b"}, splitLines("a\nb"))
	assert.Equal(t, "\r\n", lineEnding(splitLines("a\r\nb\n")))
	assert.Equal(t, "\n", lineEnding(nil))
	assert.Equal(t, "\r\n", eol("x\r\n", "\n"))
	assert.Equal(t, "\r\n", eol("x", "\r\n"))
}

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	td := t.TempDir()
	fn := filepath.Join(td, "nested", "dir", "odoo.conf")

	require.NoError(t, writeFileAtomic(fn, []byte("one\n"), 0o600))
	buf, err := os.ReadFile(fn)
	require.NoError(t, err)
	assert.Equal(t, "one\n", string(buf))

	require.NoError(t, writeFileAtomic(fn, []byte("two\n"), 0o644))
	buf, err = os.ReadFile(fn)
	require.NoError(t, err)
	assert.Equal(t, "two\n", string(buf))

	if runtime.GOOS != "windows" {
		fi, err := os.Stat(fn)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm(), "existing mode is kept")
	}

	entries, err := os.ReadDir(filepath.Dir(fn))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}
