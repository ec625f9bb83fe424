package runner

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.True(t, ExitCode(0).IsSuccess())
	assert.False(t, ExitCode(3).IsSuccess())
	assert.Equal(t, "3", ExitCode(3).String())
}

func TestExitError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("deps: %w", &ExitError{Argv: []string{"uv", "pip", "install"}, Code: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.Contains(t, err.Error(), "uv pip install exited with status 2")

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, ExitCode(2), exitErr.Code)
}

func TestCodeOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ExitCode(0), CodeOf(nil))
	assert.Equal(t, ExitCode(4), CodeOf(fmt.Errorf("wrapped: %w", &ExitError{Code: 4})))
	assert.Equal(t, ExitCode(1), CodeOf(errors.New("boom")))
}
