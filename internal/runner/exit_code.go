package runner

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrCommandFailed is wrapped by ExitError.
	ErrCommandFailed = errors.New("command failed")
	// ErrCommandNotFound indicates the executable could not be found.
	ErrCommandNotFound = errors.New("command not found")
	// ErrEmptyCommand indicates Run was called without an argv.
	ErrEmptyCommand = errors.New("empty command")
)

// ExitCode is a process exit status. The zero value means success.
type ExitCode int

// IsSuccess returns true if the exit code indicates successful execution.
func (c ExitCode) IsSuccess() bool { return c == 0 }

// String returns the decimal string representation of the ExitCode.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }

// ExitError is returned when a command ran but exited non-zero.
type ExitError struct {
	Argv []string
	Code ExitCode
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %s", strings.Join(e.Argv, " "), e.Code)
}

// Unwrap returns ErrCommandFailed so callers can use errors.Is.
func (e *ExitError) Unwrap() error { return ErrCommandFailed }

// CodeOf returns the exit code carried by err: 0 for nil, the child's status
// for an *ExitError and 1 otherwise.
func CodeOf(err error) ExitCode {
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	return 1
}
