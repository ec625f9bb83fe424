package project

import "errors"

var (
	// ErrNoProjectConfig indicates the project config file does not exist.
	ErrNoProjectConfig = errors.New("no project config")
	// ErrMissingKey indicates a required key is not set in any scope.
	ErrMissingKey = errors.New("missing required key")
	// ErrInvalidConfig indicates a config file could not be decoded or holds invalid values.
	ErrInvalidConfig = errors.New("invalid config")
)
