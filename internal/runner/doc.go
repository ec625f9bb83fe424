// Package runner runs commands inside the project's Python virtual
// environment.
//
// Activation is done by environment injection instead of sourcing an
// activate script: VIRTUAL_ENV is set, the venv bin directory is put in
// front of PATH and PYTHONHOME is removed. Variables from an optional .env
// file in the project root are added for keys the process environment does
// not set.
package runner
