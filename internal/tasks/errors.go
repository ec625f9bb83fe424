package tasks

import "errors"

var (
	// ErrAddonsPathOutOfSync indicates the server config does not hold the computed addons path.
	ErrAddonsPathOutOfSync = errors.New("addons_path is out of sync")
	// ErrNoDatabase indicates neither the command line nor the config names a database.
	ErrNoDatabase = errors.New("no database given")
	// ErrInvalidFormat indicates an unknown backup format.
	ErrInvalidFormat = errors.New("invalid backup format")
	// ErrNoSource indicates a restore without a backup to restore from.
	ErrNoSource = errors.New("no backup source given")
)
