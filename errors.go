package addonspath

import "errors"

var (
	// ErrRequiredPathMissing indicates the core server checkout is not configured or does not exist.
	ErrRequiredPathMissing = errors.New("required path missing")
	// ErrCoreAddonsMissing indicates the addons directory of the core server is missing
	// and the configured policy does not tolerate that.
	ErrCoreAddonsMissing = errors.New("core addons directory missing")
	// ErrInvalidPattern indicates an ignore pattern could not be compiled.
	ErrInvalidPattern = errors.New("invalid ignore pattern")
	// ErrInvalidPolicy indicates an unknown missing-path policy name.
	ErrInvalidPolicy = errors.New("invalid missing path policy")
	// ErrCreateConfigDir indicates a config directory could not be created.
	ErrCreateConfigDir = errors.New("failed to create config directory")
	// ErrWriteConfig indicates a config file could not be written.
	ErrWriteConfig = errors.New("failed to write config")
)
