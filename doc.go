// Package addonspath keeps the addons_path of an Odoo server configuration in
// sync with the addons directories of a development checkout. It is a pure Go
// implementation that edits the INI-style server config in place while
// preserving everything it does not own: comments, blank lines, key order and
// other sections are copied byte for byte.
//
// # Usage
//
// Compute the ordered, duplicate free list of addons directories from the core
// server checkout, an optional enterprise checkout and the configured repos:
//
//	ps, err := addonspath.Compute("../odoo", "../enterprise", repos, addonspath.Options{
//		Root: projectRoot,
//	})
//	if err != nil {
//		// errors.Is(err, addonspath.ErrRequiredPathMissing) when ../odoo is missing
//	}
//
// The resulting order is:
//
//   - `<core>/addons` - always first, even if it does not exist yet (see MissingPolicy)
//   - `<enterprise>` - if configured, present and not the core path
//   - `<repos...>` - in configuration order; missing paths, the core path itself,
//     ignored paths and duplicates are skipped (first occurrence wins)
//
// Then install it into the server config:
//
//	cfg, err := addonspath.LoadServerConfig("odoo.conf")
//	if err != nil { ... }
//	changed, err := cfg.SetAddonsPath(ps.Paths())
//
// and, for editors, into a pyright config:
//
//	err := addonspath.WritePyrightConfig("pyrightconfig.json", ps.Paths())
//
// # Editing rules
//
// PatchAddonsPath is the pure text transformation behind SetAddonsPath:
//
//   - the first `addons_path` line inside `[options]` is replaced
//   - if there is none, the key is inserted after the first `[options]` header
//   - if there is no `[options]` section, one is appended at the end
//
// Additional `addons_path` lines in `[options]` are left untouched. Patching is
// idempotent. Writes are atomic (temporary file plus rename) and only happen if
// the content changed.
//
// Note: For tests and dry runs users will want to set `NoWrites = true` to avoid
// touching real files.
//
// # Error Handling
//
// Use errors.Is to detect common error categories:
//
//	if errors.Is(err, addonspath.ErrRequiredPathMissing) {
//		// the core server checkout is missing, nothing was written
//	}
//	if errors.Is(err, addonspath.ErrWriteConfig) {
//		// the file on disk is unchanged
//	}
//
// # Known limitations
//
// * No file locking, concurrent writers are not detected
// * Only the `[options]` section and its `addons_path` key are understood
// * Symlinks are not resolved, paths are only cleaned and made absolute
package addonspath
