// Package project loads the YAML project configuration of an Odoo
// development checkout.
//
// Configuration is read from these locations in order (i.e. the later ones
// take precedence):
//
//   - `user` - `$XDG_CONFIG_HOME/odoodev/config.yaml` (defaults shared by all projects)
//   - `project` - `<root>/config.yaml`
//
// Scalar keys from a later scope override earlier ones. Lists (`repos`,
// `addons.ignore`) are taken from the last scope that sets them. Setting
// ODOODEV_NOUSER to any value skips the user scope.
//
// The configuration is loaded once by the entry point and handed down to
// every task. There is no package level state.
package project
