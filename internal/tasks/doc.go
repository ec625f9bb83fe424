// Package tasks implements the developer tasks of an Odoo project: creating
// the virtual environment, pinning and installing dependencies, fetching
// addons repos, installing git hooks, generating the server and editor
// configs, starting the server and backing up or restoring databases.
package tasks
