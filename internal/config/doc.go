// Package config loads the snapdesk daemon configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/snapdesk/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing or empty, use defaults
//
// # TOML Format
//
//	socket_path = "/run/snapd.socket"
//	desktop_dirs = ["/var/lib/snapd/desktop/applications"]
//	log_level = "info"
//	log_format = "text"
//	log_file = "~/.local/state/snapdesk/snapdesk.log"
//	notifications = true
//	launcher_progress = true
//
// socket_path may also be an http:// URL, which is only useful against a
// test server. Tilde expansion is applied to socket_path, desktop_dirs and log_file.
// An empty log_file sends logs to stderr, or nowhere while the monitor owns
// the terminal.
//
// The thresholds that decide when a pending refresh turns into an alert are
// fixed and not configurable.
//
// # Error Handling
//
// Load returns errors for path expansion failures, read errors other than a
// missing file, TOML parse errors, and a log_format other than text or json.
// An unknown log_level is left for the logging package to reject.
package config
