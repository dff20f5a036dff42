// Package config loads and validates the jellysweep TOML configuration.
//
// A config file is optional: the server URL and API key can be supplied
// entirely through command-line flags, and flags always win over file values.
// Path fields are expanded (~ and relative segments) during load so the rest
// of the program only ever sees absolute paths.
package config
