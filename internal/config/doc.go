// Package config loads, normalizes, and validates mediatree configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MEDIATREE_FOLDERS. The Config type centralizes every knob the daemon and
// CLI need: shared folders, transcoding engines, scan cadence, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, ranked engines, and clear validation errors.
package config
