// Package api defines the wire-format types, converters, and client for the
// mediatree HTTP API. It translates tree nodes, scan state, and health checks
// into transport-friendly DTOs so the CLI and other consumers can render them
// without coupling to internal types.
//
// # Key Types
//
// Node: one tree node with its selected variant (engine, audio, subtitle,
// split range) and the playback-relevant parts of its metadata.
//
// NodeDetail: Node plus the full track lists of its resolved metadata.
//
// BrowseResponse: a container and its current children.
//
// DaemonStatus: lock, cache, registry, playback, scan, and disc state plus
// the preflight check results.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Durations are exposed in milliseconds and
// timestamps use RFC3339 with milliseconds. Node ids are the wire form the
// server accepts back in the id query parameter.
package api
