// Package main hosts the mediatree CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the daemon in the foreground, translates
// browse, node, scan, and status invocations into HTTP API calls against a
// running daemon, and offers offline maintenance for the metadata cache and
// the persisted list files. It centralizes configuration resolution and API
// address discovery so subcommands can focus on rendering.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
