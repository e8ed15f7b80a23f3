// Package daemon coordinates the long-running mediatree process.
//
// It wires configuration, the metadata cache, the resource tree with its
// library root, the history list, the background scanner, and the optical
// watcher into a single lifecycle with flock-based locking to prevent
// multiple instances. The daemon also serves the JSON HTTP API used by the
// CLI and other clients to browse the tree, inspect nodes, stream bytes, and
// control scans.
//
// Keep orchestration logic here: node behavior lives in the library, archive,
// transcode, and lists packages while the daemon focuses on startup, shutdown,
// and high level coordination.
package daemon
