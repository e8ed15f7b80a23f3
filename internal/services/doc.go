// Package services defines shared utilities consumed by the resource tree,
// the scanner, and the daemon's HTTP surface.
//
// Key responsibilities:
//   - Context helpers that stamp node IDs, scan IDs, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (not found, probe, cache, extraction) uniform.
//
// Use these helpers when wiring new content providers so operational
// behaviour (error handling, observability) stays uniform across the tree.
package services
