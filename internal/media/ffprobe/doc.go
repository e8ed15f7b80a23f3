// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// This package has no mediatree-specific dependencies.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video/subtitle stream properties and tags
//   - Format: container-level metadata (duration, size, bitrate, tags)
//
// Primary entry points are Inspect, which executes ffprobe, and Parse, which
// decodes an already captured payload.
package ffprobe
