// Package media describes the metadata a resolved tree node carries and the
// probes that produce it.
//
// Metadata is immutable once published on a node: duplicates share the same
// pointer, and derived copies (WithDuration) are made only when a split range
// changes the playable duration. Probing runs ffprobe, falls back to embedded
// audio tags through github.com/dhowden/tag, and attaches sidecar subtitle
// files found next to the source.
package media
