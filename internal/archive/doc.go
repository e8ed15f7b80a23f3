// Package archive exposes zip archive contents as tree nodes.
//
// Entries have no direct file handle. Their leaves push bytes instead: a
// worker goroutine opens the archive, finds the entry by its stored path and
// copies the decompressed bytes into the sink, closing everything on every
// exit path. A sink closed early by a disconnecting client ends the worker
// quietly. Entries at or below the configured size limit report themselves
// seekable; larger ones are forward-only.
package archive
