// Package metacache persists probed media metadata in SQLite, keyed on the
// absolute file path and its modification time.
//
// A row is only returned when the stored mtime matches the caller's. Rows
// that fail to decode (schema drift, truncated writes) are deleted and
// reported as misses so the file is probed again; cache problems never reach
// the caller as errors on the read path.
package metacache
