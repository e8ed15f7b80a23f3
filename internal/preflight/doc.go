// Package preflight provides readiness checks for the filesystem paths and
// external binaries mediatree depends on.
//
// The daemon runs RunAll at startup and logs every failed check; the CLI
// "mediatree check" command renders the same results as a table.
package preflight
