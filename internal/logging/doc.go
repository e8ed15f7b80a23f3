// Package logging assembles structured slog loggers and formatting helpers used
// across mediatree components.
//
// It owns the console/JSON handlers, centralizes level and output plumbing, and
// exposes context-aware helpers so tree and scanner code can tag log lines with
// node IDs, scan IDs, and correlation IDs. A no-op logger is provided for tests
// and library code constructed without one.
package logging
