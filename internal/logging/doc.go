// Package logging assembles structured slog loggers and formatting helpers used
// across gnurante.
//
// It owns the console/JSON handlers, centralizes level and output plumbing, and
// exposes context-aware helpers so pipeline code automatically tags log lines
// with run IDs, stages, and correlation IDs. When a log directory is configured
// every record is also appended as JSON to gnurante.log. The package provides a
// no-op logger for tests and wiring code that cannot fail.
package logging
