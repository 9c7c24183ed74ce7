// Package services defines shared utilities consumed by the pipeline stages and
// the external tool adapters.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures as
//     transient, configuration, validation or external-tool problems.
//   - ExitCode, which turns those markers into CLI exit statuses.
//
// Use these helpers when wiring new adapters so error handling and
// observability stay uniform across the pipeline.
package services
