// Package services defines shared utilities consumed by the pipeline stages
// and their external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp submission names, stage names, and
//     correlation identifiers for logging.
//   - Structured failure markers plus the Wrap helper that let the workflow
//     manager decide, by kind, how a failed submission is recorded.
//   - The Executor abstraction that makes the storage uploader and the XSLT
//     processor testable without spawning real commands.
//
// Use these helpers when wiring new stage logic so failure handling and
// observability stay uniform across the pipeline.
package services
