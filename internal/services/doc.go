// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run keys, stage names, and request
//     identifiers for logging and tracing.
//   - Sentinel error markers for every failure class a run can hit, plus the
//     Wrap helper that keeps stage and operation context in the message while
//     preserving errors.Is for both the marker and the cause.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
