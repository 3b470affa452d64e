// Package logging assembles structured slog loggers and formatting helpers used
// across reelsmith.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with run keys, stages, and request IDs without threading attributes
// by hand. A no-op logger is provided for tests and wiring code that cannot
// fail.
package logging
