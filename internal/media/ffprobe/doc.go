// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Prober: measures clip durations through a configured ffprobe binary
//
// Inspect executes ffprobe and returns the parsed Result. Helper methods on
// Result pick the container duration, falling back to the first audio stream
// when the container omits it.
package ffprobe
