// Package render executes composition plans with ffmpeg.
//
// The engine is an external process. Its diagnostic output is returned
// unmodified in EngineError so callers can surface it as the run's failure
// message; renders are not retried.
package render
