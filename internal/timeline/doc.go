// Package timeline derives the subtitle track for a run.
//
// Build turns ordered (unit, raw duration) pairs into a gap-free, monotonic
// sequence of display windows. Each window is (raw / speed) * correction, where
// speed is the playback multiplier applied to the narration at render time and
// correction is an empirical scalar applied to subtitle timing only. Times are
// accumulated as float seconds and converted to SRT text only at emission, so
// rounding never feeds back into later entries.
//
// The package also renders, parses, and validates SRT documents.
package timeline
