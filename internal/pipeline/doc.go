// Package pipeline drives one topic-to-video run through its states:
// generating, synthesizing, timing and fetching side by side, planning,
// rendering, then done or failed.
//
// Speech calls are strictly sequential and share one cooldown gate across
// all runs the Runner serves. Timing (timeline, subtitles, narration track)
// and fetching (images) run concurrently and planning waits for both. Each
// run owns a workspace directory keyed by its run key; the directory is
// removed on success and on failure, and only the rendered video survives
// in the output directory.
package pipeline
