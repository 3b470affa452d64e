// Package speech converts narration units into audio clips.
//
// A Provider turns text into encoded audio bytes: GoogleTranslate calls the
// keyless translate_tts endpoint, OpenAI calls the audio/speech endpoint via
// go-openai. The Adapter wraps a provider with the mandatory cooldown gate,
// writes each clip into the run's workspace, and measures the clip's raw
// duration through a DurationProbe. The upstream services throttle or
// silently truncate output under burst load, so every call passes through
// one Gate that serializes requests and enforces a minimum interval.
package speech
