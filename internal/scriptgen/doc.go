// Package scriptgen writes the narration and scene prompts for a topic.
//
// Two text providers are supported: an OpenRouter-compatible chat completions
// endpoint through services/llm, and the keyless Pollinations text endpoint.
// Both are asked for a JSON object. Scene descriptions are accepted under
// visual_descriptions or visual_prompts; when neither is present a fixed list
// of fallback prompts is used. Every scene description is then expanded with
// the topic and a shared style suffix before it reaches the image service.
//
// Randomness (style choice, request seeds) comes from a *rand.Rand supplied by
// the caller so concurrent runs never share a source.
package scriptgen
