// Package visuals downloads one illustration per scene prompt from the image
// generation service.
//
// Prompts are fetched concurrently with bounded parallelism. Each prompt has
// its own retry loop with a fresh seed per attempt; a prompt that never
// succeeds is omitted from the result rather than failing the batch. The
// caller decides whether the surviving assets are enough to render.
package visuals
