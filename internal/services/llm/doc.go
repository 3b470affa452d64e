// Package llm provides an OpenRouter-compatible chat completions client used
// to write narration scripts.
//
// Requests ask for a JSON object response. The client tolerates providers
// that answer with the streaming schema, legacy completion text, or tool call
// arguments, and DecodeLLMJSON strips code fences and surrounding prose before
// decoding.
//
// Requests are retried on HTTP 408/429/5xx, empty content and network
// timeouts with exponential backoff (base 1s, max 10s, 5 attempts by
// default). Retry-After is honoured. Context cancellation stops retries
// immediately.
package llm
