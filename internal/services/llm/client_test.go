package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func completionHandler(t *testing.T, choice map[string]any) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewEncoder(w).Encode(map[string]any{"choices": []any{choice}}); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}
}

func TestClientHealthCheck(t *testing.T) {
	server := httptest.NewServer(completionHandler(t, map[string]any{
		"message": map[string]any{"content": "```json\n{\"ok\":true}\n```"},
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"})
	if err := client.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check to fail")
	}
}

func TestCompleteJSONSendsHeadersAndPrompts(t *testing.T) {
	var got chatCompletionRequest
	var headers http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{
			map[string]any{"message": map[string]any{"content": `{"narration":"x"}`}},
		}})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "m", Referer: "https://ref", Title: "writer"})
	content, err := client.CompleteJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteJSON returned error: %v", err)
	}
	if content != `{"narration":"x"}` {
		t.Fatalf("unexpected content %q", content)
	}
	if headers.Get("Authorization") != "Bearer k" || headers.Get("X-Title") != "writer" || headers.Get("HTTP-Referer") != "https://ref" {
		t.Fatalf("unexpected headers %v", headers)
	}
	if got.Model != "m" || len(got.Messages) != 2 || got.Messages[1].Content != "user" || got.Temperature != defaultTemperature {
		t.Fatalf("unexpected request %+v", got)
	}
	if got.ResponseFormat["type"] != "json_object" {
		t.Fatalf("expected json response format, got %v", got.ResponseFormat)
	}
}

func TestCompleteJSONRequiresKey(t *testing.T) {
	if _, err := NewClient(Config{}).CompleteJSON(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected missing key error")
	}
}

func TestCompleteJSONToolCallArguments(t *testing.T) {
	server := httptest.NewServer(completionHandler(t, map[string]any{
		"finish_reason": "tool_calls",
		"message": map[string]any{
			"content": "",
			"tool_calls": []any{map[string]any{
				"type":     "function",
				"function": map[string]any{"name": "write", "arguments": `{"narration":"tool"}`},
			}},
		},
	}))
	defer server.Close()

	content, err := NewClient(Config{APIKey: "k", BaseURL: server.URL}).CompleteJSON(context.Background(), "s", "u")
	if err != nil || !strings.Contains(content, "tool") {
		t.Fatalf("unexpected content %q err=%v", content, err)
	}
}

func TestCompleteJSONDeltaAndLegacyText(t *testing.T) {
	for name, choice := range map[string]map[string]any{
		"delta":  {"delta": map[string]any{"content": `{"a":1}`}},
		"legacy": {"text": `{"a":1}`},
	} {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(completionHandler(t, choice))
			defer server.Close()
			content, err := NewClient(Config{APIKey: "k", BaseURL: server.URL}).CompleteJSON(context.Background(), "s", "u")
			if err != nil || content != `{"a":1}` {
				t.Fatalf("unexpected content %q err=%v", content, err)
			}
		})
	}
}

func TestCompleteJSONEmptyContentHasSnippet(t *testing.T) {
	server := httptest.NewServer(completionHandler(t, map[string]any{
		"finish_reason": "stop",
		"message":       map[string]any{"content": ""},
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL},
		WithRetryBackoff(0, 0),
		WithSleeper(func(time.Duration) {}),
	)
	_, err := client.CompleteJSON(context.Background(), "s", "u")
	if err == nil {
		t.Fatal("expected failure")
	}
	if !strings.Contains(err.Error(), "empty content") || !strings.Contains(err.Error(), "response_snippet=") {
		t.Fatalf("expected empty-content error to include snippet, got %v", err)
	}
}

func TestClientRetriesOnHTTP429(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{
			map[string]any{"message": map[string]any{"content": `{"ok":true}`}},
		}})
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryBackoff(0, 10*time.Second),
	)
	if _, err := client.CompleteJSON(context.Background(), "s", "u"); err != nil {
		t.Fatalf("CompleteJSON returned error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep of 1s, got %v", slept)
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL}, WithSleeper(func(time.Duration) {}))
	if _, err := client.CompleteJSON(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestBackoffDelayDoublesAndCaps(t *testing.T) {
	client := NewClient(Config{}, WithRetryBackoff(time.Second, 5*time.Second))
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second}
	for i, expected := range want {
		if got := client.backoffDelay(i + 1); got != expected {
			t.Fatalf("attempt %d: got %s want %s", i+1, got, expected)
		}
	}
}

func TestDecodeLLMJSON(t *testing.T) {
	var target struct {
		Narration string `json:"narration"`
	}
	inputs := []string{
		`{"narration":"a"}`,
		"```json\n{\"narration\":\"a\"}\n```",
		"Here you go: {\"narration\":\"a\"} enjoy",
	}
	for _, input := range inputs {
		target.Narration = ""
		if err := DecodeLLMJSON(input, &target); err != nil || target.Narration != "a" {
			t.Fatalf("input %q: got %q err=%v", input, target.Narration, err)
		}
	}
	if err := DecodeLLMJSON("not json", &target); err == nil {
		t.Fatal("expected decode error")
	}
}
