package scriptgen_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reelsmith/internal/config"
	"reelsmith/internal/scriptgen"
	"reelsmith/internal/services"
)

type fakeCompleter struct {
	reply    string
	err      error
	requests []scriptgen.Request
}

func (f *fakeCompleter) Name() string { return "fake" }

func (f *fakeCompleter) Complete(_ context.Context, req scriptgen.Request) (string, error) {
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

func newGenerator(c scriptgen.Completer) *scriptgen.Generator {
	return scriptgen.NewGenerator(c, config.Default().Generation, nil)
}

func TestGenerateEnhancesDescriptions(t *testing.T) {
	fake := &fakeCompleter{reply: "```json\n{\"narration\":\"Đêm đó trời mưa.\",\"visual_descriptions\":[\"empty corridor\",\" \",\"red door\"]}\n```"}
	script, err := newGenerator(fake).Generate(context.Background(), "Nhà hoang", rand.New(rand.NewPCG(1, 2)))
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if script.Narration != "Đêm đó trời mưa." {
		t.Fatalf("unexpected narration %q", script.Narration)
	}
	want := []string{
		"Nhà hoang, empty corridor, cinematic lighting, 8k, photorealistic, horror movie style, dark atmosphere, highly detailed",
		"Nhà hoang, red door, cinematic lighting, 8k, photorealistic, horror movie style, dark atmosphere, highly detailed",
	}
	if len(script.VisualPrompts) != len(want) {
		t.Fatalf("unexpected prompts %v", script.VisualPrompts)
	}
	for i := range want {
		if script.VisualPrompts[i] != want[i] {
			t.Fatalf("prompt %d: got %q want %q", i, script.VisualPrompts[i], want[i])
		}
	}
	if script.UsedFallback || script.Style == "" {
		t.Fatalf("unexpected script metadata %+v", script)
	}
	if !strings.Contains(fake.requests[0].User, `"Nhà hoang"`) || !strings.Contains(fake.requests[0].User, script.Style) {
		t.Fatalf("prompt does not carry topic and style: %s", fake.requests[0].User)
	}
	if strings.Count(fake.requests[0].User, "Mô tả ngắn gọn cảnh") != 8 {
		t.Fatalf("expected 8 scene slots in prompt")
	}
}

func TestGenerateAcceptsVisualPromptsKey(t *testing.T) {
	fake := &fakeCompleter{reply: `{"narration":"x","visual_prompts":["moonlit well"]}`}
	script, err := newGenerator(fake).Generate(context.Background(), "well", rand.New(rand.NewPCG(3, 4)))
	if err != nil {
		t.Fatal(err)
	}
	if len(script.VisualPrompts) != 1 || !strings.HasPrefix(script.VisualPrompts[0], "well, moonlit well, ") {
		t.Fatalf("unexpected prompts %v", script.VisualPrompts)
	}
}

func TestGenerateFallsBackToFixedPrompts(t *testing.T) {
	fake := &fakeCompleter{reply: `{"narration":"x"}`}
	script, err := newGenerator(fake).Generate(context.Background(), "topic", rand.New(rand.NewPCG(5, 6)))
	if err != nil {
		t.Fatal(err)
	}
	if !script.UsedFallback || len(script.VisualPrompts) != 8 {
		t.Fatalf("expected 8 fallback prompts, got %+v", script)
	}
	if !strings.HasPrefix(script.VisualPrompts[0], "topic, horror scene, ") || !strings.HasPrefix(script.VisualPrompts[7], "topic, moon, ") {
		t.Fatalf("unexpected fallback prompts %v", script.VisualPrompts)
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := map[string]struct {
		completer *fakeCompleter
		topic     string
		marker    error
	}{
		"empty topic":  {&fakeCompleter{}, "  ", services.ErrValidation},
		"upstream":     {&fakeCompleter{err: errors.New("timeout")}, "t", services.ErrGeneration},
		"bad json":     {&fakeCompleter{reply: "I cannot help"}, "t", services.ErrGeneration},
		"no narration": {&fakeCompleter{reply: `{"visual_prompts":["a"]}`}, "t", services.ErrGeneration},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := newGenerator(tc.completer).Generate(context.Background(), tc.topic, rand.New(rand.NewPCG(1, 1)))
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v, got %v", tc.marker, err)
			}
		})
	}
}

func TestGenerateScene(t *testing.T) {
	fake := &fakeCompleter{reply: `{"narration":"Tiếng gõ cửa.","visual_prompt":"old wooden door at night"}`}
	scene, err := newGenerator(fake).GenerateScene(context.Background(), "gõ cửa", rand.New(rand.NewPCG(9, 9)))
	if err != nil {
		t.Fatal(err)
	}
	if scene.Script != "Tiếng gõ cửa." || !strings.HasPrefix(scene.ImagePrompt, "gõ cửa, old wooden door at night, ") {
		t.Fatalf("unexpected scene %+v", scene)
	}
}

func TestPickStyleIsDeterministicForSource(t *testing.T) {
	styles := config.Default().Generation.Styles
	a := scriptgen.PickStyle(styles, rand.New(rand.NewPCG(42, 0)))
	b := scriptgen.PickStyle(styles, rand.New(rand.NewPCG(42, 0)))
	if a != b || a == "" {
		t.Fatalf("expected same style from same source, got %q and %q", a, b)
	}
	if scriptgen.PickStyle(nil, rand.New(rand.NewPCG(1, 1))) != "" {
		t.Fatal("expected empty style for empty list")
	}
}

func TestPollinationsRequest(t *testing.T) {
	var path, query string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		query = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"narration":"ok"}`))
	}))
	defer server.Close()

	provider := scriptgen.NewPollinations(server.URL+"/", time.Second)
	got, err := provider.Complete(context.Background(), scriptgen.Request{System: "sys", User: "viết truyện", Seed: 7})
	if err != nil {
		t.Fatal(err)
	}
	if got != `{"narration":"ok"}` {
		t.Fatalf("unexpected body %q", got)
	}
	if path != "/sys\n\nviết truyện" {
		t.Fatalf("unexpected decoded path %q", path)
	}
	if query != "json=true&model=openai&seed=7" {
		t.Fatalf("unexpected query %q", query)
	}
}

func TestPollinationsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()
	if _, err := scriptgen.NewPollinations(server.URL, time.Second).Complete(context.Background(), scriptgen.Request{User: "x"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewCompleterSelection(t *testing.T) {
	cfg := config.Default()
	c, err := scriptgen.NewCompleter(&cfg)
	if err != nil || c.Name() != "pollinations" {
		t.Fatalf("expected pollinations, got %v %v", c, err)
	}
	cfg.Generation.Provider = "llm"
	if _, err := scriptgen.NewCompleter(&cfg); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error without key, got %v", err)
	}
	cfg.LLM.APIKey = "k"
	c, err = scriptgen.NewCompleter(&cfg)
	if err != nil || c.Name() != "llm" {
		t.Fatalf("expected llm, got %v %v", c, err)
	}
}
