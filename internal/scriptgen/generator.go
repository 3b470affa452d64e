package scriptgen

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/services"
	"reelsmith/internal/services/llm"
)

const seedRange = 1000

// Script is the narration and enhanced image prompts for one topic.
type Script struct {
	Topic         string
	Style         string
	Narration     string
	VisualPrompts []string
	// UsedFallback is set when the provider returned no scene descriptions.
	UsedFallback bool
}

// Scene is the single-image variant: one narration and one image prompt.
type Scene struct {
	Topic       string
	Style       string
	Script      string
	ImagePrompt string
}

// Generator turns topics into scripts.
type Generator struct {
	completer Completer
	styles    []string
	fallback  []string
	suffix    string
	scenes    int
	logger    *slog.Logger
}

// NewGenerator builds a generator around completer.
func NewGenerator(completer Completer, cfg config.Generation, logger *slog.Logger) *Generator {
	return &Generator{
		completer: completer,
		styles:    slices.Clone(cfg.Styles),
		fallback:  slices.Clone(cfg.FallbackPrompts),
		suffix:    cfg.PromptSuffix,
		scenes:    max(cfg.SceneCount, 1),
		logger:    logging.NewComponentLogger(logger, "scriptgen"),
	}
}

// NewCompleter selects the text provider named in the generation config.
func NewCompleter(cfg *config.Config) (Completer, error) {
	switch cfg.Generation.Provider {
	case "", "pollinations":
		return NewPollinations(cfg.Generation.PollinationsTextURL, time.Duration(cfg.Generation.TimeoutSeconds)*time.Second), nil
	case "llm":
		llmCfg := cfg.GetLLM()
		if llmCfg.APIKey == "" {
			return nil, services.Wrap(services.ErrConfiguration, "generating", "select provider", "llm.api_key is required for the llm provider", nil)
		}
		return LLMCompleter{Client: llm.NewClient(llm.Config{
			APIKey:         llmCfg.APIKey,
			BaseURL:        llmCfg.BaseURL,
			Model:          llmCfg.Model,
			Referer:        llmCfg.Referer,
			Title:          llmCfg.Title,
			TimeoutSeconds: llmCfg.TimeoutSeconds,
		})}, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "generating", "select provider",
			fmt.Sprintf("unsupported generation provider %q", cfg.Generation.Provider), nil)
	}
}

type storyPayload struct {
	Narration          string   `json:"narration"`
	VisualDescriptions []string `json:"visual_descriptions"`
	VisualPrompts      []string `json:"visual_prompts"`
}

type scenePayload struct {
	Narration    string `json:"narration"`
	VisualPrompt string `json:"visual_prompt"`
	ImagePrompt  string `json:"imagePrompt"`
}

// Generate writes a narration and enhanced visual prompts for topic.
func (g *Generator) Generate(ctx context.Context, topic string, rng *rand.Rand) (Script, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Script{}, services.Wrap(services.ErrValidation, "generating", "generate script", "topic is required", nil)
	}
	style := PickStyle(g.styles, rng)
	raw, err := g.completer.Complete(ctx, Request{
		System: systemPrompt,
		User:   storyPrompt(topic, style, g.scenes),
		Seed:   rng.IntN(seedRange),
	})
	if err != nil {
		return Script{}, services.Wrap(services.ErrGeneration, "generating", g.completer.Name(), "text generation request", err)
	}

	var payload storyPayload
	if err := llm.DecodeLLMJSON(llm.StripCodeFences(raw), &payload); err != nil {
		return Script{}, services.Wrap(services.ErrGeneration, "generating", g.completer.Name(), "decode script json", err)
	}
	narration := strings.TrimSpace(payload.Narration)
	if narration == "" {
		return Script{}, services.Wrap(services.ErrGeneration, "generating", g.completer.Name(), "response has no narration", nil)
	}

	descriptions := nonEmpty(payload.VisualDescriptions)
	if len(descriptions) == 0 {
		descriptions = nonEmpty(payload.VisualPrompts)
	}
	script := Script{Topic: topic, Style: style, Narration: narration}
	if len(descriptions) == 0 {
		descriptions = slices.Clone(g.fallback)
		script.UsedFallback = true
		logging.WarnWithContext(logging.WithContext(ctx, g.logger), "no scene descriptions returned", "fallback_prompts",
			logging.String(logging.FieldErrorHint, "provider ignored the scene list"),
			logging.String(logging.FieldImpact, "generic fallback prompts used"),
			logging.Int("fallback_prompts", len(descriptions)),
		)
	}
	for _, desc := range descriptions {
		script.VisualPrompts = append(script.VisualPrompts, EnhancePrompt(topic, desc, g.suffix))
	}

	logging.WithContext(ctx, g.logger).Info("script generated",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("provider", g.completer.Name()),
		logging.String("style", style),
		logging.Int("narration_chars", len([]rune(narration))),
		logging.Int("visual_prompts", len(script.VisualPrompts)),
	)
	return script, nil
}

// GenerateScene writes the single-image variant for topic.
func (g *Generator) GenerateScene(ctx context.Context, topic string, rng *rand.Rand) (Scene, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Scene{}, services.Wrap(services.ErrValidation, "generating", "generate scene", "topic is required", nil)
	}
	style := PickStyle(g.styles, rng)
	raw, err := g.completer.Complete(ctx, Request{
		System: systemPrompt,
		User:   scenePrompt(topic, style),
		Seed:   rng.IntN(seedRange),
	})
	if err != nil {
		return Scene{}, services.Wrap(services.ErrGeneration, "generating", g.completer.Name(), "text generation request", err)
	}
	var payload scenePayload
	if err := llm.DecodeLLMJSON(llm.StripCodeFences(raw), &payload); err != nil {
		return Scene{}, services.Wrap(services.ErrGeneration, "generating", g.completer.Name(), "decode scene json", err)
	}
	scene := Scene{
		Topic:       topic,
		Style:       style,
		Script:      strings.TrimSpace(payload.Narration),
		ImagePrompt: strings.TrimSpace(payload.VisualPrompt),
	}
	if scene.ImagePrompt == "" {
		scene.ImagePrompt = strings.TrimSpace(payload.ImagePrompt)
	}
	if scene.Script == "" {
		return Scene{}, services.Wrap(services.ErrGeneration, "generating", g.completer.Name(), "response has no narration", nil)
	}
	if scene.ImagePrompt == "" && len(g.fallback) > 0 {
		scene.ImagePrompt = g.fallback[0]
	}
	scene.ImagePrompt = EnhancePrompt(topic, scene.ImagePrompt, g.suffix)
	return scene, nil
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
