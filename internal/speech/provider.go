package speech

import (
	"fmt"
	"time"

	"reelsmith/internal/config"
)

// NewProvider builds the provider selected in the narration config.
func NewProvider(cfg config.Narration) (Provider, error) {
	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	switch cfg.Provider {
	case "", "google_translate":
		return NewGoogleTranslate(cfg.TTSBaseURL, cfg.Language, timeout), nil
	case "openai":
		return NewOpenAI(OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Voice:   cfg.OpenAIVoice,
			Timeout: timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported speech provider %q", cfg.Provider)
	}
}
