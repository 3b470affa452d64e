package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateNarration(); err != nil {
		return err
	}
	if err := c.validateTimeline(); err != nil {
		return err
	}
	if err := c.validateVisuals(); err != nil {
		return err
	}
	if err := c.validateComposition(); err != nil {
		return err
	}
	if err := c.validateGeneration(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Workspace.StaleAfterHours < 0 {
		return errors.New("workspace.stale_after_hours must be non-negative")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.ReadTimeoutSeconds <= 0 {
		return errors.New("api.read_timeout_seconds must be positive")
	}
	if c.API.WriteTimeoutSeconds <= 0 {
		return errors.New("api.write_timeout_seconds must be positive")
	}
	if c.API.IdleTimeoutSeconds <= 0 {
		return errors.New("api.idle_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateNarration() error {
	if c.Narration.MaxChunkLength <= 0 {
		return errors.New("narration.max_chunk_length must be positive")
	}
	if c.Narration.CooldownSeconds < 0 {
		return errors.New("narration.cooldown_seconds must be non-negative")
	}
	if c.Narration.RequestTimeoutSeconds <= 0 {
		return errors.New("narration.request_timeout_seconds must be positive")
	}
	switch c.Narration.Provider {
	case "google_translate":
		if c.Narration.TTSBaseURL == "" {
			return errors.New("narration.tts_base_url must be set for the google_translate provider")
		}
		if c.Narration.Language == "" {
			return errors.New("narration.language must be set for the google_translate provider")
		}
	case "openai":
		if c.Narration.OpenAIAPIKey == "" {
			return errors.New("narration.openai_api_key is required for the openai provider. Set OPENAI_API_KEY env var or edit the config file")
		}
		if c.Narration.OpenAIVoice == "" {
			return errors.New("narration.openai_voice must be set for the openai provider")
		}
	default:
		return fmt.Errorf("unsupported narration.provider %q (expected google_translate or openai)", c.Narration.Provider)
	}
	return nil
}

func (c *Config) validateTimeline() error {
	if c.Timeline.PlaybackSpeed <= 0 {
		return errors.New("timeline.playback_speed must be positive")
	}
	// The planner chains atempo instances, so any positive speed renders.
	if c.Timeline.SyncCorrection <= 0 {
		return errors.New("timeline.sync_correction must be positive")
	}
	return nil
}

func (c *Config) validateVisuals() error {
	if c.Visuals.BaseURL == "" {
		return errors.New("visuals.base_url must be set")
	}
	if c.Visuals.Width <= 0 || c.Visuals.Height <= 0 {
		return errors.New("visuals.width and visuals.height must be positive")
	}
	if c.Visuals.Attempts <= 0 {
		return errors.New("visuals.attempts must be positive")
	}
	if c.Visuals.BackoffSeconds < 0 {
		return errors.New("visuals.backoff_seconds must be non-negative")
	}
	if c.Visuals.RequestTimeoutSeconds <= 0 {
		return errors.New("visuals.request_timeout_seconds must be positive")
	}
	if c.Visuals.MinViableRatio < 0 || c.Visuals.MinViableRatio > 1 {
		return errors.New("visuals.min_viable_ratio must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateComposition() error {
	if c.Composition.FPS <= 0 {
		return errors.New("composition.fps must be positive")
	}
	if c.Composition.ZoomCeiling < 1 {
		return errors.New("composition.zoom_ceiling must be at least 1.0")
	}
	if c.Composition.ZoomStep < 0 {
		return errors.New("composition.zoom_step must be non-negative")
	}
	if c.Composition.FontSize <= 0 {
		return errors.New("composition.font_size must be positive")
	}
	if c.Composition.MusicVolume < 0 || c.Composition.MusicVolume > 1 {
		return errors.New("composition.music_volume must be between 0 and 1")
	}
	if c.Composition.VideoCodec == "" || c.Composition.AudioCodec == "" {
		return errors.New("composition.video_codec and composition.audio_codec must be set")
	}
	return nil
}

func (c *Config) validateGeneration() error {
	switch c.Generation.Provider {
	case "pollinations":
		if c.Generation.PollinationsTextURL == "" {
			return errors.New("generation.pollinations_text_url must be set for the pollinations provider")
		}
	case "llm":
		if c.LLM.APIKey == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = "~/.config/reelsmith/config.toml"
			}
			return fmt.Errorf("llm.api_key is required for the llm generation provider. Set OPENROUTER_API_KEY env var or edit %s (create with 'reelsmith config init')", defaultPath)
		}
	default:
		return fmt.Errorf("unsupported generation.provider %q (expected pollinations or llm)", c.Generation.Provider)
	}
	if c.Generation.TimeoutSeconds <= 0 {
		return errors.New("generation.timeout_seconds must be positive")
	}
	if c.Generation.SceneCount <= 0 {
		return errors.New("generation.scene_count must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not recognized", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be non-negative")
	}
	return nil
}
