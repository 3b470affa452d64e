package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	TempDir    string `toml:"temp_dir"`
	OutputDir  string `toml:"output_dir"`
	LogDir     string `toml:"log_dir"`
	MusicDir   string `toml:"music_dir"`
	StateDir   string `toml:"state_dir"`
	LedgerPath string `toml:"ledger_path"`
	LockPath   string `toml:"lock_path"`
}

// API contains configuration for the HTTP front end.
type API struct {
	Bind                string `toml:"bind"`
	Token               string `toml:"token"`
	PublicBaseURL       string `toml:"public_base_url"`
	ReadTimeoutSeconds  int    `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `toml:"write_timeout_seconds"`
	IdleTimeoutSeconds  int    `toml:"idle_timeout_seconds"`
}

// Narration contains chunking and speech synthesis settings.
type Narration struct {
	MaxChunkLength        int    `toml:"max_chunk_length"`
	Provider              string `toml:"provider"`
	Language              string `toml:"language"`
	TTSBaseURL            string `toml:"tts_base_url"`
	CooldownSeconds       int    `toml:"cooldown_seconds"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	OpenAIAPIKey          string `toml:"openai_api_key"`
	OpenAIBaseURL         string `toml:"openai_base_url"`
	OpenAIModel           string `toml:"openai_model"`
	OpenAIVoice           string `toml:"openai_voice"`
}

// Timeline contains the two scalars relating raw audio to subtitle timing.
type Timeline struct {
	// PlaybackSpeed is the multiplier applied to narration audio at render time.
	PlaybackSpeed float64 `toml:"playback_speed"`
	// SyncCorrection scales displayed subtitle durations only. 1.0 disables it.
	SyncCorrection float64 `toml:"sync_correction"`
}

// Visuals contains image service settings.
type Visuals struct {
	BaseURL               string  `toml:"base_url"`
	Width                 int     `toml:"width"`
	Height                int     `toml:"height"`
	Attempts              int     `toml:"attempts"`
	BackoffSeconds        int     `toml:"backoff_seconds"`
	Parallelism           int     `toml:"parallelism"`
	RequestTimeoutSeconds int     `toml:"request_timeout_seconds"`
	MinViableRatio        float64 `toml:"min_viable_ratio"`
}

// Composition contains style and encoder parameters for the render plan.
type Composition struct {
	FPS           int     `toml:"fps"`
	ZoomCeiling   float64 `toml:"zoom_ceiling"`
	ZoomStep      float64 `toml:"zoom_step"`
	FontSize      int     `toml:"font_size"`
	BorderWidth   int     `toml:"border_width"`
	MarginBottom  int     `toml:"margin_bottom"`
	MusicVolume   float64 `toml:"music_volume"`
	VideoCodec    string  `toml:"video_codec"`
	Preset        string  `toml:"preset"`
	Tune          string  `toml:"tune"`
	AudioCodec    string  `toml:"audio_codec"`
	AudioBitrate  string  `toml:"audio_bitrate"`
	PixelFormat   string  `toml:"pix_fmt"`
	FFmpegBinary  string  `toml:"ffmpeg_binary"`
	FFprobeBinary string  `toml:"ffprobe_binary"`
}

// Generation contains topic-to-script settings.
type Generation struct {
	Provider            string   `toml:"provider"`
	PollinationsTextURL string   `toml:"pollinations_text_url"`
	TimeoutSeconds      int      `toml:"timeout_seconds"`
	SceneCount          int      `toml:"scene_count"`
	Styles              []string `toml:"styles"`
	FallbackPrompts     []string `toml:"fallback_prompts"`
	PromptSuffix        string   `toml:"prompt_suffix"`
}

// LLM contains chat-completions connection settings used for script generation.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	RunComplete    bool   `toml:"run_complete"`
	RunFailed      bool   `toml:"run_failed"`
}

// Workspace contains configuration for the per-run temporary area.
type Workspace struct {
	StaleAfterHours int `toml:"stale_after_hours"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for reelsmith.
//
// Configuration sections by subsystem:
//   - Paths: workspace, output, music, log and state locations
//   - API: HTTP bind address, token and timeouts
//   - Narration: chunking and speech synthesis
//   - Timeline: playback speed and subtitle sync correction
//   - Visuals: image service and retry policy
//   - Composition: render style and encoder parameters
//   - Generation: script provider, styles and fallback prompts
//   - LLM: chat-completions connection settings
//   - Notifications: ntfy push notification settings
//   - Workspace: stale run sweeping
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	API           API           `toml:"api"`
	Narration     Narration     `toml:"narration"`
	Timeline      Timeline      `toml:"timeline"`
	Visuals       Visuals       `toml:"visuals"`
	Composition   Composition   `toml:"composition"`
	Generation    Generation    `toml:"generation"`
	LLM           LLM           `toml:"llm"`
	Notifications Notifications `toml:"notifications"`
	Workspace     Workspace     `toml:"workspace"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelsmith/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelsmith.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for server and CLI operation.
// The music directory is optional and is not created.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.TempDir, c.Paths.OutputDir, c.Paths.LogDir, c.Paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used as the composition engine.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.Composition.FFmpegBinary); bin != "" {
		return bin
	}
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable used for clip durations.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.Composition.FFprobeBinary); bin != "" {
		return bin
	}
	return "ffprobe"
}

// Cooldown is the mandatory pause between consecutive speech requests.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.Narration.CooldownSeconds) * time.Second
}

// FetchBackoff is the wait between failed image attempts.
func (c *Config) FetchBackoff() time.Duration {
	return time.Duration(c.Visuals.BackoffSeconds) * time.Second
}

// StaleAfter is the age at which abandoned run directories are swept.
func (c *Config) StaleAfter() time.Duration {
	return time.Duration(c.Workspace.StaleAfterHours) * time.Hour
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains the LLM settings handed to the chat-completions client.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// GetLLM returns the LLM connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
	}
}
