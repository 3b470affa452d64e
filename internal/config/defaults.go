package config

const (
	defaultTempDir                = "~/.local/share/reelsmith/tmp"
	defaultOutputDir              = "~/.local/share/reelsmith/output"
	defaultLogDir                 = "~/.local/state/reelsmith/logs"
	defaultMusicDir               = "~/.local/share/reelsmith/music"
	defaultStateDir               = "~/.local/state/reelsmith"
	defaultLogRetentionDays       = 30
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultAPIBind                = "127.0.0.1:3001"
	defaultAPIReadTimeout         = 60
	defaultAPIWriteTimeout        = 1800
	defaultAPIIdleTimeout         = 120
	defaultMaxChunkLength         = 180
	defaultSpeechProvider         = "google_translate"
	defaultSpeechLanguage         = "vi"
	defaultTTSBaseURL             = "https://translate.google.com/translate_tts"
	defaultSpeechCooldown         = 2
	defaultSpeechTimeout          = 15
	defaultOpenAISpeechModel      = "tts-1"
	defaultOpenAISpeechVoice      = "alloy"
	defaultPlaybackSpeed          = 1.2
	defaultSyncCorrection         = 1.0
	defaultImageBaseURL           = "https://image.pollinations.ai/prompt"
	defaultImageWidth             = 1080
	defaultImageHeight            = 1920
	defaultImageAttempts          = 3
	defaultImageBackoff           = 2
	defaultImageParallelism       = 8
	defaultImageTimeout           = 30
	defaultMinViableRatio         = 0.5
	defaultFPS                    = 30
	defaultZoomCeiling            = 1.2
	defaultZoomStep               = 0.0005
	defaultFontSize               = 60
	defaultBorderWidth            = 4
	defaultMarginBottom           = 120
	defaultMusicVolume            = 0.3
	defaultGenerationProvider     = "pollinations"
	defaultPollinationsTextURL    = "https://text.pollinations.ai"
	defaultGenerationTimeout      = 300
	defaultSceneCount             = 8
	defaultPromptSuffix           = "cinematic lighting, 8k, photorealistic, horror movie style, dark atmosphere, highly detailed"
	defaultLLMBaseURL             = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel               = "google/gemini-3-flash-preview"
	defaultLLMReferer             = "https://github.com/reelsmith/reelsmith"
	defaultLLMTitle               = "reelsmith script writer"
	defaultLLMTimeoutSeconds      = 300
	defaultNotifyRequestTimeout   = 10
	defaultWorkspaceStaleAfterHrs = 24
)

var defaultStyles = []string{
	"Nhật ký tuyệt vọng",
	"Góc nhìn thứ nhất",
	"Found Footage",
	"Lời thú tội",
	"Creepypasta",
	"Truyền thuyết đô thị",
}

var defaultFallbackPrompts = []string{
	"horror scene", "dark place", "scary face", "ghost",
	"blood", "knife", "shadow", "moon",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			TempDir:   defaultTempDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			MusicDir:  defaultMusicDir,
			StateDir:  defaultStateDir,
		},
		API: API{
			Bind:                defaultAPIBind,
			ReadTimeoutSeconds:  defaultAPIReadTimeout,
			WriteTimeoutSeconds: defaultAPIWriteTimeout,
			IdleTimeoutSeconds:  defaultAPIIdleTimeout,
		},
		Narration: Narration{
			MaxChunkLength:        defaultMaxChunkLength,
			Provider:              defaultSpeechProvider,
			Language:              defaultSpeechLanguage,
			TTSBaseURL:            defaultTTSBaseURL,
			CooldownSeconds:       defaultSpeechCooldown,
			RequestTimeoutSeconds: defaultSpeechTimeout,
			OpenAIModel:           defaultOpenAISpeechModel,
			OpenAIVoice:           defaultOpenAISpeechVoice,
		},
		Timeline: Timeline{
			PlaybackSpeed:  defaultPlaybackSpeed,
			SyncCorrection: defaultSyncCorrection,
		},
		Visuals: Visuals{
			BaseURL:               defaultImageBaseURL,
			Width:                 defaultImageWidth,
			Height:                defaultImageHeight,
			Attempts:              defaultImageAttempts,
			BackoffSeconds:        defaultImageBackoff,
			Parallelism:           defaultImageParallelism,
			RequestTimeoutSeconds: defaultImageTimeout,
			MinViableRatio:        defaultMinViableRatio,
		},
		Composition: Composition{
			FPS:           defaultFPS,
			ZoomCeiling:   defaultZoomCeiling,
			ZoomStep:      defaultZoomStep,
			FontSize:      defaultFontSize,
			BorderWidth:   defaultBorderWidth,
			MarginBottom:  defaultMarginBottom,
			MusicVolume:   defaultMusicVolume,
			VideoCodec:    "libx264",
			Preset:        "ultrafast",
			Tune:          "stillimage",
			AudioCodec:    "aac",
			AudioBitrate:  "128k",
			PixelFormat:   "yuv420p",
			FFmpegBinary:  "ffmpeg",
			FFprobeBinary: "ffprobe",
		},
		Generation: Generation{
			Provider:            defaultGenerationProvider,
			PollinationsTextURL: defaultPollinationsTextURL,
			TimeoutSeconds:      defaultGenerationTimeout,
			SceneCount:          defaultSceneCount,
			Styles:              append([]string(nil), defaultStyles...),
			FallbackPrompts:     append([]string(nil), defaultFallbackPrompts...),
			PromptSuffix:        defaultPromptSuffix,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			RunComplete:    true,
			RunFailed:      true,
		},
		Workspace: Workspace{
			StaleAfterHours: defaultWorkspaceStaleAfterHrs,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
