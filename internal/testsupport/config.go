package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"reelsmith/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// Default stub bodies. The ffprobe stub reports every clip as 1.5 seconds;
// the ffmpeg stub writes a few bytes to its last argument, the output path.
const (
	FFprobeStub = "#!/bin/sh\necho '{\"format\":{\"duration\":\"1.500000\"}}'\n"
	FFmpegStub  = "#!/bin/sh\nfor last; do :; done\nprintf 'mp4' > \"$last\"\n"
)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.TempDir = filepath.Join(base, "tmp")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.MusicDir = filepath.Join(base, "music")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LedgerPath = filepath.Join(base, "state", "runs.db")
	cfgVal.Paths.LockPath = filepath.Join(base, "state", "reelsmith.lock")
	cfgVal.API.Bind = "127.0.0.1:0"
	cfgVal.Narration.CooldownSeconds = 0
	cfgVal.Visuals.BackoffSeconds = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithAPIToken sets the bearer token required by the HTTP API.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.API.Token = token
	}
}

// WithStubbedBinaries writes stub ffprobe and ffmpeg executables and points
// the composition config at them.
func WithStubbedBinaries() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Composition.FFprobeBinary = StubBinary(b.t, filepath.Join(b.baseDir, "bin"), "ffprobe", FFprobeStub)
		b.cfg.Composition.FFmpegBinary = StubBinary(b.t, filepath.Join(b.baseDir, "bin"), "ffmpeg", FFmpegStub)
	}
}

// WithMusicTrack places an mp3 file in the music directory.
func WithMusicTrack(name string) ConfigOption {
	return func(b *configBuilder) {
		WriteFile(b.t, filepath.Join(b.cfg.Paths.MusicDir, name), 64)
	}
}

// StubBinary writes an executable shell script named name under dir and
// returns its path.
func StubBinary(t testing.TB, dir, name, script string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.TempDir)
}
