package ffprobe

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestDurationSecondsPrefersContainer(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "audio", Duration: "2.0"}},
		Format:  Format{Duration: "3.25"},
	}
	if got := result.DurationSeconds(); got != 3.25 {
		t.Fatalf("unexpected duration: %v", got)
	}
	if result.AudioStreamCount() != 1 {
		t.Fatalf("expected 1 audio stream, got %d", result.AudioStreamCount())
	}
}

func TestDurationSecondsFallsBackToAudioStream(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "video"}, {CodecType: "audio", Duration: "4.5"}},
		Format:  Format{Duration: "N/A"},
	}
	if got := result.DurationSeconds(); got != 4.5 {
		t.Fatalf("unexpected duration: %v", got)
	}
}

func TestDurationSecondsInvalid(t *testing.T) {
	result := Result{Format: Format{Duration: "bad"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected NaN, got %v", result.DurationSeconds())
	}
}

func TestProberDurationUsesBinary(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires a POSIX shell")
	}
	stub := writeStub(t, `{"streams":[{"index":0,"codec_type":"audio","duration":"1.500000"}],"format":{"duration":"1.500000"}}`)

	got, err := NewProber(stub).Duration(context.Background(), "/tmp/clip.mp3")
	if err != nil {
		t.Fatalf("Duration returned error: %v", err)
	}
	if got != 1500*time.Millisecond {
		t.Fatalf("unexpected duration: %s", got)
	}
}

func TestProberDurationMissing(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires a POSIX shell")
	}
	stub := writeStub(t, `{"streams":[],"format":{}}`)

	_, err := NewProber(stub).Duration(context.Background(), "/tmp/clip.mp3")
	if !errors.Is(err, ErrNoDuration) {
		t.Fatalf("expected ErrNoDuration, got %v", err)
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func writeStub(t *testing.T, payload string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffprobe")
	script := "#!/bin/sh\ncat <<'JSON'\n" + payload + "\nJSON\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}
