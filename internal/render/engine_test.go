package render_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelsmith/internal/composition"
	"reelsmith/internal/render"
	"reelsmith/internal/services"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func plan(output string) composition.Plan {
	return composition.Plan{
		Inputs:     []composition.Input{{Kind: composition.InputImage, Path: "a.jpg"}},
		VideoOut:   "vout",
		AudioOut:   "aout",
		OutputPath: output,
		ImageCount: 1,
	}
}

func TestRenderSuccess(t *testing.T) {
	out := filepath.Join(t.TempDir(), "video.mp4")
	// The last argument is the output path.
	bin := writeScript(t, `for last; do :; done; printf 'mp4' > "$last"`+"\n")

	got, err := render.NewEngine(bin, nil).Render(context.Background(), plan(out))
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if got.Path != out || got.Bytes != 3 {
		t.Fatalf("unexpected output %+v", got)
	}
}

func TestRenderSurfacesEngineMessageVerbatim(t *testing.T) {
	out := filepath.Join(t.TempDir(), "video.mp4")
	bin := writeScript(t, `for last; do :; done; printf 'partial' > "$last"
echo "Error initializing complex filters." >&2
echo "Invalid argument" >&2
exit 1
`)

	_, err := render.NewEngine(bin, nil).Render(context.Background(), plan(out))
	if !errors.Is(err, services.ErrCompositionEngine) {
		t.Fatalf("expected ErrCompositionEngine, got %v", err)
	}
	var engineErr *render.EngineError
	if !errors.As(err, &engineErr) || engineErr.ExitCode != 1 {
		t.Fatalf("expected EngineError with exit code 1, got %#v", err)
	}
	if err.Error() != "Error initializing complex filters.\nInvalid argument" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Fatal("expected partial output removed")
	}
}

func TestRenderMissingOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "video.mp4")
	bin := writeScript(t, "exit 0\n")

	_, err := render.NewEngine(bin, nil).Render(context.Background(), plan(out))
	if !errors.Is(err, services.ErrCompositionEngine) || !strings.Contains(err.Error(), "no output") {
		t.Fatalf("expected missing output error, got %v", err)
	}
}
