package narration_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"reelsmith/internal/chunker"
	"reelsmith/internal/narration"
	"reelsmith/internal/services"
	"reelsmith/internal/speech"
)

func writeClip(t *testing.T, dir string, index int, content string, seconds float64) speech.AudioClip {
	t.Helper()
	path := filepath.Join(dir, speech.ClipFileName(index))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return speech.AudioClip{
		Unit:        chunker.TextUnit{Index: index, Text: content},
		Path:        path,
		RawDuration: time.Duration(seconds * float64(time.Second)),
	}
}

func TestAssembleConcatenatesInUnitOrder(t *testing.T) {
	dir := t.TempDir()
	clips := []speech.AudioClip{
		writeClip(t, dir, 3, "CCC", 1.5),
		writeClip(t, dir, 1, "A", 3.0),
		writeClip(t, dir, 2, "BB", 4.5),
	}

	track, err := narration.NewAssembler(nil).Assemble(context.Background(), dir, clips)
	if err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}
	data, err := os.ReadFile(track.Path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "ABBCCC" {
		t.Fatalf("unexpected track content %q", data)
	}
	if track.RawSeconds() != 9.0 || track.Clips != 3 || track.Bytes != 6 {
		t.Fatalf("unexpected track metadata %+v", track)
	}
	for _, clip := range clips {
		if _, err := os.Stat(clip.Path); !os.IsNotExist(err) {
			t.Fatalf("expected clip %s to be removed", clip.Path)
		}
	}
}

func TestAssembleRejectsEmptyInput(t *testing.T) {
	_, err := narration.NewAssembler(nil).Assemble(context.Background(), t.TempDir(), nil)
	if !errors.Is(err, services.ErrAssembly) {
		t.Fatalf("expected ErrAssembly, got %v", err)
	}
}

func TestAssembleKeepsClipsOnFailure(t *testing.T) {
	dir := t.TempDir()
	good := writeClip(t, dir, 1, "A", 1)
	missing := speech.AudioClip{Unit: chunker.TextUnit{Index: 2}, Path: filepath.Join(dir, "missing.mp3"), RawDuration: time.Second}

	_, err := narration.NewAssembler(nil).Assemble(context.Background(), dir, []speech.AudioClip{good, missing})
	if !errors.Is(err, services.ErrAssembly) {
		t.Fatalf("expected ErrAssembly, got %v", err)
	}
	if _, err := os.Stat(good.Path); err != nil {
		t.Fatalf("expected surviving clip to remain: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, narration.TrackFileName)); !os.IsNotExist(err) {
		t.Fatal("expected no narration track after failure")
	}
}
