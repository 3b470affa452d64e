package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"reelsmith/internal/logging"
)

func TestCreateIsExclusive(t *testing.T) {
	root := t.TempDir()
	run, err := Create(root, "20260101T000000.000Z-abc123")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if run.Path("narration.mp3") != filepath.Join(root, run.Key, "narration.mp3") {
		t.Fatalf("unexpected path %s", run.Path("narration.mp3"))
	}
	if _, err := Create(root, run.Key); err == nil {
		t.Fatal("expected second create with same key to fail")
	}
	for _, bad := range []string{"", "..", "a/b"} {
		if _, err := Create(root, bad); err == nil {
			t.Fatalf("expected invalid key %q to fail", bad)
		}
	}
}

func TestCleanupRemovesEverything(t *testing.T) {
	run, err := Create(t.TempDir(), "key")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(run.Path("unit_0001.mp3"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := run.Cleanup(context.Background(), logging.NewNop()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(run.Dir); !os.IsNotExist(err) {
		t.Fatal("expected run directory removed")
	}
	// A second cleanup is a no-op.
	if err := run.Cleanup(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
}

func TestCleanStaleInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := CleanStale(context.Background(), dir, time.Hour, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestCleanStaleRemovesOldDirectoriesOnly(t *testing.T) {
	root := t.TempDir()
	oldDir := filepath.Join(root, "old-run")
	recentDir := filepath.Join(root, "recent-run")
	oldFile := filepath.Join(root, "old-file.txt")
	for _, dir := range []string{oldDir, recentDir} {
		if err := os.Mkdir(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(oldFile, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	oldTime := time.Now().Add(-48 * time.Hour)
	for _, path := range []string{oldDir, oldFile} {
		if err := os.Chtimes(path, oldTime, oldTime); err != nil {
			t.Fatal(err)
		}
	}

	result := CleanStale(context.Background(), root, 24*time.Hour, logging.NewNop())
	if len(result.Removed) != 1 || result.Removed[0] != oldDir {
		t.Fatalf("unexpected removals %v", result.Removed)
	}
	if _, err := os.Stat(recentDir); err != nil {
		t.Error("recent directory should still exist")
	}
	if _, err := os.Stat(oldFile); err != nil {
		t.Error("files are not swept")
	}
}

func TestList(t *testing.T) {
	root := t.TempDir()
	run, err := Create(root, "k1")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(run.Path("a"), []byte("12345"), 0o644); err != nil {
		t.Fatal(err)
	}
	dirs, err := List(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(dirs) != 1 || dirs[0].Name != "k1" || dirs[0].Size != 5 {
		t.Fatalf("unexpected listing %+v", dirs)
	}
	if dirs, err := List("/nonexistent/path/12345"); err != nil || dirs != nil {
		t.Fatalf("expected empty listing, got %v %v", dirs, err)
	}
}
