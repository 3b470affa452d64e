package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConcatFilesPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	var srcs []string
	for i, content := range []string{"one-", "two-", "three"} {
		path := filepath.Join(dir, "part"+string(rune('a'+i)))
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		srcs = append(srcs, path)
	}
	dst := filepath.Join(dir, "joined.bin")

	n, err := ConcatFiles(dst, srcs)
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(len("one-two-three")) {
		t.Fatalf("unexpected byte count %d", n)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "one-two-three" {
		t.Fatalf("content mismatch: got %q", got)
	}
}

func TestConcatFilesMissingSourceLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good")
	if err := os.WriteFile(good, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, "out")
	if _, err := ConcatFiles(dst, []string{good, filepath.Join(dir, "missing")}); err == nil {
		t.Fatal("expected error for missing source")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatalf("expected no output file, stat err=%v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected temp file cleanup, found %d entries", len(entries))
	}
}

func TestConcatFilesRejectsEmpty(t *testing.T) {
	if _, err := ConcatFiles(filepath.Join(t.TempDir(), "out"), nil); err == nil {
		t.Fatal("expected error for empty source list")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.jpg")
	if err := WriteFileAtomic(path, []byte("jpeg")); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "jpeg" {
		t.Fatalf("unexpected content %q err=%v", got, err)
	}
}

func TestRemoveAllToleratesMissing(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present")
	if err := os.WriteFile(present, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	removed, errs := RemoveAll([]string{present, filepath.Join(dir, "gone"), ""})
	if removed != 2 || len(errs) != 0 {
		t.Fatalf("removed=%d errs=%v", removed, errs)
	}
	if _, err := os.Stat(present); !os.IsNotExist(err) {
		t.Fatal("expected file removed")
	}
}
