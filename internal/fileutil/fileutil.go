package fileutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ConcatFiles streams srcs, in order, into dst and returns the bytes written.
// dst is written through a temporary sibling and renamed into place, so a
// failed concatenation never leaves a partial file behind.
func ConcatFiles(dst string, srcs []string) (int64, error) {
	if len(srcs) == 0 {
		return 0, fmt.Errorf("concat %s: no source files", filepath.Base(dst))
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return 0, err
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	var written int64
	for _, src := range srcs {
		n, err := appendFile(tmp, src)
		written += n
		if err != nil {
			return written, err
		}
	}
	if err := tmp.Close(); err != nil {
		return written, err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return written, err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return written, err
	}
	return written, nil
}

func appendFile(out io.Writer, src string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()
	n, err := io.Copy(out, in)
	if err != nil {
		return n, fmt.Errorf("append %s: %w", filepath.Base(src), err)
	}
	return n, nil
}

// WriteFileAtomic writes data to path via a temporary sibling and rename.
func WriteFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// RemoveAll deletes every path and returns how many were removed. Missing
// files count as removed.
func RemoveAll(paths []string) (int, []error) {
	removed := 0
	var errs []error
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errs
}
