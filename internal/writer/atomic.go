// Package writer exposes file sinks that appear at their final path only
// once complete.
package writer

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrClosed is returned when writing to a committed or aborted file.
var ErrClosed = errors.New("writer: file already committed or aborted")

// FileMode is applied to committed files.
const FileMode os.FileMode = 0o644

// AtomicFile buffers writes into a temporary file in the destination
// directory and renames it over Path on Commit. Abort removes the temporary
// file, so a failed run never leaves a partial file at Path.
type AtomicFile struct {
	Path string

	tmp  *os.File
	bw   *bufio.Writer
	done bool
}

// Create opens a temporary file next to path.
func Create(path string) (*AtomicFile, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return &AtomicFile{Path: path, tmp: tmp, bw: bufio.NewWriter(tmp)}, nil
}

// Write implements io.Writer.
func (a *AtomicFile) Write(p []byte) (int, error) {
	if a.done {
		return 0, ErrClosed
	}
	return a.bw.Write(p)
}

// Commit flushes, syncs and renames the temporary file to Path.
func (a *AtomicFile) Commit() error {
	if a.done {
		return ErrClosed
	}
	a.done = true
	tmpPath := a.tmp.Name()

	if err := a.bw.Flush(); err != nil {
		return a.fail(tmpPath, fmt.Errorf("flush temp file: %w", err))
	}
	if err := a.tmp.Chmod(FileMode); err != nil {
		return a.fail(tmpPath, fmt.Errorf("chmod temp file: %w", err))
	}
	if err := a.tmp.Sync(); err != nil {
		return a.fail(tmpPath, fmt.Errorf("sync temp file: %w", err))
	}
	if err := a.tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, a.Path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Abort discards everything written. It is a no-op after Commit or Abort.
func (a *AtomicFile) Abort() error {
	if a.done {
		return nil
	}
	a.done = true
	_ = a.tmp.Close()
	return os.Remove(a.tmp.Name())
}

func (a *AtomicFile) fail(tmpPath string, err error) error {
	_ = a.tmp.Close()
	_ = os.Remove(tmpPath)
	return err
}

// WriteFile writes data to path atomically via temp file + rename.
func WriteFile(path string, data []byte) error {
	a, err := Create(path)
	if err != nil {
		return err
	}
	if _, err := a.Write(data); err != nil {
		_ = a.Abort()
		return fmt.Errorf("write temp file: %w", err)
	}
	return a.Commit()
}
