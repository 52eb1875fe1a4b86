// Package atomicfile writes a file under a temporary name and moves it into
// place only once the content is complete.
package atomicfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Mode is the permission set on a committed file that did not exist before.
// A replaced file keeps its own permissions.
const Mode os.FileMode = 0o644

// ErrFinished is returned by Commit after the file was already committed
// or aborted.
var ErrFinished = errors.New("atomicfile: already committed or aborted")

// File is a pending file. Writes go to a temporary file in the target
// directory; Commit renames it over the target, Abort removes it.
type File struct {
	*os.File
	target   string
	mode     os.FileMode
	finished bool
}

// Create starts a pending file for path. Nothing at path is touched until
// Commit.
func Create(path string) (*File, error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	mode := Mode
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file for %s: %w", path, err)
	}
	return &File{File: tmp, target: path, mode: mode}, nil
}

// Commit flushes, closes and renames the temporary file over the target.
// If any step fails the temporary file is removed.
func (f *File) Commit() error {
	if f.finished {
		return ErrFinished
	}
	f.finished = true

	err := f.Sync()
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(f.Name(), f.mode)
	}
	if err == nil {
		err = os.Rename(f.Name(), f.target)
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("commit %s: %w", f.target, err)
	}
	return nil
}

// Abort discards the temporary file. It is a no-op after Commit, so it is
// safe to defer right after Create.
func (f *File) Abort() error {
	if f.finished {
		return nil
	}
	f.finished = true
	_ = f.Close()
	if err := os.Remove(f.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
