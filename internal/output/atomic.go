package output

import (
	"fmt"
	"os"
	"path/filepath"
)

// AtomicFile is written under a temporary name next to its destination and
// only appears at the destination on Commit. Abort (or a failed Commit)
// leaves nothing behind.
type AtomicFile struct {
	*os.File
	dest string
	done bool
}

// CreateAtomic opens a temporary file in the directory of dest.
func CreateAtomic(dest string) (*AtomicFile, error) {
	f, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return &AtomicFile{File: f, dest: dest}, nil
}

// Commit closes the temporary file and renames it to the destination.
func (a *AtomicFile) Commit() error {
	if a.done {
		return nil
	}
	a.done = true

	tmp := a.Name()
	if err := a.File.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close output file: %w", err)
	}
	if err := os.Chmod(tmp, 0644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("chmod output file: %w", err)
	}
	if err := os.Rename(tmp, a.dest); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename output file: %w", err)
	}
	return nil
}

// Abort discards the temporary file. It is a no-op after Commit.
func (a *AtomicFile) Abort() {
	if a.done {
		return
	}
	a.done = true
	a.File.Close()
	os.Remove(a.Name())
}
