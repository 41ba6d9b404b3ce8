// Package filelock guards output directories against concurrent runs and
// writes files atomically.
package filelock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// ErrLocked is returned by TryLock when another process holds the lock.
var ErrLocked = errors.New("lock is held by another process")

// DirLock is an exclusive lock associated with a directory. The lock file
// lives next to the directory so that clearing the directory does not
// drop the lock.
type DirLock struct {
	flock *flock.Flock
	path  string
}

// LockPathFor returns the lock file path guarding dir.
func LockPathFor(dir string) string {
	return filepath.Clean(strings.TrimRight(dir, `/\`)) + ".lock"
}

// NewDirLock creates a lock for dir. Nothing is acquired yet.
func NewDirLock(dir string) *DirLock {
	path := LockPathFor(dir)
	return &DirLock{
		flock: flock.New(path),
		path:  path,
	}
}

// Path returns the lock file path.
func (l *DirLock) Path() string {
	return l.path
}

// TryLock acquires the lock without blocking. It returns ErrLocked when
// another holder has it.
func (l *DirLock) TryLock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}
	acquired, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to try lock on %s: %w", l.path, err)
	}
	if !acquired {
		return fmt.Errorf("%s: %w", l.path, ErrLocked)
	}
	return nil
}

// Unlock releases the lock. The lock file stays on disk: unlinking it
// would let two holders lock different inodes under the same path.
func (l *DirLock) Unlock() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}

// AtomicWrite writes data to path through a temp file in the same
// directory followed by a rename, so readers never observe a partial file.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}

	committed = true
	return nil
}
