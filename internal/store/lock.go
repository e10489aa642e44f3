package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is the lock file kept inside every index directory.
const LockFileName = ".cranir.lock"

// DirLock guards an index directory across processes using gofrs/flock.
// Builds hold it exclusively; readers share it.
type DirLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewDirLock creates a lock for the given index directory.
// The lock file will be created at <dir>/.cranir.lock
func NewDirLock(dir string) *DirLock {
	lockPath := filepath.Join(dir, LockFileName)
	return &DirLock{
		path:  lockPath,
		flock: flock.New(lockPath),
	}
}

// TryLock acquires the exclusive lock without blocking.
// It returns ErrIndexLocked when another process holds the lock.
func (l *DirLock) TryLock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return fmt.Errorf("%w: %s", ErrIndexLocked, filepath.Dir(l.path))
	}

	l.locked = true
	return nil
}

// TryRLock acquires a shared lock without blocking.
// It returns ErrIndexLocked while a build holds the exclusive lock.
func (l *DirLock) TryRLock() error {
	acquired, err := l.flock.TryRLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return fmt.Errorf("%w: %s", ErrIndexLocked, filepath.Dir(l.path))
	}

	l.locked = true
	return nil
}

// Unlock releases the lock.
// It's safe to call Unlock multiple times or on an unlocked DirLock.
func (l *DirLock) Unlock() error {
	if !l.locked {
		return nil
	}

	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Path returns the path to the lock file.
func (l *DirLock) Path() string {
	return l.path
}

// IsLocked returns true if the lock is currently held.
func (l *DirLock) IsLocked() bool {
	return l.locked
}
