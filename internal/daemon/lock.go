package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning is returned when another process holds the daemon lock.
var ErrAlreadyRunning = errors.New("another etdbridge daemon instance is already running")

// Lock is the process-wide lock guarding the ledger directory.
type Lock struct {
	path string
	fl   *flock.Flock
}

// AcquireLock takes the lock at path without blocking.
func AcquireLock(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyRunning
	}
	return &Lock{path: path, fl: fl}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Release drops the lock.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}

// IsLocked reports whether a daemon currently holds the lock at path.
func IsLocked(path string) (bool, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return false, fmt.Errorf("probe lock: %w", err)
	}
	if !ok {
		return true, nil
	}
	_ = fl.Unlock()
	return false, nil
}
