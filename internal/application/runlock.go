package application

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// RunLockName is the lock file created inside the scratch directory.
const RunLockName = ".vodload.lock"

// ErrRunInProgress is returned when another ingestion run holds the lock.
var ErrRunInProgress = errors.New("another ingestion run is already in progress")

// RunLock is an advisory lock that keeps two ingestion runs from sharing a
// scratch directory.
type RunLock struct {
	lock *flock.Flock
}

// AcquireRunLock takes the lock in scratchDir without blocking.
func AcquireRunLock(scratchDir string) (*RunLock, error) {
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}

	lock := flock.New(filepath.Join(scratchDir, RunLockName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrRunInProgress, lock.Path())
	}
	return &RunLock{lock: lock}, nil
}

// Path returns the lock file path.
func (l *RunLock) Path() string {
	return l.lock.Path()
}

// Release unlocks; it is safe to call more than once.
func (l *RunLock) Release() {
	if l == nil || l.lock == nil {
		return
	}
	if err := l.lock.Unlock(); err != nil {
		slog.Warn("failed to release run lock", "path", l.lock.Path(), "error", err)
	}
}
