// Package locks provides inter-process locks around files the CLI writes.
package locks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// OutputMutex provides file-based mutual exclusion between processes writing
// the same output path. The lock is automatically released if the holding
// process dies.
//
// See:
//   - Linux: https://linux.die.net/man/2/flock
//   - Windows: https://docs.microsoft.com/en-us/windows/win32/api/fileapi/nf-fileapi-lockfileex
type OutputMutex struct {
	path string
	mu   *flock.Flock
}

// ForOutput returns the mutex guarding outPath. Lock files live in the temp
// directory, named after a hash of the absolute output path.
func ForOutput(outPath string) *OutputMutex {
	if abs, err := filepath.Abs(outPath); err == nil {
		outPath = abs
	}
	sum := sha256.Sum256([]byte(outPath))
	path := filepath.Join(os.TempDir(), "vanilla-"+hex.EncodeToString(sum[:8])+".lock")

	return &OutputMutex{path: path, mu: flock.New(path)}
}

func (m *OutputMutex) Path() string {
	return m.path
}

type TryLockResult struct {
	Attempt int
	Error   error
	Success bool
}

// TryLock keeps trying to take the lock every retryDelay, reporting each
// attempt, until it succeeds, fails or ctx is done.
func (m *OutputMutex) TryLock(ctx context.Context, retryDelay time.Duration) <-chan TryLockResult {
	ch := make(chan TryLockResult)
	go func() {
		defer close(ch)
		for attempt := 0; ; attempt++ {
			ok, err := m.mu.TryLock()
			if err != nil {
				ch <- TryLockResult{Attempt: attempt, Error: fmt.Errorf("failed to acquire lock %s (pid %d): %w", m.path, os.Getpid(), err)}
				return
			}
			if ok {
				ch <- TryLockResult{Attempt: attempt, Success: true}
				return
			}

			select {
			case <-ctx.Done():
				ch <- TryLockResult{Attempt: attempt, Error: ctx.Err()}
				return
			case <-time.After(retryDelay):
				ch <- TryLockResult{Attempt: attempt, Success: false}
			}
		}
	}()
	return ch
}

// Lock blocks until the lock is held or ctx is done. onWait is called once if
// the first attempt finds the lock taken.
func (m *OutputMutex) Lock(ctx context.Context, retryDelay time.Duration, onWait func()) error {
	for result := range m.TryLock(ctx, retryDelay) {
		switch {
		case result.Error != nil:
			return result.Error
		case result.Success:
			return nil
		case result.Attempt == 0 && onWait != nil:
			onWait()
		}
	}
	return fmt.Errorf("failed to acquire lock %s", m.path)
}

// Unlock releases the lock. The lock file is left in place; removing it
// would let a waiting process lock an orphaned inode.
func (m *OutputMutex) Unlock() error {
	return m.mu.Unlock()
}
