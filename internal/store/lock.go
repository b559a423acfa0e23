package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"loopnerd/internal/config"
	"loopnerd/internal/logging"
)

// FileLock is an exclusive cross-process lock built on exclusive-create of a
// sidecar file. Acquisition polls until the file can be created; a lock file
// older than the stale window is treated as abandoned by a dead process and
// force-removed on the next contention cycle.
type FileLock struct {
	path    string
	timeout time.Duration
	poll    time.Duration
	stale   time.Duration
	log     *zap.Logger
}

// NewFileLock creates a lock at the given sidecar path with the configured
// timing.
func NewFileLock(path string, cfg config.LockConfig) *FileLock {
	return &FileLock{
		path:    path,
		timeout: cfg.TimeoutDuration(),
		poll:    cfg.PollIntervalDuration(),
		stale:   cfg.StaleAfterDuration(),
		log:     logging.Named("store"),
	}
}

// Path returns the lock file path.
func (l *FileLock) Path() string {
	return l.path
}

// Acquire blocks until the lock is held, the timeout elapses, or ctx is
// cancelled. Timeout returns the registry's distinct lock-timeout error.
func (l *FileLock) Acquire(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	deadline := time.Now().Add(l.timeout)
	for {
		f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			_ = f.Close()
			return nil
		}
		if !os.IsExist(err) {
			return fmt.Errorf("failed to create lock file: %w", err)
		}

		if info, statErr := os.Stat(l.path); statErr == nil && time.Since(info.ModTime()) > l.stale {
			l.log.Warn("removing stale lock file",
				zap.String("path", l.path),
				zap.Duration("age", time.Since(info.ModTime())))
			// Best-effort: fall through to the deadline check either way so
			// an undeletable stale lock still times out.
			_ = os.Remove(l.path)
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("timeout acquiring research loop registry lock: %s", l.path)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.poll):
		}
	}
}

// Release unlinks the lock file. Failure is swallowed: the stale window
// recovers an undeletable lock eventually.
func (l *FileLock) Release() {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		l.log.Warn("failed to release lock file", zap.String("path", l.path), zap.Error(err))
	}
}
