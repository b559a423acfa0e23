// Package logging owns the process-wide structured logger for loopnerd.
// Packages obtain named children per category (registry, store, triage) so
// log output can be filtered by subsystem.
package logging

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu   sync.RWMutex
	base = zap.NewNop()
)

// Init builds the process logger. Debug mode lowers the level and switches
// to the development encoder. Safe to call more than once; the last call
// wins.
func Init(debug bool) error {
	config := zap.NewProductionConfig()
	if debug {
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	mu.Lock()
	base = logger
	mu.Unlock()
	return nil
}

// Named returns a child logger for the given category.
func Named(category string) *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base.Named(category)
}

// Sync flushes buffered log entries. Call before process exit.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = base.Sync()
}
