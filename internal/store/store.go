package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2/maybe"
	"go.uber.org/zap"

	"loopnerd/internal/config"
	"loopnerd/internal/logging"
)

// Store reads and writes the registry document at a fixed path. No in-memory
// cache is kept between operations; every operation reloads from disk so the
// store never drifts against peer processes.
type Store struct {
	path string
	lock *FileLock
	log  *zap.Logger
}

// New creates a store for the document at path. The lock lives in a sidecar
// file next to it.
func New(path string, lockCfg config.LockConfig) *Store {
	return &Store{
		path: path,
		lock: NewFileLock(path+".lock", lockCfg),
		log:  logging.Named("store"),
	}
}

// Path returns the document path.
func (s *Store) Path() string {
	return s.path
}

// Load reads and normalizes the document. Missing, unparseable, or
// wrong-version files all read as an empty registry; the next successful
// write rewrites them. Load never fails.
func (s *Store) Load() *Document {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("failed to read registry, treating as empty",
				zap.String("path", s.path), zap.Error(err))
		}
		return NewDocument()
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.log.Warn("failed to parse registry, treating as empty",
			zap.String("path", s.path), zap.Error(err))
		return NewDocument()
	}
	if doc.Version != SchemaVersion {
		s.log.Warn("unexpected registry version, treating as empty",
			zap.String("path", s.path), zap.Int("version", doc.Version))
		return NewDocument()
	}

	doc.Normalize()
	return &doc
}

// Save normalizes and atomically writes the document: pretty-printed UTF-8
// JSON with a trailing newline, mode 0600, written via a sibling temp file
// and rename (direct write on Windows).
func (s *Store) Save(doc *Document) error {
	doc.Version = SchemaVersion
	doc.Normalize()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := maybe.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write registry: %w", err)
	}
	return nil
}

// Update runs fn inside the file lock as a full read-modify-write. If fn
// returns an error the mutation is discarded; nothing has been written.
func (s *Store) Update(ctx context.Context, fn func(*Document) error) error {
	if err := s.lock.Acquire(ctx); err != nil {
		return err
	}
	defer s.lock.Release()

	doc := s.Load()
	if err := fn(doc); err != nil {
		return err
	}
	return s.Save(doc)
}
