// Package store persists the research loop registry as a single versioned
// JSON document on disk. Writes are atomic (sibling temp file + rename) and
// mutating callers serialize on a sidecar lock file, so peer processes on
// the same host always observe a parseable snapshot.
package store

import "loopnerd/internal/loop"

// SchemaVersion is the registry document schema version. A document with a
// different version is treated as empty on read.
const SchemaVersion = 1

// Document is the persisted registry: every loop, keyed by loop id.
type Document struct {
	Version int                   `json:"version"`
	Loops   map[string]*loop.Loop `json:"loops"`
}

// NewDocument returns an empty registry document at the current version.
func NewDocument() *Document {
	return &Document{
		Version: SchemaVersion,
		Loops:   make(map[string]*loop.Loop),
	}
}

// Normalize repairs every record in place (see loop.Normalize) and heals
// records whose embedded id drifted from their map key.
func (d *Document) Normalize() {
	if d.Loops == nil {
		d.Loops = make(map[string]*loop.Loop)
	}
	for id, rec := range d.Loops {
		if rec == nil {
			delete(d.Loops, id)
			continue
		}
		rec.LoopID = id
		loop.Normalize(rec)
	}
}
