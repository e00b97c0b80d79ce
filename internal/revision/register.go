// Package revision tracks the server's process-wide change counter and a
// cached snapshot of the most recently touched blob's metadata.
package revision

import (
	"sync"

	"github.com/dreamware/csync/internal/types"
)

// Register holds the monotonic revision counter and the latest metadata
// snapshot behind a single mutex. It resets to zero on every process start;
// revision is not persisted.
type Register struct {
	mu       sync.Mutex
	revision uint64
	latest   *types.Metadata
}

// NewRegister returns an empty Register at revision 0 with no latest blob.
func NewRegister() *Register {
	return &Register{}
}

// Grow increments the revision counter and returns the new value. Called
// once per committed mutation (put, update, delete, recycle).
func (r *Register) Grow() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.revision++
	return r.revision
}

// SetLatest records m as the latest known blob metadata.
func (r *Register) SetLatest(m types.Metadata) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.latest = &m
}

// ClearLatest drops the cached latest metadata, e.g. when the blob it
// describes is deleted.
func (r *Register) ClearLatest(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.latest != nil && r.latest.ID == id {
		r.latest = nil
	}
}

// Snapshot returns the current revision and a copy of the latest metadata,
// if any.
func (r *Register) Snapshot() (uint64, *types.Metadata) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.latest == nil {
		return r.revision, nil
	}
	latest := *r.latest
	return r.revision, &latest
}
