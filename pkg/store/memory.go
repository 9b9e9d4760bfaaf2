package store

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/dhuston/livingmap/pkg/sim"
)

// MemoryStore keeps snapshots in process memory. Used by the CLI and in
// tests; snapshots do not survive a restart.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]*Snapshot
}

// NewMemoryStore creates an empty in-memory snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string]*Snapshot)}
}

// Save stores a copy of the positions so later caller mutations don't
// leak into the snapshot.
func (s *MemoryStore) Save(ctx context.Context, viewID string, positions map[string]sim.Position) error {
	snap := &Snapshot{
		ViewID:    viewID,
		Positions: maps.Clone(positions),
		UpdatedAt: time.Now(),
	}
	s.mu.Lock()
	s.snapshots[viewID] = snap
	s.mu.Unlock()
	return nil
}

// Load returns the snapshot for a view, if any.
func (s *MemoryStore) Load(ctx context.Context, viewID string) (*Snapshot, bool, error) {
	s.mu.RLock()
	snap, ok := s.snapshots[viewID]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	// Copy positions out so callers can't mutate the stored snapshot.
	out := &Snapshot{
		ViewID:    snap.ViewID,
		Positions: maps.Clone(snap.Positions),
		UpdatedAt: snap.UpdatedAt,
	}
	return out, true, nil
}

// Delete removes a view's snapshot.
func (s *MemoryStore) Delete(ctx context.Context, viewID string) error {
	s.mu.Lock()
	delete(s.snapshots, viewID)
	s.mu.Unlock()
	return nil
}

// Close does nothing for the in-memory store.
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// Ensure MemoryStore implements SnapshotStore.
var _ SnapshotStore = (*MemoryStore)(nil)
