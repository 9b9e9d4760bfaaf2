// Package store persists layout snapshots per view.
//
// A snapshot is the last computed set of node positions for a view. It
// seeds warm starts: when a view's graph changes incrementally, the next
// layout run starts from the stored positions instead of random placement,
// so the map shifts rather than reshuffles.
package store

import (
	"context"
	"time"

	"github.com/dhuston/livingmap/pkg/sim"
)

// Snapshot is a stored layout result for a view.
type Snapshot struct {
	ViewID    string                  `json:"view_id" bson:"view_id"`
	Positions map[string]sim.Position `json:"positions" bson:"positions"`
	UpdatedAt time.Time               `json:"updated_at" bson:"updated_at"`
}

// SnapshotStore saves and loads per-view layout snapshots.
// Implementations must be safe for concurrent use.
type SnapshotStore interface {
	// Save stores the positions for a view, replacing any prior snapshot.
	Save(ctx context.Context, viewID string, positions map[string]sim.Position) error

	// Load returns the snapshot for a view. The second return reports
	// whether a snapshot exists.
	Load(ctx context.Context, viewID string) (*Snapshot, bool, error)

	// Delete removes a view's snapshot. Deleting a missing view is not an error.
	Delete(ctx context.Context, viewID string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}
