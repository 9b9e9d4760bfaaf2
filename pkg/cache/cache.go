// Package cache provides the layout result cache.
//
// Computing a layout for a large graph is expensive; the same graph with the
// same settings always produces the same result for a fixed seed, so results
// are cached keyed on the graph content hash plus the simulation settings.
// Backends: file (CLI), redis (server deployments), null (disabled).
package cache

import (
	"context"
	"time"
)

// TTLs per key type. Graph snapshots churn faster than computed layouts.
const (
	TTLGraph  = 15 * time.Minute
	TTLLayout = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with TTL expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A non-positive TTL stores the
	// value without expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// LayoutKeyOpts captures every setting that affects layout output, so any
// change produces a distinct cache key. Field set mirrors sim.Settings.
type LayoutKeyOpts struct {
	Iterations                     int
	Gravity                        float64
	ScalingRatio                   float64
	SlowDown                       float64
	Theta                          float64
	Epsilon                        float64
	Seed                           uint64
	BarnesHutOptimize              bool
	PreventOverlap                 bool
	LinLogMode                     bool
	OutboundAttractionDistribution bool
}

// Keyer derives cache keys for the two cached artifact types.
type Keyer interface {
	// GraphKey keys a graph snapshot by view ID.
	GraphKey(viewID string) string

	// LayoutKey keys a computed layout by graph content hash and settings.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// GraphKey generates a key for graph snapshot caching.
func (k *DefaultKeyer) GraphKey(viewID string) string {
	return hashKey("graph", viewID)
}

// LayoutKey generates a key for layout result caching.
func (k *DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}
