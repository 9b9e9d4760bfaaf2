package sim

import (
	"github.com/dhuston/livingmap/pkg/errors"
)

// Default tuning values. These match the defaults the map UI ships with.
const (
	DefaultIterations   = 200
	DefaultGravity      = 0.8
	DefaultScalingRatio = 3.0
	DefaultSlowDown     = 8.0
	DefaultTheta        = 1.2
	DefaultEpsilon      = 0.01

	// defaultSize is the fallback visual radius for nodes without one.
	defaultSize = 5.0

	// initRadiusScale controls the random placement disc: its radius grows
	// with √(node count) so dense graphs start spread out enough to avoid
	// degenerate initial overlap.
	initRadiusScale = 50.0
)

// Settings is the simulation configuration value object. It is never mutated
// during a run and is JSON-serializable so it can cross the worker boundary
// and participate in cache keys.
type Settings struct {
	// Iterations is the upper bound on simulation steps.
	Iterations int `json:"iterations"`

	// Gravity pulls all nodes toward the graph centroid to prevent
	// disconnected components from drifting apart. Must be >= 0.
	Gravity float64 `json:"gravity"`

	// ScalingRatio is the global multiplier on repulsive force magnitude.
	// Zero disables repulsion entirely.
	ScalingRatio float64 `json:"scalingRatio"`

	// SlowDown is the damping divisor applied to per-step displacement.
	// Higher values converge slower but more stably. Must be > 0.
	SlowDown float64 `json:"slowDown"`

	// Theta is the Barnes-Hut opening-angle criterion. A region whose
	// width/distance ratio is below Theta is treated as a single body.
	Theta float64 `json:"theta,omitempty"`

	// Epsilon is the convergence threshold: the run stops early once mean
	// per-node displacement in a step falls below it. Zero keeps the default.
	Epsilon float64 `json:"epsilon,omitempty"`

	// Seed seeds the random source used for initial placement and collision
	// jitter. Zero selects an entropy seed at run start, so production
	// layouts stay varied while tests can pass explicit seeds.
	Seed uint64 `json:"seed,omitempty"`

	// BarnesHutOptimize selects quadtree-approximated repulsion, trading
	// accuracy for speed on large graphs.
	BarnesHutOptimize bool `json:"barnesHutOptimize"`

	// PreventOverlap makes repulsion account for node radii and clamps
	// per-step displacement so node boundaries do not cross in one step.
	PreventOverlap bool `json:"preventOverlap"`

	// LinLogMode uses logarithmic instead of linear distance scaling for
	// attraction, which tightens clusters.
	LinLogMode bool `json:"linLogMode"`

	// OutboundAttractionDistribution divides each edge's attraction by the
	// source node's out-degree so high-fan-out nodes do not dominate.
	OutboundAttractionDistribution bool `json:"outboundAttractionDistribution"`
}

// DefaultSettings returns the engine defaults used when callers leave
// options unspecified.
func DefaultSettings() Settings {
	return Settings{
		Iterations:                     DefaultIterations,
		Gravity:                        DefaultGravity,
		ScalingRatio:                   DefaultScalingRatio,
		SlowDown:                       DefaultSlowDown,
		Theta:                          DefaultTheta,
		Epsilon:                        DefaultEpsilon,
		BarnesHutOptimize:              true,
		PreventOverlap:                 true,
		LinLogMode:                     false,
		OutboundAttractionDistribution: true,
	}
}

// Validate checks settings ranges. A zero Theta or Epsilon is filled with
// the default instead of rejected, since both have safe fallbacks.
func (s *Settings) Validate() error {
	if s.Iterations <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "iterations must be positive, got %d", s.Iterations)
	}
	if s.Gravity < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "gravity must be >= 0, got %g", s.Gravity)
	}
	if s.ScalingRatio < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scalingRatio must be >= 0, got %g", s.ScalingRatio)
	}
	if s.SlowDown <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "slowDown must be > 0, got %g", s.SlowDown)
	}
	if s.Theta < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "theta must be >= 0, got %g", s.Theta)
	}
	if s.Theta == 0 {
		s.Theta = DefaultTheta
	}
	if s.Epsilon < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "epsilon must be >= 0, got %g", s.Epsilon)
	}
	if s.Epsilon == 0 {
		s.Epsilon = DefaultEpsilon
	}
	return nil
}
