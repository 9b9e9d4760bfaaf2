package sim

// Node is one simulated particle. The engine reads the fields and never
// mutates the caller's slice; final coordinates are returned in [Result].
type Node struct {
	ID string

	// X, Y hold the starting position when Placed is true (warm start for
	// layout stability across incremental updates). When Placed is false the
	// engine assigns a random position inside a disc around the origin.
	X, Y   float64
	Placed bool

	// Size is the visual radius, used by overlap prevention.
	// Non-positive sizes fall back to a default radius.
	Size float64

	// Mass controls inertia under force: heavier nodes move less per step.
	// Non-positive masses fall back to 1.
	Mass float64

	// Fixed pins the node: its position is never updated by the simulation.
	Fixed bool
}

// Edge is one spring between two nodes. Both endpoints must exist in the
// node set handed to [Run]; the engine fails fast otherwise.
type Edge struct {
	Source string
	Target string

	// Weight scales attraction strength. Non-positive weights fall back to 1.
	Weight float64
}

// Position is a final node coordinate pair.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Result holds the outcome of a completed simulation run.
// It is immutable once produced.
type Result struct {
	// Positions maps node ID to its final coordinates.
	Positions map[string]Position `json:"positions"`

	// Iterations is the number of steps actually executed.
	Iterations int `json:"iterations"`

	// Converged reports whether the run stopped early because total
	// displacement fell below the convergence threshold.
	Converged bool `json:"converged"`

	// Seed is the random seed the run used. When [Settings.Seed] is zero the
	// engine picks an entropy seed; reporting it here makes any run
	// reproducible after the fact.
	Seed uint64 `json:"seed"`
}
