package sim

import (
	"math"
	"math/rand/v2"

	"github.com/dhuston/livingmap/pkg/errors"
)

// Progress reports the state of an in-flight run to a progress callback.
type Progress struct {
	Iteration        int     // 1-based step just completed
	Iterations       int     // configured upper bound
	MeanDisplacement float64 // mean per-node displacement this step
}

// Run executes the simulation to convergence or iteration budget and returns
// final positions. It never mutates the caller's slices and is deterministic
// for a fixed Settings.Seed.
//
// Failure modes: an edge endpoint missing from the node set returns an
// INVALID_GRAPH error; non-finite coordinates that survive the collision
// jitter return NUMERICAL_INSTABILITY. A NUMERICAL_INSTABILITY retry with a
// fresh seed is safe and usually succeeds.
func Run(nodes []Node, edges []Edge, settings Settings) (Result, error) {
	return RunWithProgress(nodes, edges, settings, nil)
}

// RunWithProgress is [Run] with a per-iteration callback, used by the CLI to
// drive live progress output. A nil callback is allowed.
func RunWithProgress(nodes []Node, edges []Edge, settings Settings, progress func(Progress)) (Result, error) {
	s := settings
	if err := s.Validate(); err != nil {
		return Result{}, err
	}

	seed := s.Seed
	for seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	ps, index, err := buildParticles(nodes, rng)
	if err != nil {
		return Result{}, err
	}
	ses, err := resolveEdges(edges, index, ps)
	if err != nil {
		return Result{}, err
	}

	var rep repulsor = exactRepulsion{}
	if s.BarnesHutOptimize {
		rep = barnesHutRepulsion{}
	}

	res := Result{Seed: seed}
	for iter := range s.Iterations {
		separateCoincident(ps, rng)

		if s.ScalingRatio > 0 {
			rep.apply(ps, s)
		}
		applyAttraction(ps, ses, s)
		if s.Gravity > 0 {
			applyGravity(ps, s.Gravity)
		}
		mean := integrate(ps, s)
		res.Iterations = iter + 1

		if i := firstNonFinite(ps); i >= 0 {
			return Result{}, errors.New(errors.ErrCodeNumericalInstability,
				"node %q reached a non-finite position at iteration %d", nodes[i].ID, iter+1)
		}

		if progress != nil {
			progress(Progress{Iteration: iter + 1, Iterations: s.Iterations, MeanDisplacement: mean})
		}

		if mean < s.Epsilon {
			res.Converged = true
			break
		}
	}

	res.Positions = make(map[string]Position, len(ps))
	for i, n := range nodes {
		res.Positions[n.ID] = Position{X: ps[i].x, Y: ps[i].y}
	}
	return res, nil
}

// buildParticles converts input nodes into simulation particles, assigning
// random disc positions to nodes without a warm start. The disc radius grows
// with √(node count) to avoid degenerate initial overlap.
func buildParticles(nodes []Node, rng *rand.Rand) ([]particle, map[string]int, error) {
	ps := make([]particle, len(nodes))
	index := make(map[string]int, len(nodes))
	discRadius := initRadiusScale * math.Sqrt(float64(len(nodes)))

	for i, n := range nodes {
		if n.ID == "" {
			return nil, nil, errors.New(errors.ErrCodeInvalidGraph, "node %d has an empty ID", i)
		}
		if _, dup := index[n.ID]; dup {
			return nil, nil, errors.New(errors.ErrCodeInvalidGraph, "duplicate node ID %q", n.ID)
		}
		index[n.ID] = i

		p := particle{x: n.X, y: n.Y, mass: n.Mass, size: n.Size, fixed: n.Fixed}
		if p.mass <= 0 {
			p.mass = 1
		}
		if p.size <= 0 {
			p.size = defaultSize
		}
		if !n.Placed {
			r := discRadius * math.Sqrt(rng.Float64())
			a := 2 * math.Pi * rng.Float64()
			p.x = r * math.Cos(a)
			p.y = r * math.Sin(a)
		}
		ps[i] = p
	}
	return ps, index, nil
}

// resolveEdges maps edge endpoints to particle indexes, failing fast on
// endpoints outside the node set. The adapter filters dangling edges before
// they reach the engine, so hitting this here indicates a caller bug.
func resolveEdges(edges []Edge, index map[string]int, ps []particle) ([]simEdge, error) {
	ses := make([]simEdge, 0, len(edges))
	for _, e := range edges {
		src, ok := index[e.Source]
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidGraph, "edge references unknown source node %q", e.Source)
		}
		dst, ok := index[e.Target]
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidGraph, "edge references unknown target node %q", e.Target)
		}
		w := e.Weight
		if w <= 0 {
			w = 1
		}
		ses = append(ses, simEdge{src: src, dst: dst, weight: w})
		ps[src].outDeg++
	}
	return ses, nil
}

// firstNonFinite returns the index of the first particle with a non-finite
// coordinate, or -1 when all positions are finite.
func firstNonFinite(ps []particle) int {
	for i := range ps {
		if math.IsNaN(ps[i].x) || math.IsInf(ps[i].x, 0) ||
			math.IsNaN(ps[i].y) || math.IsInf(ps[i].y, 0) {
			return i
		}
	}
	return -1
}
