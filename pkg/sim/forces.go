package sim

import (
	"math"
	"math/rand/v2"
)

// particle is the engine-internal simulation state for one node.
// dx/dy accumulate the net force for the current step.
type particle struct {
	x, y   float64
	dx, dy float64
	mass   float64
	size   float64
	fixed  bool
	outDeg int
}

// simEdge is an edge resolved to particle indexes.
type simEdge struct {
	src, dst int
	weight   float64
}

// overlapRepulsionFactor is the extra repulsion multiplier applied while two
// node borders overlap, so overlapping nodes separate quickly.
const overlapRepulsionFactor = 100

// jitterEpsilon is the magnitude of the random nudge applied to coincident
// particles, preventing division by zero in the repulsion kernel.
const jitterEpsilon = 0.1

// repulsor computes the all-pairs repulsive forces for one simulation step.
// Implementations accumulate into each particle's dx/dy.
type repulsor interface {
	apply(ps []particle, s Settings)
}

// exactRepulsion is the O(n²) pairwise strategy. It is the correctness
// reference the Barnes-Hut strategy is tested against, and the one that
// honors PreventOverlap's border-distance kernel.
type exactRepulsion struct{}

func (exactRepulsion) apply(ps []particle, s Settings) {
	for i := range ps {
		for j := i + 1; j < len(ps); j++ {
			dx := ps[i].x - ps[j].x
			dy := ps[i].y - ps[j].y
			d2 := dx*dx + dy*dy
			if d2 == 0 {
				// Coincident pair; the per-step jitter pass separates them.
				continue
			}

			// factor converts the (dx, dy) vector of magnitude d into a
			// force of the desired magnitude: factor = F/d.
			var factor float64
			k := s.ScalingRatio * ps[i].mass * ps[j].mass
			if s.PreventOverlap {
				d := math.Sqrt(d2)
				border := d - ps[i].size - ps[j].size
				if border > 0 {
					factor = k / (border * d)
				} else {
					factor = overlapRepulsionFactor * k / d
				}
			} else {
				factor = k / d2
			}

			ps[i].dx += dx * factor
			ps[i].dy += dy * factor
			ps[j].dx -= dx * factor
			ps[j].dy -= dy * factor
		}
	}
}

// barnesHutRepulsion approximates repulsion with a quadtree in O(n log n).
// It uses the point-mass kernel; border-distance overlap handling stays with
// the exact strategy and the integration clamp.
type barnesHutRepulsion struct{}

func (barnesHutRepulsion) apply(ps []particle, s Settings) {
	root := buildQuadTree(ps)
	if root == nil {
		return
	}
	for i := range ps {
		fx, fy := root.forceOn(i, ps[i].x, ps[i].y, ps[i].mass, s.ScalingRatio, s.Theta)
		ps[i].dx += fx
		ps[i].dy += fy
	}
}

// applyAttraction pulls each edge's endpoints together. Force grows linearly
// with distance, or logarithmically in lin-log mode; with outbound
// distribution it is divided by the source's out-degree.
func applyAttraction(ps []particle, edges []simEdge, s Settings) {
	for _, e := range edges {
		src, dst := &ps[e.src], &ps[e.dst]
		dx := src.x - dst.x
		dy := src.y - dst.y
		d2 := dx*dx + dy*dy
		if d2 == 0 {
			continue
		}

		factor := e.weight
		if s.LinLogMode {
			d := math.Sqrt(d2)
			factor = e.weight * math.Log1p(d) / d
		}
		if s.OutboundAttractionDistribution {
			factor /= float64(max(1, src.outDeg))
		}

		src.dx -= dx * factor
		src.dy -= dy * factor
		dst.dx += dx * factor
		dst.dy += dy * factor
	}
}

// applyGravity pulls every particle toward the centroid of all particles
// with force proportional to gravity, mass, and distance from the centroid.
func applyGravity(ps []particle, gravity float64) {
	if len(ps) == 0 {
		return
	}
	var cx, cy float64
	for i := range ps {
		cx += ps[i].x
		cy += ps[i].y
	}
	cx /= float64(len(ps))
	cy /= float64(len(ps))

	for i := range ps {
		ps[i].dx += (cx - ps[i].x) * gravity * ps[i].mass
		ps[i].dy += (cy - ps[i].y) * gravity * ps[i].mass
	}
}

// integrate converts accumulated forces into displacement, damped by
// slowDown and the particle's mass. Fixed particles never move. Returns the
// mean per-particle displacement, the convergence signal.
func integrate(ps []particle, s Settings) float64 {
	var total float64
	for i := range ps {
		p := &ps[i]
		if p.fixed {
			p.dx, p.dy = 0, 0
			continue
		}

		sx := p.dx / (p.mass * s.SlowDown)
		sy := p.dy / (p.mass * s.SlowDown)

		if s.PreventOverlap {
			// One step may not carry a node further than its own diameter,
			// so borders cannot jump across each other within a step.
			limit := 2 * p.size
			if step := math.Hypot(sx, sy); step > limit {
				sx *= limit / step
				sy *= limit / step
			}
		}

		p.x += sx
		p.y += sy
		p.dx, p.dy = 0, 0
		total += math.Hypot(sx, sy)
	}
	return total / float64(max(1, len(ps)))
}

// separateCoincident nudges particles that share exact coordinates apart by
// a small random epsilon so the repulsion kernels never divide by zero.
// Fixed particles are left in place.
func separateCoincident(ps []particle, rng *rand.Rand) {
	seen := make(map[[2]float64]int, len(ps))
	for i := range ps {
		key := [2]float64{ps[i].x, ps[i].y}
		first, taken := seen[key]
		if !taken {
			seen[key] = i
			continue
		}
		// Nudge whichever of the colliding pair is free to move.
		nudge := i
		if ps[i].fixed {
			if ps[first].fixed {
				continue
			}
			nudge = first
		}
		ps[nudge].x += (rng.Float64() - 0.5) * jitterEpsilon
		ps[nudge].y += (rng.Float64() - 0.5) * jitterEpsilon
	}
}
