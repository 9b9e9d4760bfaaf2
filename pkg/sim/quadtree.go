package sim

// maxQuadDepth bounds subdivision so coincident particles cannot recurse
// forever; at the cap a leaf aggregates all bodies into its center of mass.
const maxQuadDepth = 32

// quadRegion is one square region of the Barnes-Hut quadtree. Internal
// regions carry the aggregate mass and center of mass of everything below
// them, letting distant groups of particles act as a single body.
type quadRegion struct {
	// Square bounds: top-left corner and side length.
	x, y, size float64

	// Center of mass of all particles in this region.
	comX, comY float64
	mass       float64

	body     int  // particle index if leaf holding one body, -1 otherwise
	leaf     bool
	depth    int
	children [4]*quadRegion // nw, ne, sw, se
}

// buildQuadTree constructs a quadtree over the particle positions.
// Returns nil for an empty particle set.
func buildQuadTree(ps []particle) *quadRegion {
	if len(ps) == 0 {
		return nil
	}

	minX, maxX := ps[0].x, ps[0].x
	minY, maxY := ps[0].y, ps[0].y
	for _, p := range ps[1:] {
		minX = min(minX, p.x)
		maxX = max(maxX, p.x)
		minY = min(minY, p.y)
		maxY = max(maxY, p.y)
	}

	// Pad and square the bounds so quadrant math stays uniform.
	side := max(maxX-minX, maxY-minY)
	pad := side*0.1 + 1
	side += 2 * pad

	root := &quadRegion{
		x:    (minX+maxX)/2 - side/2,
		y:    (minY+maxY)/2 - side/2,
		size: side,
		body: -1,
		leaf: true,
	}
	for i := range ps {
		root.insert(i, ps[i].x, ps[i].y, ps[i].mass)
	}
	return root
}

// insert adds particle i at (px, py) with mass m to the subtree.
func (r *quadRegion) insert(i int, px, py, m float64) {
	if r.leaf && r.body == -1 {
		r.body = i
		r.comX, r.comY = px, py
		r.mass = m
		return
	}

	if r.leaf {
		if r.depth >= maxQuadDepth {
			// Coincident or near-coincident particles: aggregate instead of
			// subdividing further. Self-force for the extra bodies is lost,
			// which is within the approximation tolerance.
			total := r.mass + m
			r.comX = (r.comX*r.mass + px*m) / total
			r.comY = (r.comY*r.mass + py*m) / total
			r.mass = total
			return
		}
		r.split()
		r.insertIntoChild(r.body, r.comX, r.comY, r.mass)
		r.body = -1
	}

	total := r.mass + m
	r.comX = (r.comX*r.mass + px*m) / total
	r.comY = (r.comY*r.mass + py*m) / total
	r.mass = total

	r.insertIntoChild(i, px, py, m)
}

// split converts a leaf into an internal region with four empty quadrants.
func (r *quadRegion) split() {
	half := r.size / 2
	mk := func(x, y float64) *quadRegion {
		return &quadRegion{x: x, y: y, size: half, body: -1, leaf: true, depth: r.depth + 1}
	}
	r.children[0] = mk(r.x, r.y)           // nw
	r.children[1] = mk(r.x+half, r.y)      // ne
	r.children[2] = mk(r.x, r.y+half)      // sw
	r.children[3] = mk(r.x+half, r.y+half) // se
	r.leaf = false
}

func (r *quadRegion) insertIntoChild(i int, px, py, m float64) {
	half := r.size / 2
	idx := 0
	if px >= r.x+half {
		idx++
	}
	if py >= r.y+half {
		idx += 2
	}
	r.children[idx].insert(i, px, py, m)
}

// forceOn computes the approximate repulsive force this subtree exerts on
// particle i at (px, py) with mass m, using the opening-angle criterion
// theta. Regions whose size/distance ratio is below theta act as a single
// body at their center of mass.
func (r *quadRegion) forceOn(i int, px, py, m, scaling, theta float64) (fx, fy float64) {
	if r.mass == 0 {
		return 0, 0
	}
	if r.leaf && r.body == i {
		return 0, 0
	}

	dx := px - r.comX
	dy := py - r.comY
	d2 := dx*dx + dy*dy

	if r.leaf || r.size*r.size < theta*theta*d2 {
		if d2 == 0 {
			// Coincident with the region's center of mass; the engine's
			// collision jitter separates such pairs on the next step.
			return 0, 0
		}
		factor := scaling * m * r.mass / d2
		return dx * factor, dy * factor
	}

	for _, c := range r.children {
		cfx, cfy := c.forceOn(i, px, py, m, scaling, theta)
		fx += cfx
		fy += cfy
	}
	return fx, fy
}
