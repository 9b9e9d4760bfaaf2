package layout

import (
	"io"
	"math"

	"github.com/charmbracelet/log"

	"github.com/dhuston/livingmap/pkg/graph"
	"github.com/dhuston/livingmap/pkg/sim"
)

// PositionedNode is the output record the rendering layer consumes.
type PositionedNode struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// baseRadius gives each node type its visual footprint. The enumeration is
// open: unknown types get the default. Radii grow with degree in radiusFor.
var baseRadius = map[string]float64{
	graph.TypeUser:           6,
	graph.TypeTeam:           10,
	graph.TypeProject:        9,
	graph.TypeGoal:           8,
	graph.TypeKnowledgeAsset: 5,
	graph.TypeDepartment:     12,
	graph.TypeCluster:        14,
}

const defaultNodeRadius = 6

// ToSim converts a domain graph into the engine's node/edge representation.
//
// Edges referencing IDs outside the node set are dropped with a logged
// warning rather than aborting the conversion, since map data may reference
// stale ids. Dropped edges do not contribute to degree. Node order is
// preserved. Warm positions (from a previous run of the same view) mark
// nodes as placed so the engine skips random initialization for them.
func ToSim(g graph.Graph, warm map[string]sim.Position, logger *log.Logger) ([]sim.Node, []sim.Edge) {
	logger = orDiscard(logger)
	set := g.NodeSet()

	edges := make([]sim.Edge, 0, len(g.Edges))
	degree := make(map[string]int, len(g.Nodes))
	for _, e := range g.Edges {
		_, srcOK := set[e.Source]
		_, dstOK := set[e.Target]
		if !srcOK || !dstOK {
			logger.Warn("dropping edge with unknown endpoint",
				"edge", e.ID, "source", e.Source, "target", e.Target)
			continue
		}
		edges = append(edges, sim.Edge{Source: e.Source, Target: e.Target, Weight: e.Weight})
		degree[e.Source]++
		degree[e.Target]++
	}

	nodes := make([]sim.Node, len(g.Nodes))
	for i, n := range g.Nodes {
		deg := degree[n.ID]
		node := sim.Node{
			ID: n.ID,
			// Mass floors at 1 so zero-degree nodes still repel cleanly.
			Mass: 1 + float64(deg),
			Size: radiusFor(n.Type, deg),
		}
		if p, ok := warm[n.ID]; ok {
			node.X, node.Y = p.X, p.Y
			node.Placed = true
		}
		nodes[i] = node
	}
	return nodes, edges
}

// FromResult maps each domain node to a final position. Nodes absent from
// the result (which correct engine behavior rules out) keep their last known
// position rather than snapping to the origin; with no known position they
// are omitted with a warning.
func FromResult(res sim.Result, g graph.Graph, prev map[string]sim.Position, logger *log.Logger) []PositionedNode {
	logger = orDiscard(logger)

	out := make([]PositionedNode, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if p, ok := res.Positions[n.ID]; ok {
			out = append(out, PositionedNode{ID: n.ID, X: p.X, Y: p.Y})
			continue
		}
		if p, ok := prev[n.ID]; ok {
			logger.Warn("node missing from layout result, keeping last known position", "node", n.ID)
			out = append(out, PositionedNode{ID: n.ID, X: p.X, Y: p.Y})
			continue
		}
		logger.Warn("node missing from layout result with no prior position, omitting", "node", n.ID)
	}
	return out
}

// PositionMap converts positioned nodes back into a warm-start map for a
// subsequent run of the same view.
func PositionMap(nodes []PositionedNode) map[string]sim.Position {
	m := make(map[string]sim.Position, len(nodes))
	for _, n := range nodes {
		m[n.ID] = sim.Position{X: n.X, Y: n.Y}
	}
	return m
}

func radiusFor(nodeType string, degree int) float64 {
	r, ok := baseRadius[nodeType]
	if !ok {
		r = defaultNodeRadius
	}
	return r + math.Sqrt(float64(degree))
}

func orDiscard(logger *log.Logger) *log.Logger {
	if logger == nil {
		return log.NewWithOptions(io.Discard, log.Options{})
	}
	return logger
}
