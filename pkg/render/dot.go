package render

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/dhuston/livingmap/pkg/graph"
	"github.com/dhuston/livingmap/pkg/layout"
)

// Visual styles.
const (
	StyleLight = "light"
	StyleDark  = "dark"
)

// ValidStyles is the set of supported visual styles.
var ValidStyles = map[string]bool{
	StyleLight: true,
	StyleDark:  true,
}

// posScale converts simulation units to Graphviz points. Simulation
// coordinates span hundreds of units for mid-size graphs; scaling down
// keeps the drawing at a sane physical size.
const posScale = 0.75

// Options configures map rendering.
type Options struct {
	// Style selects the color scheme (light or dark).
	Style string

	// ShowLabels includes node labels. When false, only shapes are drawn.
	ShowLabels bool
}

// fillColors maps node types to fill colors per style.
var fillColors = map[string]map[string]string{
	StyleLight: {
		graph.TypeUser:           "#dbeafe",
		graph.TypeTeam:           "#bfdbfe",
		graph.TypeProject:        "#dcfce7",
		graph.TypeGoal:           "#fef9c3",
		graph.TypeKnowledgeAsset: "#f3e8ff",
		graph.TypeDepartment:     "#fee2e2",
		graph.TypeCluster:        "#e5e7eb",
	},
	StyleDark: {
		graph.TypeUser:           "#1e3a8a",
		graph.TypeTeam:           "#1e40af",
		graph.TypeProject:        "#14532d",
		graph.TypeGoal:           "#713f12",
		graph.TypeKnowledgeAsset: "#581c87",
		graph.TypeDepartment:     "#7f1d1d",
		graph.TypeCluster:        "#374151",
	},
}

const defaultFill = "#ffffff"

// Node width bounds in inches. Hubs grow with the square root of their
// degree so a node with 4x the connections draws 2x wider, capped before
// it drowns out its neighborhood.
const (
	minNodeWidth = 0.5
	maxNodeWidth = 1.4
)

// widthFor sizes a node by its incident-edge count.
func widthFor(degree int) float64 {
	w := minNodeWidth + 0.1*math.Sqrt(float64(degree))
	return math.Min(w, maxNodeWidth)
}

// ToDOT converts a graph and its computed positions to Graphviz DOT with
// every node pinned (`pos="x,y!"`). Render with the neato engine so the
// pins are honored. Nodes without a computed position are skipped, along
// with their edges. Well-connected nodes are drawn larger so hubs read at
// a glance.
func ToDOT(g graph.Graph, positions []layout.PositionedNode, opts Options) string {
	if opts.Style == "" {
		opts.Style = StyleLight
	}
	fills := fillColors[opts.Style]
	font, bg := "#111827", "transparent"
	if opts.Style == StyleDark {
		font = "#f9fafb"
	}

	byID := make(map[string]layout.PositionedNode, len(positions))
	for _, p := range positions {
		byID[p.ID] = p
	}
	degrees := g.Degrees()

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	fmt.Fprintf(&buf, "  bgcolor=%q;\n", bg)
	fmt.Fprintf(&buf, "  node [shape=circle, style=filled, fontsize=10, fontcolor=%q, fixedsize=true];\n", font)
	buf.WriteString("  edge [color=\"#9ca3af\"];\n")
	buf.WriteString("\n")

	placed := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		p, ok := byID[n.ID]
		if !ok {
			continue
		}
		placed[n.ID] = true
		attrs := []string{
			fmt.Sprintf("pos=\"%.2f,%.2f!\"", p.X*posScale, p.Y*posScale),
			fmt.Sprintf("fillcolor=%q", fillFor(fills, n.Type)),
			fmt.Sprintf("width=%.2f", widthFor(degrees[n.ID])),
		}
		if opts.ShowLabels {
			attrs = append(attrs, fmt.Sprintf("label=%q", n.DisplayLabel()))
		} else {
			attrs = append(attrs, `label=""`)
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		if !placed[e.Source] || !placed[e.Target] {
			continue
		}
		fmt.Fprintf(&buf, "  %q -- %q;\n", e.Source, e.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fillFor(fills map[string]string, nodeType string) string {
	if c, ok := fills[nodeType]; ok {
		return c
	}
	return defaultFill
}
