package render

import (
	"fmt"
	"strings"
	"testing"

	"github.com/dhuston/livingmap/pkg/graph"
	"github.com/dhuston/livingmap/pkg/layout"
)

func testGraph() graph.Graph {
	return graph.Graph{
		Nodes: []graph.Node{
			{ID: "alice", Type: graph.TypeUser, Label: "Alice"},
			{ID: "platform", Type: graph.TypeTeam},
			{ID: "mystery", Type: "something-new"},
		},
		Edges: []graph.Edge{
			{Source: "alice", Target: "platform"},
			{Source: "alice", Target: "mystery"},
		},
	}
}

func testPositions() []layout.PositionedNode {
	return []layout.PositionedNode{
		{ID: "alice", X: 10, Y: -20},
		{ID: "platform", X: 0, Y: 5.5},
		{ID: "mystery", X: 100, Y: 100},
	}
}

func TestToDOTPinsPositions(t *testing.T) {
	dot := ToDOT(testGraph(), testPositions(), Options{})

	// Every node pinned with neato's ! suffix at scaled coordinates
	if !strings.Contains(dot, `"alice" [pos="7.50,-15.00!"`) {
		t.Errorf("alice not pinned:\n%s", dot)
	}
	if !strings.Contains(dot, `"platform" [pos="0.00,4.12!"`) {
		t.Errorf("platform not pinned:\n%s", dot)
	}

	// Undirected edges
	if !strings.Contains(dot, `"alice" -- "platform";`) {
		t.Errorf("edge missing:\n%s", dot)
	}
}

func TestToDOTSkipsUnplacedNodes(t *testing.T) {
	g := testGraph()
	// Only alice has a position; platform/mystery and their edges drop out.
	positions := []layout.PositionedNode{{ID: "alice", X: 1, Y: 2}}

	dot := ToDOT(g, positions, Options{})
	if strings.Contains(dot, `"platform" [`) {
		t.Error("unplaced node should be skipped")
	}
	if strings.Contains(dot, "--") {
		t.Errorf("edges to unplaced nodes should be skipped:\n%s", dot)
	}
}

func TestToDOTLabels(t *testing.T) {
	dot := ToDOT(testGraph(), testPositions(), Options{ShowLabels: true})
	if !strings.Contains(dot, `label="Alice"`) {
		t.Error("node label should use display label")
	}
	// Falls back to ID when no label set
	if !strings.Contains(dot, `label="platform"`) {
		t.Error("label should fall back to node ID")
	}

	dot = ToDOT(testGraph(), testPositions(), Options{ShowLabels: false})
	if strings.Contains(dot, `label="Alice"`) {
		t.Error("labels should be hidden by default")
	}
}

func TestToDOTSizesNodesByDegree(t *testing.T) {
	// alice has degree 2; platform and mystery have 1 each.
	dot := ToDOT(testGraph(), testPositions(), Options{})

	aliceWidth := fmt.Sprintf("width=%.2f", widthFor(2))
	leafWidth := fmt.Sprintf("width=%.2f", widthFor(1))
	if !strings.Contains(dot, aliceWidth) {
		t.Errorf("hub node width %s missing:\n%s", aliceWidth, dot)
	}
	if !strings.Contains(dot, leafWidth) {
		t.Errorf("leaf node width %s missing:\n%s", leafWidth, dot)
	}
	if widthFor(2) <= widthFor(1) {
		t.Error("higher degree should draw wider")
	}
	if widthFor(1000) > maxNodeWidth {
		t.Errorf("width must cap at %g, got %g", maxNodeWidth, widthFor(1000))
	}
	if widthFor(0) != minNodeWidth {
		t.Errorf("isolated node width = %g, want %g", widthFor(0), minNodeWidth)
	}
}

func TestToDOTStyles(t *testing.T) {
	light := ToDOT(testGraph(), testPositions(), Options{Style: StyleLight})
	dark := ToDOT(testGraph(), testPositions(), Options{Style: StyleDark})
	if light == dark {
		t.Error("light and dark styles should differ")
	}

	// Unknown node types fall back to the default fill
	if !strings.Contains(light, defaultFill) {
		t.Error("unknown type should use default fill")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<?xml version="1.0"?>
<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg">
<g></g>
</svg>`)
	out := normalizeViewBox(in)
	if !strings.Contains(string(out), `viewBox="0 0 100.00 50.00"`) {
		t.Errorf("viewBox not normalized: %s", out)
	}
	if !strings.Contains(string(out), `width="100" height="50"`) {
		t.Errorf("dimensions not rewritten: %s", out)
	}

	// SVG without a viewBox passes through untouched
	plain := []byte(`<svg xmlns="x"><g/></svg>`)
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("svg without viewBox should pass through")
	}
}
