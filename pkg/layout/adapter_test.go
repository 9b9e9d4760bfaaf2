package layout

import (
	"testing"

	"github.com/dhuston/livingmap/pkg/graph"
	"github.com/dhuston/livingmap/pkg/sim"
)

func TestToSimDanglingEdgeTolerance(t *testing.T) {
	g := graph.Graph{
		Nodes: []graph.Node{{ID: "a"}, {ID: "b"}},
		Edges: []graph.Edge{{ID: "e1", Source: "a", Target: "missing"}},
	}

	nodes, edges := ToSim(g, nil, nil)

	if len(nodes) != 2 {
		t.Fatalf("got %d nodes, want 2 — only edges are filtered, never nodes", len(nodes))
	}
	if len(edges) != 0 {
		t.Fatalf("got %d edges, want 0", len(edges))
	}

	// The dropped edge must not inflate degree-derived mass.
	if nodes[0].Mass != 1 {
		t.Errorf("mass of a = %g, want 1 (degree floor)", nodes[0].Mass)
	}

	// The resulting graph must lay out normally.
	s := sim.DefaultSettings()
	s.Seed = 5
	s.Iterations = 20
	if _, err := sim.Run(nodes, edges, s); err != nil {
		t.Errorf("layout of filtered graph failed: %v", err)
	}
}

func TestToSimPreservesNodeOrder(t *testing.T) {
	g := graph.Graph{
		Nodes: []graph.Node{{ID: "z"}, {ID: "m"}, {ID: "a"}},
	}

	nodes, _ := ToSim(g, nil, nil)
	for i, want := range []string{"z", "m", "a"} {
		if nodes[i].ID != want {
			t.Errorf("node %d = %s, want %s", i, nodes[i].ID, want)
		}
	}
}

func TestToSimMassFromDegree(t *testing.T) {
	g := graph.Graph{
		Nodes: []graph.Node{{ID: "hub"}, {ID: "a"}, {ID: "b"}, {ID: "isolated"}},
		Edges: []graph.Edge{
			{Source: "hub", Target: "a"},
			{Source: "hub", Target: "b"},
		},
	}

	nodes, _ := ToSim(g, nil, nil)
	byID := make(map[string]sim.Node)
	for _, n := range nodes {
		byID[n.ID] = n
	}

	if byID["hub"].Mass != 3 {
		t.Errorf("hub mass = %g, want 3 (1 + degree 2)", byID["hub"].Mass)
	}
	if byID["isolated"].Mass != 1 {
		t.Errorf("isolated mass = %g, want 1", byID["isolated"].Mass)
	}
	if byID["hub"].Size <= byID["isolated"].Size {
		t.Error("higher-degree node should get a larger radius")
	}
}

func TestToSimTypeRadii(t *testing.T) {
	g := graph.Graph{
		Nodes: []graph.Node{
			{ID: "d", Type: graph.TypeDepartment},
			{ID: "k", Type: graph.TypeKnowledgeAsset},
			{ID: "x", Type: "unknown-type"},
		},
	}

	nodes, _ := ToSim(g, nil, nil)
	if nodes[0].Size <= nodes[1].Size {
		t.Error("department should be larger than knowledge asset")
	}
	if nodes[2].Size != defaultNodeRadius {
		t.Errorf("unknown type radius = %g, want default %d", nodes[2].Size, defaultNodeRadius)
	}
}

func TestToSimWarmStart(t *testing.T) {
	g := graph.Graph{Nodes: []graph.Node{{ID: "a"}, {ID: "b"}}}
	warm := map[string]sim.Position{"a": {X: 12, Y: -3}}

	nodes, _ := ToSim(g, warm, nil)

	if !nodes[0].Placed || nodes[0].X != 12 || nodes[0].Y != -3 {
		t.Errorf("warm node not placed: %+v", nodes[0])
	}
	if nodes[1].Placed {
		t.Error("node without warm position should not be placed")
	}
}

func TestFromResultFallbacks(t *testing.T) {
	g := graph.Graph{Nodes: []graph.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	res := sim.Result{Positions: map[string]sim.Position{"a": {X: 1, Y: 2}}}
	prev := map[string]sim.Position{"b": {X: 7, Y: 8}}

	out := FromResult(res, g, prev, nil)

	if len(out) != 2 {
		t.Fatalf("got %d positioned nodes, want 2 (c omitted)", len(out))
	}
	if out[0].ID != "a" || out[0].X != 1 || out[0].Y != 2 {
		t.Errorf("a = %+v", out[0])
	}
	// b is missing from the result but keeps its last known position instead
	// of snapping to the origin.
	if out[1].ID != "b" || out[1].X != 7 || out[1].Y != 8 {
		t.Errorf("b = %+v", out[1])
	}
}

func TestPositionMapRoundTrip(t *testing.T) {
	nodes := []PositionedNode{{ID: "a", X: 1, Y: 2}, {ID: "b", X: 3, Y: 4}}
	m := PositionMap(nodes)
	if m["a"] != (sim.Position{X: 1, Y: 2}) || m["b"] != (sim.Position{X: 3, Y: 4}) {
		t.Errorf("PositionMap = %v", m)
	}
}
