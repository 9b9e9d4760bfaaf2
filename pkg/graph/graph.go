// Package graph defines the domain graph consumed by the Living Map layout
// engine: a plain, JSON-serializable node/edge list as produced by the
// KnowledgePlane API.
//
// Node types are an open enumeration (user, team, project, goal, ...) and are
// irrelevant to the layout math itself beyond deriving a node's visual radius.
package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dhuston/livingmap/pkg/errors"
)

// Well-known node types. The set is open: unknown types are laid out with
// the default radius.
const (
	TypeUser           = "user"
	TypeTeam           = "team"
	TypeProject        = "project"
	TypeGoal           = "goal"
	TypeKnowledgeAsset = "knowledge-asset"
	TypeDepartment     = "department"
	TypeCluster        = "cluster"
)

// Graph is the canonical serialization format for map graphs.
// Used for API requests, storage, caching, and the layout wire protocol.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is one map entity (person, team, project, goal, ...).
type Node struct {
	ID    string         `json:"id"`
	Type  string         `json:"type,omitempty"`
	Label string         `json:"label,omitempty"` // Display label (defaults to ID)
	Meta  map[string]any `json:"meta,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Edge is a directed relationship between two nodes.
// Weight scales attraction strength during layout; zero means default (1).
type Edge struct {
	ID     string  `json:"id,omitempty"`
	Source string  `json:"source"`
	Target string  `json:"target"`
	Type   string  `json:"type,omitempty"`
	Weight float64 `json:"weight,omitempty"`
}

// Validate checks structural invariants that every graph must satisfy before
// layout: non-empty, unique node IDs. Edge endpoints are deliberately NOT
// checked here — dangling edges are tolerated and filtered by the layout
// adapter, since map data may reference stale ids.
func (g *Graph) Validate() error {
	seen := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if err := errors.ValidateNodeID(n.ID); err != nil {
			return err
		}
		if _, dup := seen[n.ID]; dup {
			return errors.New(errors.ErrCodeInvalidGraph, "duplicate node ID %q", n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	return nil
}

// NodeSet returns the set of node IDs for membership tests.
func (g *Graph) NodeSet() map[string]struct{} {
	set := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		set[n.ID] = struct{}{}
	}
	return set
}

// Degrees returns the incident-edge count per node ID (in + out).
// Edges with endpoints outside the node set contribute only to the
// endpoint that exists.
func (g *Graph) Degrees() map[string]int {
	set := g.NodeSet()
	deg := make(map[string]int, len(g.Nodes))
	for _, n := range g.Nodes {
		deg[n.ID] = 0
	}
	for _, e := range g.Edges {
		if _, ok := set[e.Source]; ok {
			deg[e.Source]++
		}
		if _, ok := set[e.Target]; ok {
			deg[e.Target]++
		}
	}
	return deg
}

// Marshal converts a Graph to indented JSON bytes.
func Marshal(g Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeTo(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal deserializes JSON bytes to a Graph.
func Unmarshal(data []byte) (Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return Graph{}, fmt.Errorf("unmarshal graph: %w", err)
	}
	return g, nil
}

// Write writes a Graph as JSON to an io.Writer.
func Write(g Graph, w io.Writer) error {
	return writeTo(g, w)
}

// Read decodes a JSON graph from an io.Reader.
func Read(r io.Reader) (Graph, error) {
	var g Graph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return Graph{}, fmt.Errorf("decode graph: %w", err)
	}
	return g, nil
}

// WriteFile writes a Graph to a JSON file.
// The file is created with 0644 permissions.
func WriteFile(g Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeTo(g, f)
}

// ReadFile reads a JSON file and returns the decoded Graph.
func ReadFile(path string) (Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return Graph{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

func writeTo(g Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}
	return nil
}
