// Package pkg provides the core libraries for the Living Map layout engine.
//
// # Overview
//
// Livingmap arranges knowledge graphs — people, teams, projects, goals and
// the relationships between them — as a spatial map using an N-body force
// simulation, so related work settles near related work. The pkg directory
// is organized into a small number of focused packages:
//
//  1. [graph] - Serialization types for graphs (JSON node-link format)
//  2. [sim] - The force simulation engine (repulsion, attraction, gravity)
//  3. [layout] - Worker-boundary scheduling around the engine
//  4. [render] - DOT/SVG/PNG rendering of computed layouts
//  5. [pipeline] - Orchestration (load → layout → render) with caching
//  6. [cache], [store] - Layout cache and warm-start snapshot persistence
//  7. [httputil] - Upstream graph API client with retries
//
// # Architecture
//
// The typical data flow through livingmap:
//
//	graph.json / KnowledgePlane API
//	         ↓
//	    [graph] package (parse + validate)
//	         ↓
//	    [sim] package (force simulation)
//	         ↓
//	    [render] package (DOT → SVG/PNG)
//	         ↓
//	    JSON/DOT/SVG/PNG output
//
// # Quick Start
//
// Compute a layout and render it:
//
//	import (
//	    "context"
//	    "github.com/dhuston/livingmap/pkg/graph"
//	    "github.com/dhuston/livingmap/pkg/layout"
//	    "github.com/dhuston/livingmap/pkg/pipeline"
//	)
//
//	g, _ := graph.ReadFile("team.json")
//
//	runner := pipeline.NewRunner(nil, nil, nil, nil, nil)
//	defer runner.Close()
//
//	result, _ := runner.Execute(context.Background(), g, pipeline.Options{
//	    Formats: []string{pipeline.FormatSVG},
//	})
//	svg := result.Artifacts[pipeline.FormatSVG]
//
// # Main Packages
//
// [sim] - The ForceAtlas2-style simulation: Barnes-Hut approximated
// repulsion, edge attraction, gravity, overlap prevention, and adaptive
// convergence detection. Deterministic for a fixed seed.
//
// [layout] - Scheduling around the engine: graph-to-simulation adaptation,
// per-view latest-wins supersede semantics, timeouts, and panic recovery at
// the worker boundary.
//
// [render] - Graphviz rendering with nodes pinned at their computed
// positions (neato with explicit pos attributes). Light and dark styles.
//
// [pipeline] - The complete layout pipeline used by CLI and API. Caches
// results keyed on graph content and settings, and warm-starts runs from
// stored snapshots so incremental updates keep the map stable.
//
// [cache] - Cache backends: file (CLI), Redis (API), null (testing), plus
// scoped keyers for multi-tenant deployments.
//
// [store] - Snapshot persistence for warm starts: in-memory and MongoDB.
//
// [httputil] - HTTP client for the upstream graph API with exponential
// backoff on transient failures.
//
// [observability] - Pluggable hooks for layout, cache, and HTTP metrics,
// implemented by internal/metrics with Prometheus.
//
// [errors] - Coded errors shared across packages, mapped to HTTP statuses
// and user-facing messages at the edges.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/sim/...      # Specific package
//
// [graph]: https://pkg.go.dev/github.com/dhuston/livingmap/pkg/graph
// [sim]: https://pkg.go.dev/github.com/dhuston/livingmap/pkg/sim
// [layout]: https://pkg.go.dev/github.com/dhuston/livingmap/pkg/layout
// [render]: https://pkg.go.dev/github.com/dhuston/livingmap/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/dhuston/livingmap/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/dhuston/livingmap/pkg/cache
// [store]: https://pkg.go.dev/github.com/dhuston/livingmap/pkg/store
// [httputil]: https://pkg.go.dev/github.com/dhuston/livingmap/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/dhuston/livingmap/pkg/observability
// [errors]: https://pkg.go.dev/github.com/dhuston/livingmap/pkg/errors
package pkg
