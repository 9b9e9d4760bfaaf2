// Package sim implements the force-directed layout simulation used to
// position Living Map nodes.
//
// The engine runs a ForceAtlas2-style physical simulation over a node/edge
// graph: all node pairs repel, edges attract their endpoints, and a gravity
// force pulls everything toward the graph centroid. The loop runs for a
// bounded number of discrete steps or until total displacement falls below a
// convergence threshold, then returns final positions.
//
// [Run] is a pure run-to-completion function over its inputs: the engine
// holds no state between runs, never mutates caller-owned slices, and is
// deterministic for a fixed [Settings.Seed]. Repulsion can be computed
// exactly in O(n²) or approximated with a Barnes-Hut quadtree in O(n log n);
// the two strategies sit behind the same interface and are selected by
// [Settings.BarnesHutOptimize].
package sim
