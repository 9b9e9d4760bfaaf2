// Package layout connects the Living Map domain graph to the simulation
// engine in pkg/sim.
//
// It has two halves. The adapter ([ToSim], [FromResult]) is a pure,
// synchronous translation between domain records and simulation particles:
// dangling edges are dropped with a warning, mass is derived from node
// degree, and node order is preserved for deterministic downstream
// iteration. The [Scheduler] owns the concurrency boundary: it serializes
// each request to a JSON payload, ships it to a dedicated worker goroutine,
// and resolves the caller with positioned nodes or a typed error. Requests
// carry monotonically increasing sequence numbers and the latest request
// wins — responses for superseded requests are discarded, never delivered.
package layout
