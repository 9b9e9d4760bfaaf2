package layout

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/dhuston/livingmap/pkg/errors"
	"github.com/dhuston/livingmap/pkg/graph"
	"github.com/dhuston/livingmap/pkg/observability"
	"github.com/dhuston/livingmap/pkg/sim"
)

// Message tags for the worker wire protocol. The format is stable so the
// scheduler and engine can be implemented and tested independently.
const (
	MessageSuccess = "SUCCESS"
	MessageError   = "ERROR"
)

// DefaultTimeout is the maximum wait for a worker response before a run is
// treated as failed, so an unresponsive worker cannot wedge a caller forever.
const DefaultTimeout = 30 * time.Second

// layoutRequest is the serialized request payload shipped to the worker.
type layoutRequest struct {
	ID      string                  `json:"id"`
	View    string                  `json:"view,omitempty"`
	Seq     uint64                  `json:"seq"`
	Graph   graph.Graph             `json:"graph"`
	Options sim.Settings            `json:"options"`
	Warm    map[string]sim.Position `json:"warm,omitempty"`
}

// layoutResponse is the tagged union posted back across the boundary:
// {type: SUCCESS, result} or {type: ERROR, code, error}.
type layoutResponse struct {
	Type   string      `json:"type"`
	Seq    uint64      `json:"seq"`
	Result *RunOutput  `json:"result,omitempty"`
	Code   errors.Code `json:"code,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// RunOutput is the successful outcome of one layout run.
type RunOutput struct {
	Positions  []PositionedNode `json:"positions"`
	Iterations int              `json:"iterations"`
	Converged  bool             `json:"converged"`
	Seed       uint64           `json:"seed"`
}

type envelope struct {
	scope   string
	seq     uint64
	payload []byte
	reply   chan []byte
}

// Scheduler owns the boundary between callers (which must never stall) and
// the CPU-bound simulation. A single dedicated worker goroutine runs layouts
// one at a time; callers suspend on a reply channel, no polling. At most one
// run per view is useful at a time: issuing a new request for a view
// supersedes any outstanding one for that same view, and stale results are
// discarded (latest wins). Requests for different views never supersede each
// other; requests without a view each get their own scope.
type Scheduler struct {
	logger  *log.Logger
	timeout time.Duration

	reqs chan envelope
	quit chan struct{}

	seq atomic.Uint64 // last issued sequence number

	mu     sync.Mutex
	latest map[string]uint64 // newest issued sequence number per view scope
	closed bool

	enqueues  sync.WaitGroup
	closeOnce sync.Once
}

// NewScheduler starts a scheduler with its worker goroutine. A zero timeout
// selects [DefaultTimeout]; a nil logger discards output.
func NewScheduler(timeout time.Duration, logger *log.Logger) *Scheduler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	s := &Scheduler{
		logger:  orDiscard(logger),
		timeout: timeout,
		reqs:    make(chan envelope, 1),
		quit:    make(chan struct{}),
		latest:  make(map[string]uint64),
	}
	go s.worker()
	return s
}

// RunLayout serializes the graph, dispatches it to the worker, and blocks
// until positioned nodes arrive or the run fails. The calling goroutine
// suspends but holds no locks, so the caller's event loop stays responsive.
// viewID scopes the latest-wins rule: only a newer request for the same view
// supersedes this one. An empty viewID gives the request its own scope.
//
// Typed failures: SUPERSEDED when a newer request for the view was issued
// before this one resolved, TIMEOUT when the worker does not respond in time
// or responds with a malformed payload, and the engine's INVALID_GRAPH and
// NUMERICAL_INSTABILITY errors passed through.
func (s *Scheduler) RunLayout(ctx context.Context, viewID string, g graph.Graph, settings sim.Settings, warm map[string]sim.Position) (*RunOutput, error) {
	seq := s.seq.Add(1)

	req := layoutRequest{
		ID:      uuid.NewString(),
		View:    viewID,
		Seq:     seq,
		Graph:   g,
		Options: settings,
		Warm:    warm,
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "serialize layout request")
	}

	scope := viewID
	if scope == "" {
		scope = req.ID
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, errors.New(errors.ErrCodeInternal, "scheduler is closed")
	}
	s.latest[scope] = seq
	s.enqueues.Add(1)
	s.mu.Unlock()

	// Drop the scope entry once this run resolves, unless a newer request
	// has taken it over, so the map stays bounded by in-flight scopes.
	defer func() {
		s.mu.Lock()
		if s.latest[scope] == seq {
			delete(s.latest, scope)
		}
		s.mu.Unlock()
	}()

	reply := make(chan []byte, 1)
	select {
	case s.reqs <- envelope{scope: scope, seq: seq, payload: payload, reply: reply}:
		s.enqueues.Done()
	case <-s.quit:
		s.enqueues.Done()
		return nil, errors.New(errors.ErrCodeInternal, "scheduler is closed")
	case <-ctx.Done():
		s.enqueues.Done()
		return nil, ctx.Err()
	}

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case raw := <-reply:
		return s.resolve(raw, scope, seq)
	case <-timer.C:
		return nil, errors.New(errors.ErrCodeTimeout,
			"layout run %s did not respond within %s", req.ID, s.timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// latestFor returns the newest issued sequence number for a view scope.
func (s *Scheduler) latestFor(scope string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest[scope]
}

// resolve decodes a worker response and applies the latest-wins rule.
func (s *Scheduler) resolve(raw []byte, scope string, seq uint64) (*RunOutput, error) {
	var resp layoutResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		// A worker that cannot produce a well-formed response is treated the
		// same as one that never responded.
		return nil, errors.Wrap(errors.ErrCodeTimeout, err, "malformed worker response")
	}

	if s.latestFor(scope) != seq {
		observability.Layout().OnSuperseded(context.Background(), seq)
		return nil, errors.New(errors.ErrCodeSuperseded, "layout run superseded by a newer request")
	}

	switch resp.Type {
	case MessageSuccess:
		return resp.Result, nil
	case MessageError:
		code := resp.Code
		if code == "" {
			code = errors.ErrCodeInternal
		}
		return nil, errors.New(code, "%s", resp.Error)
	default:
		return nil, errors.New(errors.ErrCodeTimeout, "unknown worker response type %q", resp.Type)
	}
}

// Close terminates the worker goroutine. Calls issued after Close fail fast
// with a scheduler-closed error; requests already enqueued are rejected by
// the worker on its way out, so no caller is left waiting out its timeout.
// A synchronous simulation step already in progress cannot be interrupted
// and its result is discarded. Close is idempotent.
func (s *Scheduler) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.quit)
	})
	return nil
}

// worker is the background execution context: it decodes request payloads,
// runs the adapter and engine, and posts tagged responses. Simulation runs
// are synchronous and CPU-bound; newer requests queue behind them but
// superseded ones are rejected before wasting a run.
func (s *Scheduler) worker() {
	for {
		select {
		case <-s.quit:
			// Wait for enqueues racing Close to land, then reject whatever
			// is left in the buffer.
			s.enqueues.Wait()
			for {
				select {
				case env := <-s.reqs:
					env.reply <- marshalResponse(layoutResponse{
						Type:  MessageError,
						Seq:   env.seq,
						Code:  errors.ErrCodeInternal,
						Error: "scheduler is closed",
					})
				default:
					return
				}
			}
		case env := <-s.reqs:
			if s.latestFor(env.scope) != env.seq {
				env.reply <- marshalResponse(layoutResponse{
					Type:  MessageError,
					Seq:   env.seq,
					Code:  errors.ErrCodeSuperseded,
					Error: "superseded before run started",
				})
				continue
			}
			env.reply <- s.process(env.payload, env.seq)
		}
	}
}

func (s *Scheduler) process(payload []byte, seq uint64) (out []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("layout worker panicked", "seq", seq, "panic", r)
			out = marshalResponse(layoutResponse{
				Type:  MessageError,
				Seq:   seq,
				Code:  errors.ErrCodeInternal,
				Error: fmt.Sprintf("layout worker panicked: %v", r),
			})
		}
	}()

	var req layoutRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return marshalResponse(layoutResponse{
			Type:  MessageError,
			Seq:   seq,
			Code:  errors.ErrCodeInvalidInput,
			Error: fmt.Sprintf("decode layout request: %v", err),
		})
	}

	start := time.Now()
	observability.Layout().OnLayoutStart(context.Background(), req.ID, len(req.Graph.Nodes))

	nodes, edges := ToSim(req.Graph, req.Warm, s.logger)
	res, err := sim.Run(nodes, edges, req.Options)

	observability.Layout().OnLayoutComplete(context.Background(), req.ID, time.Since(start), err)

	if err != nil {
		code := errors.GetCode(err)
		if code == "" {
			code = errors.ErrCodeInternal
		}
		return marshalResponse(layoutResponse{
			Type:  MessageError,
			Seq:   seq,
			Code:  code,
			Error: errors.UserMessage(err),
		})
	}

	positioned := FromResult(res, req.Graph, req.Warm, s.logger)
	return marshalResponse(layoutResponse{
		Type: MessageSuccess,
		Seq:  seq,
		Result: &RunOutput{
			Positions:  positioned,
			Iterations: res.Iterations,
			Converged:  res.Converged,
			Seed:       res.Seed,
		},
	})
}

func marshalResponse(resp layoutResponse) []byte {
	data, err := json.Marshal(resp)
	if err != nil {
		// The response type contains only marshalable fields; this is
		// unreachable in practice but must not take the worker down.
		return []byte(`{"type":"ERROR","code":"INTERNAL_ERROR","error":"encode worker response"}`)
	}
	return data
}
