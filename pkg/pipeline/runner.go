package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dhuston/livingmap/pkg/cache"
	"github.com/dhuston/livingmap/pkg/errors"
	"github.com/dhuston/livingmap/pkg/graph"
	"github.com/dhuston/livingmap/pkg/layout"
	"github.com/dhuston/livingmap/pkg/observability"
	"github.com/dhuston/livingmap/pkg/render"
	"github.com/dhuston/livingmap/pkg/sim"
	"github.com/dhuston/livingmap/pkg/store"
)

// Runner encapsulates pipeline execution with caching and snapshot
// persistence. Both CLI and API use this to avoid duplicating the logic.
//
// The Runner is stateless except for its collaborators - it doesn't store
// pipeline results. Multiple goroutines can safely share one Runner.
type Runner struct {
	Cache     cache.Cache
	Keyer     cache.Keyer
	Store     store.SnapshotStore
	Scheduler *layout.Scheduler
	Logger    *log.Logger
}

// NewRunner creates a runner with the given collaborators.
// Nil cache disables caching, nil keyer uses the default, nil store
// disables snapshots, nil scheduler creates one with the default timeout.
func NewRunner(c cache.Cache, keyer cache.Keyer, snapshots store.SnapshotStore, sched *layout.Scheduler, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	if sched == nil {
		sched = layout.NewScheduler(layout.DefaultTimeout, logger)
	}
	return &Runner{
		Cache:     c,
		Keyer:     keyer,
		Store:     snapshots,
		Scheduler: sched,
		Logger:    logger,
	}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// GraphHash is the content hash of the graph.
	GraphHash string

	// Layout is the computed layout (positions, iterations, seed).
	Layout *layout.RunOutput

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache and snapshot usage for a run.
type CacheInfo struct {
	LayoutHit   bool // Whether the layout came from cache
	WarmStarted bool // Whether a stored snapshot seeded initial positions
}

// Execute runs the complete layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, g graph.Graph, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	if err := g.Validate(); err != nil {
		return nil, err
	}

	result := &Result{
		Artifacts: make(map[string][]byte),
	}
	result.Stats.NodeCount = len(g.Nodes)
	result.Stats.EdgeCount = len(g.Edges)

	layoutStart := time.Now()
	out, hit, warm, err := r.ComputeLayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		return nil, err
	}
	result.Layout = out
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = hit
	result.CacheInfo.WarmStarted = warm

	if graphData, err := graph.Marshal(g); err == nil {
		result.GraphHash = cache.Hash(graphData)
	}

	opts.Logger.Info("computed layout",
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"iterations", out.Iterations,
		"converged", out.Converged,
		"cached", hit,
		"duration", result.Stats.LayoutTime)

	renderStart := time.Now()
	artifacts, err := r.Render(ctx, g, out, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ComputeLayoutWithCacheInfo computes a layout with caching and warm-start,
// reporting whether the result came from cache and whether a snapshot
// seeded the run.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, g graph.Graph, opts Options) (*layout.RunOutput, bool, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, false, err
	}
	r.applyLogger(&opts)

	graphData, err := graph.Marshal(g)
	if err != nil {
		return nil, false, false, err
	}
	graphHash := cache.Hash(graphData)
	cacheKey := r.Keyer.LayoutKey(graphHash, opts.LayoutKeyOpts())

	// Try cache first (unless refresh requested). An entropy seed (Seed=0)
	// makes every run distinct, so those are never cached.
	cacheable := opts.Layout.Seed != 0
	if cacheable && !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached layout.RunOutput
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return &cached, true, false, nil
			}
			// If deserialization fails, fall through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	// Warm start from the stored snapshot, if available.
	var warm map[string]sim.Position
	if r.Store != nil && opts.ViewID != "" && !opts.ColdStart {
		if snap, ok, err := r.Store.Load(ctx, opts.ViewID); err != nil {
			opts.Logger.Warn("snapshot load failed, cold starting", "view", opts.ViewID, "err", err)
		} else if ok {
			warm = snap.Positions
		}
	}

	out, err := r.Scheduler.RunLayout(ctx, opts.ViewID, g, opts.Layout, warm)
	if err != nil {
		return nil, false, false, err
	}

	if cacheable {
		if data, err := json.Marshal(out); err == nil {
			if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout); err == nil {
				observability.Cache().OnCacheSet(ctx, "layout", len(data))
			}
		}
	}

	// Persist the snapshot for the next warm start.
	if r.Store != nil && opts.ViewID != "" {
		positions := layout.PositionMap(out.Positions)
		if err := r.Store.Save(ctx, opts.ViewID, positions); err != nil {
			opts.Logger.Warn("snapshot save failed", "view", opts.ViewID, "err", err)
		}
	}

	return out, false, warm != nil, nil
}

// ComputeLayout is a convenience wrapper that discards the cache hit info.
func (r *Runner) ComputeLayout(ctx context.Context, g graph.Graph, opts Options) (*layout.RunOutput, error) {
	out, _, _, err := r.ComputeLayoutWithCacheInfo(ctx, g, opts)
	return out, err
}

// Render generates the requested artifact formats from a computed layout.
func (r *Runner) Render(ctx context.Context, g graph.Graph, out *layout.RunOutput, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	var dot string
	needDOT := func() string {
		if dot == "" {
			dot = render.ToDOT(g, out.Positions, render.Options{
				Style:      opts.Style,
				ShowLabels: opts.ShowLabels,
			})
		}
		return dot
	}

	for _, format := range opts.Formats {
		switch format {
		case FormatJSON:
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "marshal layout")
			}
			artifacts[FormatJSON] = data
		case FormatDOT:
			artifacts[FormatDOT] = []byte(needDOT())
		case FormatSVG:
			svg, err := render.SVG(ctx, needDOT())
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "render svg")
			}
			artifacts[FormatSVG] = svg
		case FormatPNG:
			png, err := render.PNG(ctx, needDOT())
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "render png")
			}
			artifacts[FormatPNG] = png
		default:
			return nil, ValidateFormat(format)
		}
	}
	return artifacts, nil
}

// Close releases resources held by the runner (scheduler and cache).
func (r *Runner) Close() error {
	if r.Scheduler != nil {
		_ = r.Scheduler.Close()
	}
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
