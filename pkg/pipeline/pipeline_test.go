package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/dhuston/livingmap/pkg/cache"
	"github.com/dhuston/livingmap/pkg/errors"
	"github.com/dhuston/livingmap/pkg/graph"
	"github.com/dhuston/livingmap/pkg/sim"
	"github.com/dhuston/livingmap/pkg/store"
)

func discardLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func testGraph() graph.Graph {
	return graph.Graph{
		Nodes: []graph.Node{
			{ID: "alice", Type: graph.TypeUser},
			{ID: "platform", Type: graph.TypeTeam},
			{ID: "roadmap", Type: graph.TypeProject},
		},
		Edges: []graph.Edge{
			{Source: "alice", Target: "platform"},
			{Source: "platform", Target: "roadmap"},
		},
	}
}

func testOptions() Options {
	opts := Options{Formats: []string{FormatJSON}, Layout: sim.DefaultSettings()}
	opts.Layout.Iterations = 30
	opts.Layout.Seed = 42
	return opts
}

func newTestRunner(t *testing.T, c cache.Cache, snapshots store.SnapshotStore) *Runner {
	t.Helper()
	r := NewRunner(c, nil, snapshots, nil, discardLogger())
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestExecuteProducesJSONArtifact(t *testing.T) {
	r := newTestRunner(t, nil, nil)

	result, err := r.Execute(context.Background(), testGraph(), testOptions())
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	if result.Stats.NodeCount != 3 || result.Stats.EdgeCount != 2 {
		t.Errorf("stats = %+v", result.Stats)
	}
	if result.GraphHash == "" {
		t.Error("GraphHash should be set")
	}
	if result.Layout == nil || len(result.Layout.Positions) != 3 {
		t.Fatalf("layout missing positions: %+v", result.Layout)
	}

	data, ok := result.Artifacts[FormatJSON]
	if !ok {
		t.Fatal("json artifact missing")
	}
	var decoded struct {
		Positions []struct {
			ID string `json:"id"`
		} `json:"positions"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json artifact invalid: %v", err)
	}
	if len(decoded.Positions) != 3 {
		t.Errorf("json artifact has %d positions, want 3", len(decoded.Positions))
	}
}

func TestExecuteDOTArtifact(t *testing.T) {
	r := newTestRunner(t, nil, nil)

	opts := testOptions()
	opts.Formats = []string{FormatDOT}
	result, err := r.Execute(context.Background(), testGraph(), opts)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	dot := string(result.Artifacts[FormatDOT])
	if !strings.Contains(dot, `"alice"`) || !strings.Contains(dot, "!\"") {
		t.Errorf("dot artifact should pin nodes:\n%s", dot)
	}
}

func TestLayoutCacheHit(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := newTestRunner(t, c, nil)
	ctx := context.Background()

	first, err := r.Execute(ctx, testGraph(), testOptions())
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if first.CacheInfo.LayoutHit {
		t.Error("first run should miss cache")
	}

	second, err := r.Execute(ctx, testGraph(), testOptions())
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.LayoutHit {
		t.Error("second run should hit cache")
	}
	if second.Layout.Seed != first.Layout.Seed {
		t.Error("cached layout should be identical")
	}

	// Refresh bypasses the cache
	opts := testOptions()
	opts.Refresh = true
	third, err := r.Execute(ctx, testGraph(), opts)
	if err != nil {
		t.Fatalf("refresh Execute: %v", err)
	}
	if third.CacheInfo.LayoutHit {
		t.Error("refresh should bypass cache")
	}
}

func TestEntropySeedNotCached(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := newTestRunner(t, c, nil)
	ctx := context.Background()

	opts := testOptions()
	opts.Layout.Seed = 0 // entropy seed

	if _, err := r.Execute(ctx, testGraph(), opts); err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	second, err := r.Execute(ctx, testGraph(), opts)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if second.CacheInfo.LayoutHit {
		t.Error("entropy-seeded runs must not be cached")
	}
}

func TestWarmStartFromSnapshot(t *testing.T) {
	snapshots := store.NewMemoryStore()
	r := newTestRunner(t, nil, snapshots)
	ctx := context.Background()

	opts := testOptions()
	opts.ViewID = "team-roadmap"

	first, err := r.Execute(ctx, testGraph(), opts)
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if first.CacheInfo.WarmStarted {
		t.Error("first run has no snapshot to warm from")
	}

	// Snapshot was saved; the next run warm-starts from it.
	if _, ok, _ := snapshots.Load(ctx, "team-roadmap"); !ok {
		t.Fatal("snapshot should be persisted after a run")
	}
	second, err := r.Execute(ctx, testGraph(), opts)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.WarmStarted {
		t.Error("second run should warm-start from snapshot")
	}

	// ColdStart ignores the snapshot.
	opts.ColdStart = true
	third, err := r.Execute(ctx, testGraph(), opts)
	if err != nil {
		t.Fatalf("cold Execute: %v", err)
	}
	if third.CacheInfo.WarmStarted {
		t.Error("cold start must ignore snapshot")
	}
}

func TestExecuteRejectsInvalidGraph(t *testing.T) {
	r := newTestRunner(t, nil, nil)

	g := graph.Graph{Nodes: []graph.Node{{ID: "a"}, {ID: "a"}}}
	_, err := r.Execute(context.Background(), g, testOptions())
	if errors.GetCode(err) != errors.ErrCodeInvalidGraph {
		t.Errorf("expected INVALID_GRAPH, got %v", err)
	}
}

func TestOptionsValidation(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Options)
		wantCode errors.Code
	}{
		{"invalid format", func(o *Options) { o.Formats = []string{"gif"} }, errors.ErrCodeInvalidFormat},
		{"invalid style", func(o *Options) { o.Style = "sepia" }, errors.ErrCodeInvalidFormat},
		{"invalid view id", func(o *Options) { o.ViewID = "../escape" }, errors.ErrCodeInvalidViewID},
		{"negative iterations", func(o *Options) { o.Layout.Iterations = -1 }, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			tt.mutate(&opts)
			err := opts.ValidateAndSetDefaults()
			if errors.GetCode(err) != tt.wantCode {
				t.Errorf("got %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestOptionsDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if opts.Layout.Iterations != 200 {
		t.Errorf("Iterations default = %d", opts.Layout.Iterations)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatJSON {
		t.Errorf("Formats default = %v", opts.Formats)
	}
	if opts.Style != DefaultStyle {
		t.Errorf("Style default = %q", opts.Style)
	}
}

func TestOptionsKeepExplicitZeros(t *testing.T) {
	// A caller asking for gravity 0 (or zero repulsion) means it: the
	// pipeline must not overwrite explicit zeros with engine defaults.
	opts := testOptions()
	opts.Layout.Gravity = 0
	opts.Layout.ScalingRatio = 0
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("zero gravity should validate: %v", err)
	}
	if opts.Layout.Gravity != 0 {
		t.Errorf("Gravity = %g, want 0 preserved", opts.Layout.Gravity)
	}
	if opts.Layout.ScalingRatio != 0 {
		t.Errorf("ScalingRatio = %g, want 0 preserved", opts.Layout.ScalingRatio)
	}
}
