package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhuston/livingmap/pkg/graph"
	"github.com/dhuston/livingmap/pkg/layout"
	"github.com/dhuston/livingmap/pkg/pipeline"
	"github.com/dhuston/livingmap/pkg/sim"
)

// layoutCommand creates the layout command for computing node positions.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		watch   bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [graph.json]",
		Short: "Compute force-directed positions for a graph",
		Long: `Compute force-directed positions for a graph.

The layout command takes a graph.json file (nodes and edges as produced by
the KnowledgePlane API) and runs the force simulation until it converges or
the iteration budget is spent. The output is a layout.json file with one
position per node, which 'render' turns into an image.

Results are cached locally for faster subsequent runs; a seed of 0 picks a
random seed and disables caching.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], opts, output, noCache, watch)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&watch, "watch", false, "show live iteration progress")

	// Simulation flags
	addSettingsFlags(cmd, &opts)

	return cmd
}

// addSettingsFlags registers the simulation tuning flags shared by layout
// and render. Flags default to the engine defaults so cobra shows the real
// values in --help, and an explicit --gravity 0 means gravity 0.
func addSettingsFlags(cmd *cobra.Command, opts *pipeline.Options) {
	opts.Layout = sim.DefaultSettings()
	cmd.Flags().IntVar(&opts.Layout.Iterations, "iterations", opts.Layout.Iterations, "iteration budget")
	cmd.Flags().Float64Var(&opts.Layout.Gravity, "gravity", opts.Layout.Gravity, "centering force strength")
	cmd.Flags().Float64Var(&opts.Layout.ScalingRatio, "scaling", opts.Layout.ScalingRatio, "repulsion strength")
	cmd.Flags().Float64Var(&opts.Layout.SlowDown, "slowdown", opts.Layout.SlowDown, "damping factor")
	cmd.Flags().Float64Var(&opts.Layout.Theta, "theta", opts.Layout.Theta, "Barnes-Hut accuracy tradeoff")
	cmd.Flags().Float64Var(&opts.Layout.Epsilon, "epsilon", opts.Layout.Epsilon, "convergence threshold")
	cmd.Flags().Uint64Var(&opts.Layout.Seed, "seed", 42, "random seed (0 = random each run)")

	cmd.Flags().BoolVar(&opts.Layout.LinLogMode, "linlog", false, "logarithmic attraction (tighter clusters)")
	exact := cmd.Flags().Bool("exact", false, "exact pairwise repulsion instead of Barnes-Hut")
	overlap := cmd.Flags().Bool("allow-overlap", false, "disable overlap prevention")
	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		opts.Layout.BarnesHutOptimize = !*exact
		opts.Layout.PreventOverlap = !*overlap
	}
}

// runLayout loads the graph, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache, watch bool) error {
	g, err := graph.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	opts.Formats = []string{pipeline.FormatJSON}
	opts.Logger = c.Logger

	var (
		data      []byte
		cacheHit  bool
		converged bool
		iters     int
	)
	if watch {
		data, converged, iters, err = c.runWatchLayout(g, opts)
		if err != nil {
			return err
		}
		if data == nil {
			printWarning("Layout cancelled")
			return nil
		}
	} else {
		runner, rerr := c.newRunner(noCache)
		if rerr != nil {
			return fmt.Errorf("initialize runner: %w", rerr)
		}
		defer runner.Close()

		spinner := newSpinnerWithContext(ctx, "Computing layout...")
		spinner.Start()
		result, rerr := runner.Execute(ctx, g, opts)
		if rerr != nil {
			spinner.StopWithError("Layout failed")
			return rerr
		}
		spinner.Stop()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		data = result.Artifacts[pipeline.FormatJSON]
		cacheHit = result.CacheInfo.LayoutHit
		converged = result.Layout.Converged
		iters = result.Layout.Iterations
	}

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".layout.json"
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	if converged {
		printSuccess("Layout converged")
	} else {
		printSuccess("Layout complete (iteration budget spent)")
	}
	printFile(outputPath)
	printStats(len(g.Nodes), len(g.Edges), iters, cacheHit)
	printNewline()
	printNextStep("Render", "livingmap render "+input+" --layout "+outputPath)

	return nil
}

// runWatchLayout runs the engine directly with the live TUI, bypassing the
// cache (progress is only meaningful for a real run).
func (c *CLI) runWatchLayout(g graph.Graph, opts pipeline.Options) ([]byte, bool, int, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, 0, err
	}
	nodes, edges := layout.ToSim(g, nil, c.Logger)

	res, cancelled, err := runLayoutWithTUI(nodes, edges, opts.Layout)
	if err != nil {
		return nil, false, 0, err
	}
	if cancelled {
		return nil, false, 0, nil
	}

	positions := layout.FromResult(res, g, nil, c.Logger)
	out := layout.RunOutput{
		Positions:  positions,
		Iterations: res.Iterations,
		Converged:  res.Converged,
		Seed:       res.Seed,
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, false, 0, err
	}
	return data, res.Converged, res.Iterations, nil
}
