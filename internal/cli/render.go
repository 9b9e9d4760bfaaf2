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
	"github.com/dhuston/livingmap/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output     string // output file path (or base path for multiple formats)
	layoutFile string // precomputed layout.json (skips the simulation)
	formats    string // comma-separated output formats
	noCache    bool
}

// renderCommand creates the render command for generating map images.
func (c *CLI) renderCommand() *cobra.Command {
	var ro renderOpts
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [graph.json]",
		Short: "Render a graph as a map image",
		Long: `Render a graph as a map image.

The render command computes a layout (or reuses one produced by 'layout' via
--layout) and draws the result with Graphviz: nodes pinned at their computed
positions, edges drawn between them. Output formats: dot, svg, png, json.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], opts, ro)
		},
	}

	cmd.Flags().StringVarP(&ro.output, "output", "o", "", "output file base (default: input basename)")
	cmd.Flags().StringVar(&ro.layoutFile, "layout", "", "precomputed layout.json to reuse")
	cmd.Flags().StringVarP(&ro.formats, "formats", "f", "svg", "comma-separated formats: dot, svg, png, json")
	cmd.Flags().BoolVar(&ro.noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&opts.Style, "style", render.StyleLight, "visual style: light (default), dark")
	cmd.Flags().BoolVar(&opts.ShowLabels, "labels", false, "draw node labels")
	addSettingsFlags(cmd, &opts)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, ro renderOpts) error {
	g, err := graph.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	opts.Formats = parseFormats(ro.formats)
	opts.Logger = c.Logger

	runner, err := c.newRunner(ro.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	var artifacts map[string][]byte
	var cached bool
	if ro.layoutFile != "" {
		out, rerr := readLayoutFile(ro.layoutFile)
		if rerr != nil {
			return rerr
		}
		artifacts, err = runner.Render(ctx, g, out, opts)
		if err != nil {
			return err
		}
		cached = true
	} else {
		spinner := newSpinnerWithContext(ctx, "Rendering map...")
		spinner.Start()
		result, rerr := runner.Execute(ctx, g, opts)
		if rerr != nil {
			spinner.StopWithError("Render failed")
			return rerr
		}
		spinner.Stop()
		artifacts = result.Artifacts
		cached = result.CacheInfo.LayoutHit
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	base := ro.output
	if base == "" {
		base = strings.TrimSuffix(input, filepath.Ext(input))
	}

	printSuccess("Render complete")
	for _, format := range opts.Formats {
		path := base + "." + format
		if err := os.WriteFile(path, artifacts[format], 0644); err != nil {
			return fmt.Errorf("write output %s: %w", path, err)
		}
		printFile(path)
	}
	printStats(len(g.Nodes), len(g.Edges), 0, cached)

	return nil
}

// readLayoutFile loads a layout.json produced by the layout command.
func readLayoutFile(path string) (*layout.RunOutput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load layout %s: %w", path, err)
	}
	var out layout.RunOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse layout %s: %w", path, err)
	}
	return &out, nil
}
