// Package pipeline provides the core layout pipeline for the Living Map.
//
// This package implements the complete load → layout → render pipeline that
// can be used by CLI and API components. By centralizing this logic, we
// ensure consistent behavior across all entry points and avoid code
// duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Obtain the view's graph (file, HTTP source, or inline)
//  2. Layout: Compute positions with the force simulation (cached, warm-started)
//  3. Render: Generate output in various formats (JSON, DOT, SVG, PNG)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, store, scheduler, logger)
//	opts := pipeline.Options{
//	    ViewID:  "team-roadmap",
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, g, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/dhuston/livingmap/pkg/cache"
	"github.com/dhuston/livingmap/pkg/errors"
	"github.com/dhuston/livingmap/pkg/render"
	"github.com/dhuston/livingmap/pkg/sim"
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
}

// DefaultStyle is the default visual style.
const DefaultStyle = render.StyleLight

// Options contains all configuration for the layout pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// ViewID identifies the view for snapshot persistence and warm starts.
	// Empty disables both.
	ViewID string `json:"view_id,omitempty"`

	// Layout holds the simulation settings. A fully zero value means
	// "use engine defaults"; any non-zero value is validated as given, so
	// callers that want defaults plus overrides should start from
	// sim.DefaultSettings().
	Layout sim.Settings `json:"layout"`

	// Refresh bypasses the layout cache and recomputes.
	Refresh bool `json:"refresh,omitempty"`

	// ColdStart ignores any stored snapshot and places all nodes randomly.
	ColdStart bool `json:"cold_start,omitempty"`

	// Render options
	Formats    []string `json:"formats,omitempty"`
	Style      string   `json:"style,omitempty"`
	ShowLabels bool     `json:"show_labels,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks fields and applies defaults for the full
// pipeline. This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.ViewID != "" {
		if err := errors.ValidateViewID(o.ViewID); err != nil {
			return err
		}
	}

	// A fully zero settings block means "use engine defaults". Anything
	// else is taken at face value: an explicit gravity of 0 stays 0, it is
	// never refilled with the default behind the caller's back.
	if o.Layout == (sim.Settings{}) {
		o.Layout = sim.DefaultSettings()
	}
	if err := o.Layout.Validate(); err != nil {
		return err
	}

	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Style == "" {
		o.Style = DefaultStyle
	}
	if err := ValidateStyle(o.Style); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: json, dot, svg, png)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStyle checks that a style is valid.
func ValidateStyle(style string) error {
	if !render.ValidStyles[style] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid style: %q (must be one of: light, dark)", style)
	}
	return nil
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Iterations:                     o.Layout.Iterations,
		Gravity:                        o.Layout.Gravity,
		ScalingRatio:                   o.Layout.ScalingRatio,
		SlowDown:                       o.Layout.SlowDown,
		Theta:                          o.Layout.Theta,
		Epsilon:                        o.Layout.Epsilon,
		Seed:                           o.Layout.Seed,
		BarnesHutOptimize:              o.Layout.BarnesHutOptimize,
		PreventOverlap:                 o.Layout.PreventOverlap,
		LinLogMode:                     o.Layout.LinLogMode,
		OutboundAttractionDistribution: o.Layout.OutboundAttractionDistribution,
	}
}
