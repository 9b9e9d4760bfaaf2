// Package render turns a graph plus computed positions into visual artifacts.
//
// # Overview
//
// The layout engine produces coordinates; this package produces pictures.
// Graphs are converted to Graphviz DOT with every node pinned at its
// computed position (neato's `pos="x,y!"` syntax), so Graphviz draws
// edges and labels without moving anything.
//
// # Usage
//
// Convert a graph to DOT, then render:
//
//	dot := render.ToDOT(g, positions, render.Options{Style: render.StyleLight})
//	svg, err := render.SVG(ctx, dot)
//	png, err := render.PNG(ctx, dot)
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process
// rendering, so no external Graphviz installation is required.
package render
