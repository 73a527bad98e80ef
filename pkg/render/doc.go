// Package render draws an embedding of a query graph inside its target.
//
// [ToDOT] writes the target graph in Graphviz DOT with the matched nodes
// filled and the matched edges drawn bold. Each matched node carries the id
// of the query node mapped onto it.
//
//	dot := render.ToDOT(target, query, mapping, render.Options{})
//	svg, err := render.RenderSVG(ctx, dot)
//
// [ToPDF] and [ToPNG] convert SVG output with the external rsvg-convert tool
// (from librsvg).
package render
