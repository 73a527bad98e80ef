package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/isomatch/pkg/graph"
)

// Formats accepted by [Render].
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatPDF = "pdf"
)

// Formats lists every supported output format.
var Formats = []string{FormatDOT, FormatSVG, FormatPNG, FormatPDF}

const defaultHighlight = "#f4a261"

// Options configures embedding rendering.
type Options struct {
	// Highlight is the fill colour of matched nodes. Defaults to an orange.
	Highlight string

	// HideLabels drops node and edge labels, leaving only node ids.
	HideLabels bool

	// Horizontal lays the graph out left to right.
	Horizontal bool
}

// ToDOT converts target to DOT, highlighting the embedding given by mapping.
// mapping[q] is the target node query node q maps to; a nil mapping draws
// the plain target. Query edges are drawn bold on their image in target.
func ToDOT(target, query *graph.Graph, mapping []int, opts Options) string {
	if opts.Highlight == "" {
		opts.Highlight = defaultHighlight
	}

	image := make(map[int]int, len(mapping))
	for q, t := range mapping {
		image[t] = q
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %q {\n", target.Name())
	if opts.Horizontal {
		buf.WriteString("  rankdir=LR;\n")
	} else {
		buf.WriteString("  rankdir=TB;\n")
	}
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=14];\n")
	buf.WriteString("  edge [fontsize=10, color=grey40];\n")
	buf.WriteString("\n")

	for id := range target.NodeCount() {
		attrs := []string{fmt.Sprintf("label=%q", nodeLabel(target, id, opts))}
		if q, ok := image[id]; ok {
			attrs = append(attrs,
				fmt.Sprintf("fillcolor=%q", opts.Highlight),
				"penwidth=2",
				fmt.Sprintf("xlabel=%q", fmt.Sprintf("q%d", q)))
		}
		fmt.Fprintf(&buf, "  n%d [%s];\n", id, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range target.Edges() {
		var attrs []string
		if !opts.HideLabels {
			attrs = append(attrs, fmt.Sprintf("label=%q", fmt.Sprint(e.Label)))
		}
		if matchedEdge(query, image, e.Source, e.Target) {
			attrs = append(attrs, "penwidth=3", "color=black")
		}
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  n%d -> n%d;\n", e.Source, e.Target)
			continue
		}
		fmt.Fprintf(&buf, "  n%d -> n%d [%s];\n", e.Source, e.Target, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeLabel(g *graph.Graph, id int, opts Options) string {
	if opts.HideLabels {
		return fmt.Sprint(id)
	}
	return fmt.Sprintf("%d\n%d", id, g.Label(id))
}

// matchedEdge reports whether the target edge src->dst is the image of a
// query edge.
func matchedEdge(query *graph.Graph, image map[int]int, src, dst int) bool {
	if query == nil {
		return false
	}
	qs, ok1 := image[src]
	qd, ok2 := image[dst]
	return ok1 && ok2 && query.EdgeLabel(qs, qd) != graph.NoEdge
}
