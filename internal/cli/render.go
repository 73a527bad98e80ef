package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/isomatch/pkg/cache"
	errs "github.com/matzehuels/isomatch/pkg/errors"
	"github.com/matzehuels/isomatch/pkg/graph"
	pkgio "github.com/matzehuels/isomatch/pkg/io"
	"github.com/matzehuels/isomatch/pkg/observability"
	"github.com/matzehuels/isomatch/pkg/render"
	"github.com/matzehuels/isomatch/pkg/vf2"
)

// renderFlags holds the command-line flags for the render command.
type renderFlags struct {
	target     string
	query      string
	index      int
	format     string
	output     string
	lookahead  string
	horizontal bool
	hideLabels bool
	noCache    bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	flags := renderFlags{format: render.FormatSVG}

	cmd := &cobra.Command{
		Use:   "render <targets> <queries>",
		Short: "Draw an embedding of a query graph in a target graph",
		Long: `Render draws the named target graph with the nodes and edges of one
embedding of the named query graph highlighted.

svg output uses the bundled Graphviz; png and pdf additionally need
rsvg-convert from librsvg.`,
		Example: `  isomatch render db.txt queries.txt --target "Graph 3" --query "Query 0" -o match.svg
  isomatch render db.txt queries.txt --target "Graph 3" --query "Query 0" --index 2 --format dot`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := errs.ValidateFormat(flags.format, render.Formats...)
			if err != nil {
				return err
			}
			flags.format = format
			if err := errs.ValidateGraphName(flags.target); err != nil {
				return fmt.Errorf("--target: %w", err)
			}
			if err := errs.ValidateGraphName(flags.query); err != nil {
				return fmt.Errorf("--query: %w", err)
			}
			if flags.index < 0 {
				return errs.New(errs.ErrCodeInvalidInput, "--index must not be negative")
			}
			return c.runRender(cmd.Context(), args[0], args[1], flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.target, "target", "", "name of the target graph (required)")
	f.StringVar(&flags.query, "query", "", "name of the query graph (required)")
	f.IntVar(&flags.index, "index", 0, "which embedding to draw, in discovery order")
	f.StringVarP(&flags.format, "format", "f", flags.format, "output format: "+strings.Join(render.Formats, ", "))
	f.StringVarP(&flags.output, "output", "o", "", "output file (default <target>_<query>.<format>)")
	f.StringVar(&flags.lookahead, "lookahead", "", "look-ahead rules: symmetric, legacy")
	f.BoolVar(&flags.horizontal, "horizontal", false, "lay the graph out left to right")
	f.BoolVar(&flags.hideLabels, "no-labels", false, "hide node and edge labels")
	f.BoolVar(&flags.noCache, "no-cache", false, "disable the render cache")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("query")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, targetsPath, queriesPath string, flags renderFlags) error {
	logger := loggerFromContext(ctx)

	targets, queries, err := c.loadDatabases(ctx, targetsPath, queriesPath)
	if err != nil {
		return err
	}
	target, err := findGraph(targets, flags.target)
	if err != nil {
		return err
	}
	query, err := findGraph(queries, flags.query)
	if err != nil {
		return err
	}

	opts := c.Config.PipelineOptions()
	if flags.lookahead != "" {
		opts.Lookahead = flags.lookahead
	}
	opts.Limit = flags.index + 1
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	cc, err := c.newCache(ctx, flags.noCache)
	if err != nil {
		return err
	}
	defer cc.Close()

	keyer := cache.NewDefaultKeyer()
	matchKey := keyer.MatchKey(pkgio.Digest(target), pkgio.Digest(query), opts.MatchKeyOpts())
	key := keyer.RenderKey(matchKey, cache.RenderKeyOpts{
		Target: target.Name(),
		Format: flags.format + renderVariant(flags),
		Index:  flags.index,
	})

	data, hit, _ := cc.Get(ctx, key)
	if hit {
		observability.Cache().OnCacheHit(ctx, "render")
		logger.Debug("render cache hit", "key", key)
	} else {
		observability.Cache().OnCacheMiss(ctx, "render")
		data, err = c.renderEmbedding(ctx, target, query, opts.Matcher(), flags)
		if err != nil {
			return err
		}
		if err := cc.Set(ctx, key, data, cache.TTLRender); err == nil {
			observability.Cache().OnCacheSet(ctx, "render", len(data))
		}
	}

	path := flags.output
	if path == "" {
		path = defaultRenderPath(target.Name(), query.Name(), flags.format)
	}
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	printSuccess("Rendered %s in %s", StyleHighlight.Render(query.Name()), StyleHighlight.Render(target.Name()))
	printFile(path)
	return nil
}

func (c *CLI) renderEmbedding(ctx context.Context, target, query *graph.Graph, m *vf2.Matcher, flags renderFlags) ([]byte, error) {
	prog := newProgress(loggerFromContext(ctx))
	embeddings, err := m.Enumerate(ctx, target, query, flags.index+1)
	if err != nil {
		return nil, err
	}
	if len(embeddings) <= flags.index {
		if len(embeddings) == 0 {
			return nil, errs.New(errs.ErrCodeNotFound, "%s does not occur in %s", query.Name(), target.Name())
		}
		return nil, errs.New(errs.ErrCodeNotFound, "%s occurs only %d times in %s", query.Name(), len(embeddings), target.Name())
	}
	prog.done("found embedding", "index", flags.index)

	dot := render.ToDOT(target, query, embeddings[flags.index], render.Options{
		HideLabels: flags.hideLabels,
		Horizontal: flags.horizontal,
	})
	return render.Render(ctx, dot, flags.format)
}

// renderVariant distinguishes cache entries of the same embedding drawn
// with different layout flags.
func renderVariant(flags renderFlags) string {
	var v string
	if flags.horizontal {
		v += "+lr"
	}
	if flags.hideLabels {
		v += "+nolabels"
	}
	return v
}

func findGraph(graphs []*graph.Graph, name string) (*graph.Graph, error) {
	for _, g := range graphs {
		if g.Name() == name {
			return g, nil
		}
	}
	return nil, errs.New(errs.ErrCodeNotFound, "no graph named %q", name)
}

// defaultRenderPath builds "<target>_<query>.<format>" with spaces replaced.
func defaultRenderPath(target, query, format string) string {
	clean := strings.NewReplacer(" ", "-", "/", "-", string(os.PathSeparator), "-")
	return clean.Replace(target) + "_" + clean.Replace(query) + "." + format
}
