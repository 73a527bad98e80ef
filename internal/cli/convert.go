package cli

import (
	"context"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/isomatch/pkg/errors"
	pkgio "github.com/matzehuels/isomatch/pkg/io"
)

// convertCommand creates the convert command.
func (c *CLI) convertCommand() *cobra.Command {
	var queries bool

	cmd := &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert a graph database between the text and JSON encodings",
		Long: `Convert reads a graph database and writes it back out. Files ending in .json
use the JSON encoding, anything else the text format.

Graph names are built from the configured target prefix, or the query prefix
with --queries, so names read from one file are kept in the other.`,
		Example: `  isomatch convert db.txt db.json
  isomatch convert queries.json queries.txt --queries`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == args[1] {
				return errs.New(errs.ErrCodeInvalidPath, "input and output are the same file")
			}
			prefix := c.Config.TargetPrefix
			if queries {
				prefix = c.Config.QueryPrefix
			}
			return c.runConvert(cmd.Context(), args[0], args[1], prefix)
		},
	}

	cmd.Flags().BoolVar(&queries, "queries", false, "name graphs with the query prefix")
	return cmd
}

func (c *CLI) runConvert(ctx context.Context, input, output, prefix string) error {
	prog := newProgress(loggerFromContext(ctx))
	graphs, err := pkgio.LoadGraphs(input, prefix)
	if err != nil {
		return err
	}
	if err := pkgio.ExportGraphs(output, graphs, prefix); err != nil {
		return err
	}
	prog.done("converted graph database", "graphs", len(graphs),
		"from", pkgio.EncodingFor(input), "to", pkgio.EncodingFor(output))

	printSuccess("Converted %d graphs", len(graphs))
	printFile(output)
	return nil
}
