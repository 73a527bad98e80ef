package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/isomatch/pkg/client"
	errs "github.com/matzehuels/isomatch/pkg/errors"
	pkgio "github.com/matzehuels/isomatch/pkg/io"
	"github.com/matzehuels/isomatch/pkg/pipeline"
	"github.com/matzehuels/isomatch/pkg/report"
)

// matchFlags holds the command-line flags for the match command.
type matchFlags struct {
	output    string
	json      bool
	workers   int
	maxVisits int
	timeout   time.Duration
	lookahead string
	iterative bool
	all       bool
	limit     int
	noCache   bool
	refresh   bool
	save      bool
	browse    bool
	server    string
}

// matchCommand creates the match command.
func (c *CLI) matchCommand() *cobra.Command {
	var flags matchFlags

	cmd := &cobra.Command{
		Use:   "match <targets> <queries>",
		Short: "Find query graphs in a target graph database",
		Long: `Match every query graph against every target graph and report, per query,
the targets it occurs in together with the node mapping of each occurrence.

Both files use the text graph database format ("t # id", "v id label",
"e src dst label", terminated by "t # -1") or JSON when they end in .json.`,
		Example: `  # Report to stdout
  isomatch match db.txt queries.txt

  # Every embedding, at most 10 per target, as JSON
  isomatch match db.txt queries.txt --limit 10 --json -o report.json

  # Run on a remote isomatch server
  isomatch match db.txt queries.txt --server http://localhost:8080`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.matchOptions(cmd, flags)
			if flags.server != "" {
				return c.runRemoteMatch(cmd.Context(), args[0], args[1], opts, flags)
			}
			return c.runMatch(cmd.Context(), args[0], args[1], opts, flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.output, "output", "o", "", "write the report to a file instead of stdout")
	f.BoolVar(&flags.json, "json", false, "write the report as JSON")
	f.IntVarP(&flags.workers, "workers", "w", 0, "concurrent match attempts per query")
	f.IntVar(&flags.maxVisits, "max-visits", 0, "search state budget per attempt (0 = unlimited)")
	f.DurationVar(&flags.timeout, "timeout", 0, "time limit per attempt")
	f.StringVar(&flags.lookahead, "lookahead", "", "look-ahead rules: symmetric, legacy")
	f.BoolVar(&flags.iterative, "iterative", false, "use the explicit-stack search")
	f.BoolVar(&flags.all, "all", false, "report every embedding, not just the first per target")
	f.IntVar(&flags.limit, "limit", 0, "maximum embeddings per target (implies --all)")
	f.BoolVar(&flags.noCache, "no-cache", false, "disable the result cache")
	f.BoolVar(&flags.refresh, "refresh", false, "recompute and overwrite cached results")
	f.BoolVar(&flags.save, "save", false, "save the report to the configured store")
	f.BoolVar(&flags.browse, "browse", false, "browse the results interactively")
	f.StringVar(&flags.server, "server", "", "run on a remote isomatch server at this URL")

	return cmd
}

// matchOptions starts from the configured options and applies the flags the
// user set explicitly.
func (c *CLI) matchOptions(cmd *cobra.Command, flags matchFlags) pipeline.Options {
	opts := c.Config.PipelineOptions()
	changed := cmd.Flags().Changed
	if changed("workers") {
		opts.Workers = flags.workers
	}
	if changed("max-visits") {
		opts.MaxVisits = flags.maxVisits
	}
	if changed("timeout") {
		opts.Timeout = flags.timeout
	}
	if changed("lookahead") {
		opts.Lookahead = flags.lookahead
	}
	opts.Iterative = flags.iterative
	opts.All = flags.all
	opts.Limit = flags.limit
	opts.Refresh = flags.refresh
	return opts
}

func (c *CLI) runMatch(ctx context.Context, targetsPath, queriesPath string, opts pipeline.Options, flags matchFlags) error {
	logger := loggerFromContext(ctx)

	targets, queries, err := c.loadDatabases(ctx, targetsPath, queriesPath)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Matching %d queries against %d targets...", len(queries), len(targets)))
	if !c.verbose {
		spinner.Start()
		defer spinner.Stop()
	}
	opts.Source = filepath.Base(targetsPath)
	opts.Logger = logger
	opts.OnQuery = func(done, total int, qr report.QueryResult) {
		spinner.SetMessage(fmt.Sprintf("Matched %d/%d queries (%s)", done, total, qr.Query))
	}

	rep, err := runner.Run(ctx, targets, queries, opts)
	if err != nil {
		if spinner.Cancelled() {
			spinner.Stop()
			printWarning("Cancelled")
		}
		return err
	}
	spinner.Stop()

	if flags.save {
		if err := c.saveReport(ctx, rep); err != nil {
			return err
		}
	}
	return c.finishMatch(rep, flags)
}

func (c *CLI) runRemoteMatch(ctx context.Context, targetsPath, queriesPath string, opts pipeline.Options, flags matchFlags) error {
	targets, err := os.ReadFile(targetsPath)
	if err != nil {
		return errs.Wrap(errs.ErrCodeFileNotFound, err, "read %s", targetsPath)
	}
	queries, err := os.ReadFile(queriesPath)
	if err != nil {
		return errs.Wrap(errs.ErrCodeFileNotFound, err, "read %s", queriesPath)
	}

	spinner := newSpinnerWithContext(ctx, "Waiting for "+flags.server+"...")
	if !c.verbose {
		spinner.Start()
	}
	rep, err := client.New(flags.server).Match(ctx, client.MatchRequest{
		Targets:       string(targets),
		Queries:       string(queries),
		Format:        pkgio.EncodingFor(targetsPath),
		QueriesFormat: pkgio.EncodingFor(queriesPath),
		Name:          filepath.Base(targetsPath),
		Options:       opts,
	})
	if err != nil {
		spinner.Stop()
		return err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Report %s stored on server", StyleHighlight.Render(rep.ID)))
	return c.finishMatch(rep, flags)
}

func (c *CLI) saveReport(ctx context.Context, rep *report.Report) error {
	st, err := c.newStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Save(ctx, rep); err != nil {
		return err
	}
	printSuccess("Saved report %s", StyleHighlight.Render(rep.ID))
	return nil
}

// finishMatch writes the report and prints the run summary.
func (c *CLI) finishMatch(rep *report.Report, flags matchFlags) error {
	out, err := createOutput(flags.output)
	if err != nil {
		return err
	}
	if flags.json {
		err = pkgio.WriteReportJSON(out, rep)
	} else {
		err = pkgio.WriteReport(out, rep)
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	printRunStats(rep.Stats)
	if flags.output != "" && flags.output != "-" {
		printFile(flags.output)
	}
	for _, qr := range rep.Queries {
		if len(qr.Skipped) > 0 {
			printWarning("%s: %d targets skipped (budget or timeout)", qr.Query, len(qr.Skipped))
		}
	}

	if flags.browse {
		_, err := tea.NewProgram(newResultsModel(rep), tea.WithAltScreen()).Run()
		return err
	}
	return nil
}
