package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/isomatch/internal/config"
	"github.com/matzehuels/isomatch/pkg/client"
	errs "github.com/matzehuels/isomatch/pkg/errors"
	pkgio "github.com/matzehuels/isomatch/pkg/io"
	"github.com/matzehuels/isomatch/pkg/report"
)

// reportsCommand creates the reports command.
func (c *CLI) reportsCommand() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List and show stored reports",
		Long: `Read reports saved with "match --save" from the configured store, or from a
running server with --server.`,
	}
	cmd.PersistentFlags().StringVar(&server, "server", "", "read from a remote isomatch server at this URL")

	cmd.AddCommand(c.reportsListCommand(&server))
	cmd.AddCommand(c.reportsShowCommand(&server))
	return cmd
}

// reportSource is the part of the store and the API client the reports
// commands need.
type reportSource interface {
	List(ctx context.Context, limit int) ([]report.Summary, error)
	Get(ctx context.Context, id string) (*report.Report, error)
	Close() error
}

// remoteSource adapts client.Client to reportSource.
type remoteSource struct{ *client.Client }

func (r remoteSource) List(ctx context.Context, limit int) ([]report.Summary, error) {
	return r.Reports(ctx, limit)
}

func (r remoteSource) Get(ctx context.Context, id string) (*report.Report, error) {
	return r.Report(ctx, id)
}

func (remoteSource) Close() error { return nil }

func (c *CLI) reportSource(ctx context.Context, server string) (reportSource, error) {
	if server != "" {
		return remoteSource{client.New(server)}, nil
	}
	if c.Config.Store.Backend == config.StoreMemory {
		printWarning("the memory store only lives as long as one process; use --server or [store] backend = \"mongo\"")
	}
	return c.newStore(ctx)
}

func (c *CLI) reportsListCommand(server *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := c.reportSource(cmd.Context(), *server)
			if err != nil {
				return err
			}
			defer src.Close()

			list, err := src.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				printInfo("No reports")
				return nil
			}
			fmt.Println(summaryTable(list, time.Now()))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of reports")
	return cmd
}

func (c *CLI) reportsShowCommand(server *string) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errs.ValidateReportID(args[0]); err != nil {
				return err
			}
			src, err := c.reportSource(cmd.Context(), *server)
			if err != nil {
				return err
			}
			defer src.Close()

			rep, err := src.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return pkgio.WriteReportJSON(os.Stdout, rep)
			}
			printKeyValue("id", rep.ID)
			printKeyValue("created", rep.CreatedAt.Local().Format(time.DateTime))
			printKeyValue("targets", rep.Targets)
			printKeyValue("lookahead", rep.Lookahead)
			printRunStats(rep.Stats)
			return pkgio.WriteReport(os.Stdout, rep)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

// summaryTable renders report summaries as a table.
func summaryTable(list []report.Summary, now time.Time) string {
	rows := make([][]string, len(list))
	for i, s := range list {
		rows[i] = []string{
			s.ID,
			formatAge(s.CreatedAt, now),
			s.Targets,
			fmt.Sprintf("%d/%d", s.Stats.Matched, s.Stats.Queries),
			fmt.Sprint(s.Stats.Matches),
		}
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Created", "Targets", "Matched", "Matches").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 { // header
				return headerStyle
			}
			if col == 0 {
				return StyleHighlight
			}
			return lipgloss.NewStyle()
		}).
		Render()
}
