package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/isomatch/internal/metrics"
	"github.com/matzehuels/isomatch/internal/server"
	"github.com/matzehuels/isomatch/pkg/cache"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the matching pipeline over HTTP. Reports are kept in the configured
store; results are cached in the configured cache under a server-only key
namespace.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = c.Config.Server.Addr
			}
			return c.runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string) error {
	logger := loggerFromContext(ctx)

	m := metrics.New()
	m.Register()

	runner, err := c.newRunner(ctx, false)
	if err != nil {
		return err
	}
	defer runner.Close()
	runner.Keyer = cache.NewScopedKeyer(runner.Keyer, "server:")

	st, err := c.newStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	cfg := c.Config
	printKeyValue("cache", cfg.Cache.Backend)
	printKeyValue("store", cfg.Store.Backend)
	printKeyValue("lookahead", cfg.Lookahead)
	printSuccess("Serving on %s", StyleHighlight.Render(addr))

	srv := server.New(server.Config{
		Runner:       runner,
		Store:        st,
		Logger:       logger,
		Metrics:      m.Handler(),
		Defaults:     cfg.PipelineOptions(),
		TargetPrefix: cfg.TargetPrefix,
		QueryPrefix:  cfg.QueryPrefix,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	})
	return srv.ListenAndServe(ctx, addr)
}
