// Package cli implements the isomatch command-line interface.
//
// # Commands
//
//   - match: run query graphs against a target graph database
//   - render: draw one embedding of a query in a target graph
//   - convert: convert a graph database between text and JSON
//   - serve: run the HTTP API
//   - reports: list and show stored reports
//   - cache: manage the local result cache
//   - completion: generate shell completion scripts
//
// # Configuration
//
// Settings come from the TOML file found by config.Resolve (--config,
// $ISOMATCH_CONFIG, then the XDG config dir). Flags given on the command
// line override file values.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// passed through context.Context; status lines go to stderr so that reports
// written to stdout stay pipeable.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/isomatch/internal/config"
	"github.com/matzehuels/isomatch/pkg/buildinfo"
	"github.com/matzehuels/isomatch/pkg/cache"
	"github.com/matzehuels/isomatch/pkg/graph"
	pkgio "github.com/matzehuels/isomatch/pkg/io"
	"github.com/matzehuels/isomatch/pkg/pipeline"
	"github.com/matzehuels/isomatch/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "isomatch"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before any command runs.
	Config config.Config

	configPath string
	verbose    bool
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "isomatch finds labelled subgraphs in graph databases",
		Long: `isomatch searches a database of labelled directed graphs for occurrences
of query graphs using the VF2 subgraph isomorphism algorithm.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/isomatch/config.toml)")

	root.AddCommand(c.matchCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.reportsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup applies --verbose, loads the configuration and attaches the logger
// to the command context.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	if c.verbose {
		c.SetLogLevel(LogDebug)
	}

	cfg, path, err := config.Resolve(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	if path != "" {
		c.Logger.Debug("loaded config", "path", path)
	}

	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// =============================================================================
// Factories
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(cc, nil, c.Logger)
	r.TTL = c.Config.Cache.TTL.Duration
	return r, nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.Config.Cache
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.Prefix + ":",
		})
	case config.CacheFile:
		dir, err := c.cacheDir()
		if err != nil {
			c.Logger.Warn("no cache directory, caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	default:
		return cache.NewNullCache(), nil
	}
}

// newStore opens the configured report store.
func (c *CLI) newStore(ctx context.Context) (store.Store, error) {
	cfg := c.Config.Store
	if cfg.Backend == config.StoreMongo {
		return store.NewMongoStore(ctx, store.MongoOptions{URI: cfg.MongoURI, Database: cfg.Database})
	}
	return store.NewMemoryStore(), nil
}

// =============================================================================
// Paths and Inputs
// =============================================================================

// cacheDir returns the configured file cache directory, defaulting to the XDG
// cache dir (~/.cache/isomatch/).
func (c *CLI) cacheDir() (string, error) {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return cache.DefaultDir(appName)
}

// loadDatabases reads the target and query databases named on the command
// line. The codec is chosen by file extension.
func (c *CLI) loadDatabases(ctx context.Context, targetsPath, queriesPath string) (targets, queries []*graph.Graph, err error) {
	prog := newProgress(loggerFromContext(ctx))
	if targets, err = pkgio.LoadGraphs(targetsPath, c.Config.TargetPrefix); err != nil {
		return nil, nil, err
	}
	if queries, err = pkgio.LoadGraphs(queriesPath, c.Config.QueryPrefix); err != nil {
		return nil, nil, err
	}
	prog.done("loaded graph databases", "targets", len(targets), "queries", len(queries))
	return targets, queries, nil
}

// createOutput opens path for writing, or returns stdout when path is empty
// or "-".
func createOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
