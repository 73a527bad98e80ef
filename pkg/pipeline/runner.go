package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/isomatch/pkg/cache"
	"github.com/matzehuels/isomatch/pkg/graph"
	pkgio "github.com/matzehuels/isomatch/pkg/io"
	"github.com/matzehuels/isomatch/pkg/observability"
	"github.com/matzehuels/isomatch/pkg/report"
	"github.com/matzehuels/isomatch/pkg/vf2"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store results. Multiple goroutines can safely use the same Runner with
// different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL is the lifetime of cached query results; cache.TTLMatch when zero.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    cache.TTLMatch,
	}
}

// Run matches every query against every target and collects the results in
// query order. It fails only on invalid options or when ctx is cancelled;
// attempts that hit their budget are reported as skipped.
func (r *Runner) Run(ctx context.Context, targets, queries []*graph.Graph, opts Options) (*report.Report, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	start := time.Now()
	rep := report.New(opts.Source)
	rep.Lookahead = opts.Lookahead
	rep.Stats.Targets = len(targets)

	digest := pkgio.Digest(targets...)
	for i, q := range queries {
		qr, err := r.matchQuery(ctx, targets, digest, q, &opts)
		if err != nil {
			return nil, err
		}
		rep.Add(qr)
		if opts.OnQuery != nil {
			opts.OnQuery(i+1, len(queries), qr)
		}
	}
	rep.Stats.Duration = time.Since(start)

	opts.Logger.Info("run complete",
		"queries", rep.Stats.Queries,
		"matched", rep.Stats.Matched,
		"skipped", rep.Stats.Skipped,
		"cache_hits", rep.Stats.CacheHits,
		"duration", rep.Stats.Duration)
	return rep, nil
}

// MatchQuery runs one query against the target set with caching.
func (r *Runner) MatchQuery(ctx context.Context, targets []*graph.Graph, query *graph.Graph, opts Options) (report.QueryResult, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return report.QueryResult{}, err
	}
	return r.matchQuery(ctx, targets, pkgio.Digest(targets...), query, &opts)
}

func (r *Runner) matchQuery(ctx context.Context, targets []*graph.Graph, digest string, query *graph.Graph, opts *Options) (report.QueryResult, error) {
	key := r.Keyer.MatchKey(digest, pkgio.Digest(query), opts.MatchKeyOpts())
	logger := opts.Logger.With("query", query.Name())

	if !opts.Refresh {
		if qr, ok := r.cached(ctx, key); ok {
			logger.Debug("cache hit", "matches", qr.MatchCount())
			return qr, nil
		}
	}

	hooks := observability.Match()
	hooks.OnQueryStart(ctx, query.Name(), len(targets))
	start := time.Now()

	results := make([]attempt, len(targets))
	m := opts.Matcher()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, target := range targets {
		g.Go(func() error {
			a, err := runAttempt(gctx, m, target, query, opts)
			if err != nil {
				return err
			}
			results[i] = a
			hooks.OnAttempt(gctx, query.Name(), target.Name(), len(a.matches) > 0, a.visits, a.duration, a.err)
			if a.err != nil {
				logger.Warn("attempt skipped", "target", target.Name(), "visits", a.visits, "err", a.err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		hooks.OnQueryComplete(ctx, query.Name(), 0, time.Since(start), err)
		return report.QueryResult{}, err
	}

	qr := report.QueryResult{
		Query:    query.Name(),
		Searched: len(targets),
	}
	for i, a := range results {
		qr.Matches = append(qr.Matches, a.matches...)
		qr.Visits += a.visits
		if a.err != nil {
			qr.Skipped = append(qr.Skipped, targets[i].Name())
		}
	}
	qr.Duration = time.Since(start)
	hooks.OnQueryComplete(ctx, query.Name(), qr.TargetCount(), qr.Duration, nil)

	logger.Info("matched query",
		"targets", qr.TargetCount(),
		"matches", qr.MatchCount(),
		"visits", qr.Visits,
		"duration", qr.Duration)

	// A result with skips depends on timing, so it is not reused.
	if len(qr.Skipped) == 0 {
		if data, err := json.Marshal(qr); err == nil {
			ttl := r.TTL
			if ttl == 0 {
				ttl = cache.TTLMatch
			}
			_ = r.Cache.Set(ctx, key, data, ttl)
			observability.Cache().OnCacheSet(ctx, "match", len(data))
		}
	}
	return qr, nil
}

func (r *Runner) cached(ctx context.Context, key string) (report.QueryResult, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "match")
		return report.QueryResult{}, false
	}
	var qr report.QueryResult
	if err := json.Unmarshal(data, &qr); err != nil {
		// Unreadable entries are recomputed and overwritten.
		observability.Cache().OnCacheMiss(ctx, "match")
		return report.QueryResult{}, false
	}
	observability.Cache().OnCacheHit(ctx, "match")
	qr.Cached = true
	return qr, true
}

// attempt is the outcome of matching one query against one target. err is
// set when the attempt was cut short and the target counts as skipped.
type attempt struct {
	matches  []report.Match
	visits   int
	duration time.Duration
	err      error
}

// runAttempt matches query against a single target under the per-attempt
// timeout. Budget and deadline errors are folded into the attempt; any other
// error, including cancellation of ctx itself, is returned.
func runAttempt(ctx context.Context, m *vf2.Matcher, target, query *graph.Graph, opts *Options) (attempt, error) {
	actx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	var (
		a     attempt
		st    *vf2.State
		err   error
		start = time.Now()
	)
	if opts.All {
		st, err = m.EnumerateFunc(actx, target, query, func(mapping []int) bool {
			a.matches = append(a.matches, toMatch(target.Name(), mapping))
			return opts.Limit > 0 && len(a.matches) >= opts.Limit
		})
	} else {
		st, err = m.MatchPair(actx, target, query)
		if err == nil && st.Matched() {
			a.matches = []report.Match{toMatch(target.Name(), st.Mapping())}
		}
	}
	a.visits = st.Visits()
	a.duration = time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return attempt{}, ctx.Err()
		}
		if !errors.Is(err, vf2.ErrBudgetExceeded) && !errors.Is(err, context.DeadlineExceeded) {
			return attempt{}, err
		}
		a.err = err
	}
	return a, nil
}

// toMatch converts a query->target mapping into a report match.
func toMatch(target string, mapping []int) report.Match {
	pairs := make([]report.Pair, len(mapping))
	for q, t := range mapping {
		pairs[q] = report.Pair{Target: t, Query: q}
	}
	return report.Match{Target: target, Pairs: pairs}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
