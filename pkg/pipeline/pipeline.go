// Package pipeline runs query graphs against a target graph database.
//
// This package implements the batch matching loop shared by the CLI and the
// HTTP API. By centralizing this logic, both entry points cache, log and
// report identically.
//
// # Architecture
//
// For each query, in order:
//
//  1. Cache: look up the query's result for this exact target set and options
//  2. Match: run one VF2 attempt per target graph on a bounded worker pool
//  3. Collect: order matches by target position and store the result
//
// Attempts are independent: each owns its search state and the graphs are
// read-only, so targets are matched concurrently without locking. An attempt
// that exceeds its visit budget or timeout is recorded as skipped and never
// fails the run.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Workers:   4,
//	    Timeout:   30 * time.Second,
//	    Lookahead: "symmetric",
//	}
//	rep, err := runner.Run(ctx, targets, queries, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	io.WriteReport(os.Stdout, rep)
package pipeline

import (
	"io"
	"runtime"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/isomatch/pkg/cache"
	errs "github.com/matzehuels/isomatch/pkg/errors"
	"github.com/matzehuels/isomatch/pkg/report"
	"github.com/matzehuels/isomatch/pkg/vf2"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultTimeout bounds a single (target, query) attempt.
	DefaultTimeout = 30 * time.Second

	// MaxWorkers caps the worker pool regardless of configuration.
	MaxWorkers = 256
)

// DefaultWorkers is the default size of the per-query worker pool.
var DefaultWorkers = runtime.NumCPU()

// DefaultLookahead is the default lookahead mode name.
var DefaultLookahead = vf2.LookaheadSymmetric.String()

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a matching run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Search options
	Lookahead string        `json:"lookahead,omitempty"`
	MaxVisits int           `json:"max_visits,omitempty"` // per attempt; 0 means unlimited
	Timeout   time.Duration `json:"timeout,omitempty"`    // per attempt; 0 means DefaultTimeout
	Iterative bool          `json:"iterative,omitempty"`

	// Enumeration: report every embedding instead of the first per target.
	All   bool `json:"all,omitempty"`
	Limit int  `json:"limit,omitempty"` // per target; implies All

	// Execution options
	Workers int  `json:"workers,omitempty"`
	Refresh bool `json:"refresh,omitempty"` // ignore cached results

	// Runtime options (not serialized)
	Source  string                                       `json:"-"` // target set name recorded in the report
	Logger  *log.Logger                                  `json:"-"`
	OnQuery func(done, total int, qr report.QueryResult) `json:"-"`

	lookahead vf2.Lookahead
}

// ValidateAndSetDefaults checks option values and applies defaults.
// It is idempotent and re-checks every field, so options copied from
// validated defaults and then modified are validated again.
func (o *Options) ValidateAndSetDefaults() error {
	l, err := vf2.ParseLookahead(o.Lookahead)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "lookahead")
	}
	o.lookahead = l
	o.Lookahead = l.String()

	if o.MaxVisits < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "max_visits must not be negative (got %d)", o.MaxVisits)
	}
	if o.Timeout < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "timeout must not be negative (got %s)", o.Timeout)
	}
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Limit < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "limit must not be negative (got %d)", o.Limit)
	}
	if o.Limit > 0 {
		o.All = true
	}

	if o.Workers < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "workers must not be negative (got %d)", o.Workers)
	}
	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}
	o.Workers = min(o.Workers, MaxWorkers)

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	return nil
}

// Matcher returns the VF2 matcher these options describe. Call it after
// ValidateAndSetDefaults.
func (o *Options) Matcher() *vf2.Matcher {
	return vf2.New(
		vf2.WithLookahead(o.lookahead),
		vf2.WithMaxVisits(o.MaxVisits),
		vf2.WithIterative(o.Iterative),
	)
}

// MatchKeyOpts returns cache key options for match results.
func (o *Options) MatchKeyOpts() cache.MatchKeyOpts {
	return cache.MatchKeyOpts{
		Lookahead: o.Lookahead,
		MaxVisits: o.MaxVisits,
		All:       o.All,
		Limit:     o.Limit,
	}
}
