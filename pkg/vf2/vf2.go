package vf2

import (
	"context"
	"errors"

	"github.com/matzehuels/isomatch/pkg/graph"
)

// ErrBudgetExceeded is returned when an attempt enters more search-tree nodes
// than the matcher's visit budget allows.
var ErrBudgetExceeded = errors.New("vf2: visit budget exceeded")

// Matcher runs match attempts with a fixed configuration. The zero value is
// not usable; construct one with [New]. A Matcher holds no per-attempt data
// and is safe for concurrent use.
type Matcher struct {
	lookahead Lookahead
	maxVisits int
	iterative bool
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithLookahead selects the counting mode of the in/out and new rules.
func WithLookahead(l Lookahead) Option {
	return func(m *Matcher) { m.lookahead = l }
}

// WithMaxVisits caps the search-tree nodes entered per attempt. Zero or a
// negative value means unlimited.
func WithMaxVisits(n int) Option {
	return func(m *Matcher) {
		if n < 0 {
			n = 0
		}
		m.maxVisits = n
	}
}

// WithIterative switches to the explicit-stack search, which does not grow the
// goroutine stack with the query size. Results are identical.
func WithIterative(on bool) Option {
	return func(m *Matcher) { m.iterative = on }
}

// New returns a Matcher. Without options it uses symmetric lookahead, no
// visit budget, and recursive search.
func New(opts ...Option) *Matcher {
	m := &Matcher{lookahead: LookaheadSymmetric}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Lookahead returns the configured lookahead mode.
func (m *Matcher) Lookahead() Lookahead { return m.lookahead }

// MaxVisits returns the configured visit budget, 0 when unlimited.
func (m *Matcher) MaxVisits() int { return m.maxVisits }

// MatchPair searches for one embedding of query in target and returns the
// final state. A state with Matched false means no mapping; its arrays carry
// no meaning.
//
// The error is non-nil only when the attempt was cut short by ctx or the visit
// budget; the returned state then has Matched false.
func (m *Matcher) MatchPair(ctx context.Context, target, query *graph.Graph) (*State, error) {
	st := NewState(target, query)
	if query.NodeCount() > target.NodeCount() {
		return st, nil
	}
	err := m.run(ctx, st, nil)
	return st, err
}

// MatchSet checks query against every target in order and returns the matched
// states only. It stops at the first attempt that returns an error.
func (m *Matcher) MatchSet(ctx context.Context, targets []*graph.Graph, query *graph.Graph) ([]*State, error) {
	var matched []*State
	for _, target := range targets {
		st, err := m.MatchPair(ctx, target, query)
		if err != nil {
			return matched, err
		}
		if st.Matched() {
			matched = append(matched, st)
		}
	}
	return matched, nil
}

// Enumerate resumes the search after every success and returns each distinct
// embedding as a query→target slice, in discovery order. A positive limit
// stops after that many embeddings; zero or negative means all.
//
// Each embedding is reported once. On error the embeddings found so far are
// returned with it.
func (m *Matcher) Enumerate(ctx context.Context, target, query *graph.Graph, limit int) ([][]int, error) {
	var found [][]int
	_, err := m.EnumerateFunc(ctx, target, query, func(mapping []int) bool {
		found = append(found, mapping)
		return limit > 0 && len(found) >= limit
	})
	return found, err
}

// EnumerateFunc calls fn with every embedding of query in target until fn
// returns true or the search is exhausted. fn owns the slice it receives.
// The returned state carries the visit count; its Matched flag is unused.
func (m *Matcher) EnumerateFunc(ctx context.Context, target, query *graph.Graph, fn func(mapping []int) (stop bool)) (*State, error) {
	st := NewState(target, query)
	if query.NodeCount() > target.NodeCount() {
		return st, nil
	}
	err := m.run(ctx, st, func(s *State) bool {
		return fn(s.Mapping())
	})
	return st, err
}

func (m *Matcher) run(ctx context.Context, st *State, onMatch func(*State) bool) error {
	s := &search{
		ctx:       ctx,
		st:        st,
		mode:      m.lookahead,
		maxVisits: m.maxVisits,
		onMatch:   onMatch,
	}
	if m.iterative {
		return s.iterate()
	}
	_, err := s.recurse()
	return err
}

var defaultMatcher = New()

// MatchGraphPair runs a first-match attempt with the default matcher.
func MatchGraphPair(target, query *graph.Graph) *State {
	// No budget and a background context: the error is always nil.
	st, _ := defaultMatcher.MatchPair(context.Background(), target, query)
	return st
}

// MatchGraphSetWithQuery checks query against each target with the default
// matcher and returns the matched states in target order.
func MatchGraphSetWithQuery(targets []*graph.Graph, query *graph.Graph) []*State {
	matched, _ := defaultMatcher.MatchSet(context.Background(), targets, query)
	return matched
}
