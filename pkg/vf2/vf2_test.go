package vf2

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/matzehuels/isomatch/pkg/graph"
)

var allModes = []struct {
	name string
	opts []Option
}{
	{"Recursive", nil},
	{"Iterative", []Option{WithIterative(true)}},
	{"LegacyRecursive", []Option{WithLookahead(LookaheadLegacy)}},
	{"LegacyIterative", []Option{WithLookahead(LookaheadLegacy), WithIterative(true)}},
}

func TestMatchPairScenario(t *testing.T) {
	for _, mode := range allModes {
		t.Run(mode.name, func(t *testing.T) {
			target, query := scenarioGraphs(t, 5)
			st, err := New(mode.opts...).MatchPair(context.Background(), target, query)
			if err != nil {
				t.Fatalf("MatchPair: %v", err)
			}
			if !st.Matched() {
				t.Fatal("expected a match")
			}
			want := []Pair{{Target: 0, Query: 0}, {Target: 1, Query: 1}}
			if got := st.Pairs(); !slices.Equal(got, want) {
				t.Errorf("Pairs() = %v, want %v", got, want)
			}
			checkInvariants(t, st)
		})
	}
}

func TestMatchPairNegativeScenario(t *testing.T) {
	for _, mode := range allModes {
		t.Run(mode.name, func(t *testing.T) {
			target, query := scenarioGraphs(t, 6)
			st, err := New(mode.opts...).MatchPair(context.Background(), target, query)
			if err != nil {
				t.Fatalf("MatchPair: %v", err)
			}
			if st.Matched() {
				t.Fatalf("unexpected match %v", st.Pairs())
			}
			if st.Depth() != 0 {
				t.Errorf("failed search should unwind to depth 0, got %d", st.Depth())
			}
			checkInvariants(t, st)
		})
	}
}

func TestMatchPairSingleEdge(t *testing.T) {
	query := mustGraph(t, "edge", []int{1, 2}, [][3]int{{0, 1, 3}})

	tests := []struct {
		name    string
		target  *graph.Graph
		matched bool
	}{
		{
			name:    "PatternWithNoise",
			target:  mustGraph(t, "noisy", []int{5, 1, 2, 1}, [][3]int{{0, 1, 3}, {1, 2, 3}, {3, 0, 4}}),
			matched: true,
		},
		{
			name:    "WrongEdgeLabel",
			target:  mustGraph(t, "relabeled", []int{5, 1, 2, 1}, [][3]int{{0, 1, 3}, {1, 2, 4}, {3, 2, 7}}),
			matched: false,
		},
		{
			name:    "ReversedEdge",
			target:  mustGraph(t, "reversed", []int{1, 2}, [][3]int{{1, 0, 3}}),
			matched: false,
		},
		{
			name:    "ExtraBackEdge",
			target:  mustGraph(t, "both", []int{1, 2}, [][3]int{{0, 1, 3}, {1, 0, 3}}),
			matched: false,
		},
		{
			name:    "QueryLargerThanTarget",
			target:  mustGraph(t, "tiny", []int{1}, nil),
			matched: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, mode := range allModes {
				st, err := New(mode.opts...).MatchPair(context.Background(), tt.target, query)
				if err != nil {
					t.Fatalf("%s: %v", mode.name, err)
				}
				if st.Matched() != tt.matched {
					t.Errorf("%s: matched = %v, want %v", mode.name, st.Matched(), tt.matched)
				}
				if st.Matched() && !isEmbedding(tt.target, query, st.Mapping()) {
					t.Errorf("%s: mapping %v is not an embedding", mode.name, st.Mapping())
				}
			}
		})
	}
}

func TestMatchPairSelfLoops(t *testing.T) {
	loop := mustGraph(t, "loop", []int{1}, [][3]int{{0, 0, 2}})
	otherLoop := mustGraph(t, "other", []int{1}, [][3]int{{0, 0, 3}})
	plain := mustGraph(t, "plain", []int{1}, nil)
	// Target 0 carries an extra loop next to the edge the query asks for.
	loopedPath := mustGraph(t, "looped", []int{1, 2}, [][3]int{{0, 1, 5}, {0, 0, 9}})
	path := mustGraph(t, "path", []int{1, 2}, [][3]int{{0, 1, 5}})

	tests := []struct {
		name          string
		target, query *graph.Graph
		symmetric     bool
		legacy        bool
	}{
		// Legacy counts the query loop twice in the new rule.
		{"LoopInBoth", loop, loop, true, false},
		{"LoopOnlyInTarget", loop, plain, true, true},
		{"LoopOnlyInQuery", plain, loop, false, false},
		{"LoopLabelsDiffer", otherLoop, loop, false, false},
		{"ExtraLoopBesideEdge", loopedPath, path, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, mode := range []Lookahead{LookaheadSymmetric, LookaheadLegacy} {
				want := tt.symmetric
				if mode == LookaheadLegacy {
					want = tt.legacy
				}
				st, err := New(WithLookahead(mode)).MatchPair(context.Background(), tt.target, tt.query)
				if err != nil {
					t.Fatal(err)
				}
				if st.Matched() != want {
					t.Errorf("%s: matched = %v, want %v", mode, st.Matched(), want)
				}
				if mode == LookaheadSymmetric && st.Matched() && !isEmbedding(tt.target, tt.query, st.Mapping()) {
					t.Errorf("%s: mapping %v is not an embedding", mode, st.Mapping())
				}
			}
		})
	}

	want := []Pair{{Target: 0, Query: 0}, {Target: 1, Query: 1}}
	if got := MatchGraphPair(loopedPath, path).Pairs(); !slices.Equal(got, want) {
		t.Errorf("pairs = %v, want %v", got, want)
	}
}

func TestMatchPairEmptyQuery(t *testing.T) {
	target, _ := scenarioGraphs(t, 5)
	st := MatchGraphPair(target, graph.New("empty"))
	if !st.Matched() || len(st.Pairs()) != 0 {
		t.Errorf("empty query: matched=%v pairs=%v", st.Matched(), st.Pairs())
	}
}

func TestLegacyLookaheadMissesChain(t *testing.T) {
	chain := mustGraph(t, "chain", []int{1, 2, 3}, [][3]int{{1, 0, 0}, {2, 1, 0}})

	st, err := New().MatchPair(context.Background(), chain, chain)
	if err != nil || !st.Matched() {
		t.Fatalf("symmetric: matched=%v err=%v", st.Matched(), err)
	}
	if !slices.Equal(st.Mapping(), []int{0, 1, 2}) {
		t.Errorf("symmetric mapping = %v, want identity", st.Mapping())
	}

	st, err = New(WithLookahead(LookaheadLegacy)).MatchPair(context.Background(), chain, chain)
	if err != nil {
		t.Fatal(err)
	}
	if st.Matched() {
		t.Error("legacy lookahead should prune the only embedding of the chain")
	}
}

func TestMatchSet(t *testing.T) {
	hit, query := scenarioGraphs(t, 5)
	miss, _ := scenarioGraphs(t, 6)
	targets := []*graph.Graph{miss, hit, miss, hit}

	got := MatchGraphSetWithQuery(targets, query)
	if len(got) != 2 {
		t.Fatalf("matched %d targets, want 2", len(got))
	}
	for _, st := range got {
		if st.Target() != hit || st.Query() != query {
			t.Error("matched state refers to the wrong graphs")
		}
	}

	if got := MatchGraphSetWithQuery(nil, query); len(got) != 0 {
		t.Errorf("empty database matched %d", len(got))
	}
}

func TestEnumerate(t *testing.T) {
	// Three leaves pointing at one hub.
	star := mustGraph(t, "star", []int{2, 1, 1, 1}, [][3]int{{1, 0, 5}, {2, 0, 5}, {3, 0, 5}})
	query := mustGraph(t, "spoke", []int{1, 2}, [][3]int{{0, 1, 5}})

	tests := []struct {
		name  string
		limit int
		want  [][]int
	}{
		{"All", 0, [][]int{{1, 0}, {2, 0}, {3, 0}}},
		{"Limited", 2, [][]int{{1, 0}, {2, 0}}},
		{"LimitAboveCount", 10, [][]int{{1, 0}, {2, 0}, {3, 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, iterative := range []bool{false, true} {
				got, err := New(WithIterative(iterative)).Enumerate(context.Background(), star, query, tt.limit)
				if err != nil {
					t.Fatalf("Enumerate: %v", err)
				}
				if !slices.EqualFunc(got, tt.want, slices.Equal[[]int]) {
					t.Errorf("iterative=%v: got %v, want %v", iterative, got, tt.want)
				}
			}
		})
	}
}

func TestVisitBudget(t *testing.T) {
	target, query := scenarioGraphs(t, 5)

	for _, iterative := range []bool{false, true} {
		st, err := New(WithMaxVisits(1), WithIterative(iterative)).MatchPair(context.Background(), target, query)
		if !errors.Is(err, ErrBudgetExceeded) {
			t.Fatalf("iterative=%v: err = %v, want ErrBudgetExceeded", iterative, err)
		}
		if st.Matched() {
			t.Error("budget-limited attempt must not report a match")
		}
	}

	st, err := New(WithMaxVisits(3)).MatchPair(context.Background(), target, query)
	if err != nil || !st.Matched() {
		t.Fatalf("budget of 3 should suffice: matched=%v err=%v", st.Matched(), err)
	}
	if st.Visits() != 3 {
		t.Errorf("Visits = %d, want 3", st.Visits())
	}
}

func TestContextCancellation(t *testing.T) {
	target, query := scenarioGraphs(t, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st, err := New().MatchPair(ctx, target, query)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if st.Matched() {
		t.Error("cancelled attempt must not report a match")
	}

	if _, err := New().MatchSet(ctx, []*graph.Graph{target}, query); !errors.Is(err, context.Canceled) {
		t.Errorf("MatchSet err = %v, want context.Canceled", err)
	}
}

func TestParseLookahead(t *testing.T) {
	tests := []struct {
		in      string
		want    Lookahead
		wantErr bool
	}{
		{"", LookaheadSymmetric, false},
		{"symmetric", LookaheadSymmetric, false},
		{" Legacy ", LookaheadLegacy, false},
		{"fast", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLookahead(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLookahead(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLookahead(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if s := Lookahead(7).String(); s != "lookahead(7)" {
		t.Errorf("String() = %q", s)
	}
}

// randomGraph draws a graph with labels and edge labels in [0, 2) and no
// parallel edges. Each node gets a self-loop with probability loops.
func randomGraph(tb testing.TB, r *rand.Rand, name string, n int, density, loops float64) *graph.Graph {
	labels := make([]int, n)
	for i := range labels {
		labels[i] = r.IntN(2)
	}
	var edges [][3]int
	for a := 0; a < n; a++ {
		for b := 0; b < n; b++ {
			p := density
			if a == b {
				p = loops
			}
			if r.Float64() < p {
				edges = append(edges, [3]int{a, b, r.IntN(2)})
			}
		}
	}
	return mustGraph(tb, name, labels, edges)
}

// inducedSubgraph copies the nodes picked from g, renumbered in pick order.
func inducedSubgraph(tb testing.TB, g *graph.Graph, picked []int) *graph.Graph {
	labels := make([]int, len(picked))
	index := make(map[int]int, len(picked))
	for i, id := range picked {
		labels[i] = g.Label(id)
		index[id] = i
	}
	var edges [][3]int
	for _, e := range g.Edges() {
		a, okA := index[e.Source]
		b, okB := index[e.Target]
		if okA && okB {
			edges = append(edges, [3]int{a, b, e.Label})
		}
	}
	return mustGraph(tb, "sub", labels, edges)
}

func TestAgainstBruteForce(t *testing.T) {
	ctx := context.Background()
	for seed := uint64(1); seed <= 200; seed++ {
		r := rand.New(rand.NewPCG(seed, seed))
		nt := 2 + r.IntN(5)
		target := randomGraph(t, r, "target", nt, 0.35, 0.2)

		var query *graph.Graph
		if seed%2 == 0 {
			query = inducedSubgraph(t, target, r.Perm(nt)[:1+r.IntN(nt)])
		} else {
			query = randomGraph(t, r, "query", 1+r.IntN(4), 0.35, 0.1)
		}

		want := bruteForceCount(target, query)

		rec, err := New().MatchPair(ctx, target, query)
		if err != nil {
			t.Fatal(err)
		}
		if rec.Matched() != (want > 0) {
			t.Fatalf("seed %d: matched = %v, brute force found %d", seed, rec.Matched(), want)
		}
		if rec.Matched() && !isEmbedding(target, query, rec.Mapping()) {
			t.Fatalf("seed %d: mapping %v is not an embedding", seed, rec.Mapping())
		}

		it, err := New(WithIterative(true)).MatchPair(ctx, target, query)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(it.Mapping(), rec.Mapping()) || it.Visits() != rec.Visits() {
			t.Fatalf("seed %d: iterative (%v, %d visits) differs from recursive (%v, %d visits)",
				seed, it.Mapping(), it.Visits(), rec.Mapping(), rec.Visits())
		}

		all, err := New().Enumerate(ctx, target, query, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(all) != want {
			t.Fatalf("seed %d: enumerated %d embeddings, brute force found %d", seed, len(all), want)
		}
		for _, m := range all {
			if !isEmbedding(target, query, m) {
				t.Fatalf("seed %d: enumerated mapping %v is not an embedding", seed, m)
			}
		}

		legacy, err := New(WithLookahead(LookaheadLegacy)).MatchPair(ctx, target, query)
		if err != nil {
			t.Fatal(err)
		}
		// Legacy counting ignores query self-loops.
		if legacy.Matched() && !hasSelfLoop(query) && !isEmbedding(target, query, legacy.Mapping()) {
			t.Fatalf("seed %d: legacy mapping %v is not an embedding", seed, legacy.Mapping())
		}
	}
}

func BenchmarkMatchPair(b *testing.B) {
	r := rand.New(rand.NewPCG(7, 7))
	target := randomGraph(b, r, "target", 40, 0.1, 0)
	perm := r.Perm(40)[:8]
	query := inducedSubgraph(b, target, perm)
	m := New()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := m.MatchPair(ctx, target, query); err != nil {
			b.Fatal(err)
		}
	}
}

func TestEnumerateFuncStops(t *testing.T) {
	star := mustGraph(t, "star", []int{2, 1, 1, 1}, [][3]int{{1, 0, 5}, {2, 0, 5}, {3, 0, 5}})
	query := mustGraph(t, "spoke", []int{1, 2}, [][3]int{{0, 1, 5}})

	calls := 0
	st, err := New().EnumerateFunc(context.Background(), star, query, func(mapping []int) bool {
		calls++
		return true
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times after asking to stop", calls)
	}
	// Root, the hub pair, and the first leaf.
	if st.Visits() != 3 {
		t.Errorf("Visits = %d, want 3", st.Visits())
	}
}
