package pipeline

import (
	"context"
	"fmt"
	"io"
	"slices"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/isomatch/pkg/cache"
	errs "github.com/matzehuels/isomatch/pkg/errors"
	"github.com/matzehuels/isomatch/pkg/graph"
	"github.com/matzehuels/isomatch/pkg/report"
	"github.com/matzehuels/isomatch/pkg/vf2"
)

func mustGraph(tb testing.TB, name string, labels []int, edges [][3]int) *graph.Graph {
	tb.Helper()
	g := graph.New(name)
	for id, label := range labels {
		if err := g.AddNode(id, label); err != nil {
			tb.Fatal(err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(e[0], e[1], e[2]); err != nil {
			tb.Fatal(err)
		}
	}
	return g
}

// fixtures returns a 3-node path target, a query contained in it and a query
// whose label does not occur.
func fixtures(tb testing.TB) (targets, queries []*graph.Graph) {
	tb.Helper()
	targets = []*graph.Graph{
		mustGraph(tb, "Graph 0", []int{1, 2, 1}, [][3]int{{0, 1, 0}, {1, 2, 0}}),
	}
	queries = []*graph.Graph{
		mustGraph(tb, "Query 0", []int{1, 2}, [][3]int{{0, 1, 0}}),
		mustGraph(tb, "Query 1", []int{3}, nil),
	}
	return targets, queries
}

func testRunner(tb testing.TB, c cache.Cache) *Runner {
	tb.Helper()
	return NewRunner(c, nil, log.New(io.Discard))
}

func TestValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
		check   func(t *testing.T, o Options)
	}{
		{
			name: "defaults",
			check: func(t *testing.T, o Options) {
				if o.Lookahead != "symmetric" {
					t.Errorf("Lookahead = %q", o.Lookahead)
				}
				if o.Timeout != DefaultTimeout {
					t.Errorf("Timeout = %s", o.Timeout)
				}
				if o.Workers != min(DefaultWorkers, MaxWorkers) {
					t.Errorf("Workers = %d", o.Workers)
				}
				if o.Logger == nil {
					t.Error("Logger not set")
				}
			},
		},
		{
			name: "limit implies all",
			opts: Options{Limit: 2},
			check: func(t *testing.T, o Options) {
				if !o.All {
					t.Error("All = false")
				}
			},
		},
		{
			name: "legacy normalised",
			opts: Options{Lookahead: " Legacy "},
			check: func(t *testing.T, o Options) {
				if o.Lookahead != "legacy" {
					t.Errorf("Lookahead = %q", o.Lookahead)
				}
			},
		},
		{
			name: "workers capped",
			opts: Options{Workers: MaxWorkers + 10},
			check: func(t *testing.T, o Options) {
				if o.Workers != MaxWorkers {
					t.Errorf("Workers = %d", o.Workers)
				}
			},
		},
		{name: "unknown lookahead", opts: Options{Lookahead: "sideways"}, wantErr: true},
		{name: "negative visits", opts: Options{MaxVisits: -1}, wantErr: true},
		{name: "negative timeout", opts: Options{Timeout: -time.Second}, wantErr: true},
		{name: "negative limit", opts: Options{Limit: -1}, wantErr: true},
		{name: "negative workers", opts: Options{Workers: -1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errs.Is(err, errs.ErrCodeInvalidInput) {
					t.Errorf("code = %s, want INVALID_INPUT", errs.GetCode(err))
				}
				return
			}
			tt.check(t, tt.opts)
		})
	}
}

func TestValidateAfterOverride(t *testing.T) {
	defaults := Options{}
	if err := defaults.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}

	o := defaults
	o.Lookahead = "legacy"
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if got := o.Matcher().Lookahead(); got != vf2.LookaheadLegacy {
		t.Errorf("matcher lookahead = %s, want legacy", got)
	}

	o.Limit = -1
	if err := o.ValidateAndSetDefaults(); err == nil {
		t.Error("override with negative limit passed validation")
	}
}

func TestMatchKeyOptsIgnoresSpeedOptions(t *testing.T) {
	a := Options{Workers: 1}
	b := Options{Workers: 8, Iterative: true}
	if err := a.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if err := b.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if a.MatchKeyOpts() != b.MatchKeyOpts() {
		t.Errorf("%+v != %+v", a.MatchKeyOpts(), b.MatchKeyOpts())
	}
}

func TestRun(t *testing.T) {
	targets, queries := fixtures(t)
	r := testRunner(t, nil)

	var progress []int
	rep, err := r.Run(context.Background(), targets, queries, Options{
		Source:  "db.txt",
		OnQuery: func(done, total int, _ report.QueryResult) { progress = append(progress, done, total) },
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if rep.Targets != "db.txt" || rep.Lookahead != "symmetric" {
		t.Errorf("report header = %q %q", rep.Targets, rep.Lookahead)
	}
	if rep.Stats.Targets != 1 || rep.Stats.Queries != 2 || rep.Stats.Matched != 1 {
		t.Errorf("stats = %+v", rep.Stats)
	}
	if !slices.Equal(progress, []int{1, 2, 2, 2}) {
		t.Errorf("progress = %v", progress)
	}

	q0, ok := rep.Query("Query 0")
	if !ok {
		t.Fatal("Query 0 missing")
	}
	want := []report.Match{{Target: "Graph 0", Pairs: []report.Pair{{Target: 0, Query: 0}, {Target: 1, Query: 1}}}}
	if fmt.Sprint(q0.Matches) != fmt.Sprint(want) {
		t.Errorf("Query 0 matches = %v, want %v", q0.Matches, want)
	}
	if q0.Searched != 1 || q0.Visits == 0 {
		t.Errorf("Query 0 searched=%d visits=%d", q0.Searched, q0.Visits)
	}

	q1, _ := rep.Query("Query 1")
	if q1.Matched() {
		t.Errorf("Query 1 matched: %v", q1.Matches)
	}
}

func TestRunCachesResults(t *testing.T) {
	targets, queries := fixtures(t)
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := testRunner(t, c)
	defer r.Close()

	first, err := r.Run(context.Background(), targets, queries, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if first.Stats.CacheHits != 0 {
		t.Errorf("first run cache hits = %d", first.Stats.CacheHits)
	}

	second, err := r.Run(context.Background(), targets, queries, Options{Workers: 1})
	if err != nil {
		t.Fatal(err)
	}
	if second.Stats.CacheHits != 2 {
		t.Errorf("second run cache hits = %d, want 2", second.Stats.CacheHits)
	}
	if second.Stats.Matched != first.Stats.Matched || second.Stats.Matches != first.Stats.Matches {
		t.Errorf("cached stats %+v differ from %+v", second.Stats, first.Stats)
	}

	refreshed, err := r.Run(context.Background(), targets, queries, Options{Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.Stats.CacheHits != 0 {
		t.Errorf("refresh cache hits = %d", refreshed.Stats.CacheHits)
	}

	legacy, err := r.Run(context.Background(), targets, queries, Options{Lookahead: "legacy"})
	if err != nil {
		t.Fatal(err)
	}
	if legacy.Stats.CacheHits != 0 {
		t.Errorf("different lookahead shared %d cache entries", legacy.Stats.CacheHits)
	}
}

func TestRunBudgetSkipsTarget(t *testing.T) {
	targets, queries := fixtures(t)
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := testRunner(t, c)
	opts := Options{MaxVisits: 1}

	for run := range 2 {
		rep, err := r.Run(context.Background(), targets, queries[:1], opts)
		if err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
		qr := rep.Queries[0]
		if qr.Matched() {
			t.Errorf("run %d: matched under a 1-visit budget", run)
		}
		if !slices.Equal(qr.Skipped, []string{"Graph 0"}) {
			t.Errorf("run %d: skipped = %v", run, qr.Skipped)
		}
		if rep.Stats.CacheHits != 0 {
			t.Errorf("run %d: result with skips was cached", run)
		}
	}
}

func TestRunEnumerate(t *testing.T) {
	star := mustGraph(t, "star", []int{0, 1, 1, 1}, [][3]int{{1, 0, 0}, {2, 0, 0}, {3, 0, 0}})
	edge := mustGraph(t, "edge", []int{1, 0}, [][3]int{{0, 1, 0}})

	tests := []struct {
		name string
		opts Options
		want int
	}{
		{"first", Options{}, 1},
		{"all", Options{All: true}, 3},
		{"limit", Options{Limit: 2}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qr, err := testRunner(t, nil).MatchQuery(context.Background(), []*graph.Graph{star}, edge, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if qr.MatchCount() != tt.want {
				t.Errorf("matches = %d, want %d", qr.MatchCount(), tt.want)
			}
			if qr.TargetCount() != 1 {
				t.Errorf("targets = %d", qr.TargetCount())
			}
			for i, m := range qr.Matches {
				if m.Pairs[0].Target != i+1 || m.Pairs[1].Target != 0 {
					t.Errorf("match %d = %v", i, m.Pairs)
				}
			}
		})
	}
}

func TestRunKeepsTargetOrder(t *testing.T) {
	var targets []*graph.Graph
	for i := range 32 {
		labels := []int{1, 2}
		if i%3 == 0 {
			labels = []int{1, 1}
		}
		targets = append(targets, mustGraph(t, fmt.Sprintf("Graph %d", i), labels, [][3]int{{0, 1, 0}}))
	}
	query := mustGraph(t, "q", []int{1, 2}, [][3]int{{0, 1, 0}})

	qr, err := testRunner(t, nil).MatchQuery(context.Background(), targets, query, Options{Workers: 4})
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, m := range qr.Matches {
		got = append(got, m.Target)
	}
	var want []string
	for i := range 32 {
		if i%3 != 0 {
			want = append(want, fmt.Sprintf("Graph %d", i))
		}
	}
	if !slices.Equal(got, want) {
		t.Errorf("targets = %v\nwant %v", got, want)
	}
}

func TestRunCancelled(t *testing.T) {
	targets, queries := fixtures(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testRunner(t, nil).Run(ctx, targets, queries, Options{})
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestRunInvalidOptions(t *testing.T) {
	targets, queries := fixtures(t)
	_, err := testRunner(t, nil).Run(context.Background(), targets, queries, Options{Lookahead: "bogus"})
	if !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}
