// Package report holds the result model of a matching run: for each query,
// the target graphs it was found in and the node mapping of each occurrence.
//
// Reports are produced by the pipeline, written by pkg/io, cached per query
// by pkg/cache and stored by pkg/store. All types are JSON- and
// BSON-serializable.
package report

import (
	"time"

	"github.com/google/uuid"
)

// Pair maps query node Query to target node Target.
type Pair struct {
	Target int `json:"target" bson:"target"`
	Query  int `json:"query" bson:"query"`
}

// Match is one occurrence of a query in a target graph. Pairs are ordered by
// increasing query id and cover every query node.
type Match struct {
	Target string `json:"target" bson:"target"`
	Pairs  []Pair `json:"pairs" bson:"pairs"`
}

// QueryResult is the outcome of one query against the whole target set.
// Matches follow target order; with enumeration enabled a target may appear
// more than once.
type QueryResult struct {
	Query    string        `json:"query" bson:"query"`
	Matches  []Match       `json:"matches" bson:"matches"`
	Searched int           `json:"searched" bson:"searched"`
	Skipped  []string      `json:"skipped,omitempty" bson:"skipped,omitempty"`
	Visits   int           `json:"visits" bson:"visits"`
	Duration time.Duration `json:"duration_ns" bson:"duration_ns"`
	Cached   bool          `json:"cached,omitempty" bson:"-"`
}

// Matched reports whether the query was found in at least one target.
func (r QueryResult) Matched() bool { return len(r.Matches) > 0 }

// MatchCount returns the number of occurrences recorded.
func (r QueryResult) MatchCount() int { return len(r.Matches) }

// TargetCount returns the number of distinct targets the query was found in.
func (r QueryResult) TargetCount() int {
	seen := make(map[string]struct{}, len(r.Matches))
	for _, m := range r.Matches {
		seen[m.Target] = struct{}{}
	}
	return len(seen)
}

// Stats summarises a report.
type Stats struct {
	Targets   int           `json:"targets" bson:"targets"`
	Queries   int           `json:"queries" bson:"queries"`
	Matched   int           `json:"matched" bson:"matched"`
	Matches   int           `json:"matches" bson:"matches"`
	Skipped   int           `json:"skipped" bson:"skipped"`
	CacheHits int           `json:"cache_hits" bson:"cache_hits"`
	Visits    int           `json:"visits" bson:"visits"`
	Duration  time.Duration `json:"duration_ns" bson:"duration_ns"`
}

// Report is the result of running a set of queries against a target set.
type Report struct {
	ID        string        `json:"id" bson:"_id"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
	Targets   string        `json:"targets" bson:"targets"`
	Lookahead string        `json:"lookahead" bson:"lookahead"`
	Queries   []QueryResult `json:"queries" bson:"queries"`
	Stats     Stats         `json:"stats" bson:"stats"`
}

// New returns an empty report with a fresh ID. targets names the target set,
// usually the path it was loaded from.
func New(targets string) *Report {
	return &Report{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Targets:   targets,
	}
}

// Add appends a query result and folds it into the stats.
func (r *Report) Add(qr QueryResult) {
	r.Queries = append(r.Queries, qr)
	r.Stats.Queries++
	if qr.Matched() {
		r.Stats.Matched++
	}
	r.Stats.Matches += qr.MatchCount()
	r.Stats.Skipped += len(qr.Skipped)
	r.Stats.Visits += qr.Visits
	if qr.Cached {
		r.Stats.CacheHits++
	}
}

// Query returns the result for the named query.
func (r *Report) Query(name string) (QueryResult, bool) {
	for _, qr := range r.Queries {
		if qr.Query == name {
			return qr, true
		}
	}
	return QueryResult{}, false
}

// Summary is the listing view of a stored report.
type Summary struct {
	ID        string    `json:"id" bson:"_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	Targets   string    `json:"targets" bson:"targets"`
	Stats     Stats     `json:"stats" bson:"stats"`
}

// Summary returns the listing view of r.
func (r *Report) Summary() Summary {
	return Summary{ID: r.ID, CreatedAt: r.CreatedAt, Targets: r.Targets, Stats: r.Stats}
}
