package io

import (
	"bytes"
	"testing"
	"time"

	"github.com/matzehuels/isomatch/pkg/report"
)

func sampleReport() *report.Report {
	r := report.New("graphs.txt")
	r.Add(report.QueryResult{
		Query: "Query 0",
		Matches: []report.Match{
			{Target: "Graph 0", Pairs: []report.Pair{{Target: 0, Query: 0}, {Target: 1, Query: 1}}},
			{Target: "Graph 3", Pairs: []report.Pair{{Target: 4, Query: 0}, {Target: 2, Query: 1}}},
		},
		Searched: 4,
		Duration: 3 * time.Millisecond,
	})
	r.Add(report.QueryResult{Query: "Query 1", Searched: 4})
	return r
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, sampleReport()); err != nil {
		t.Fatal(err)
	}

	want := "Maps for: Query 0\n" +
		"In: Graph 0\n" +
		"(0-0) (1-1) \n" +
		"In: Graph 3\n" +
		"(4-0) (2-1) \n" +
		"\n" +
		"Cannot find a map for: Query 1\n" +
		"\n"
	if got := buf.String(); got != want {
		t.Errorf("WriteReport() =\n%q\nwant\n%q", got, want)
	}
}

func TestFormatPairs(t *testing.T) {
	tests := []struct {
		pairs []report.Pair
		want  string
	}{
		{nil, ""},
		{[]report.Pair{{Target: 12, Query: 0}}, "(12-0) "},
		{[]report.Pair{{Target: 3, Query: 0}, {Target: 1, Query: 1}}, "(3-0) (1-1) "},
	}
	for _, tt := range tests {
		if got := FormatPairs(tt.pairs); got != tt.want {
			t.Errorf("FormatPairs(%v) = %q, want %q", tt.pairs, got, tt.want)
		}
	}
}

func TestReportJSONRoundTrip(t *testing.T) {
	r := sampleReport()

	var buf bytes.Buffer
	if err := WriteReportJSON(&buf, r); err != nil {
		t.Fatal(err)
	}
	got, err := ReadReportJSON(&buf)
	if err != nil {
		t.Fatal(err)
	}

	if got.ID != r.ID || len(got.Queries) != 2 || got.Stats != r.Stats {
		t.Fatalf("decoded report differs: %+v", got)
	}
	if got.Queries[0].Matches[1].Pairs[0] != (report.Pair{Target: 4, Query: 0}) {
		t.Errorf("pair mismatch: %+v", got.Queries[0].Matches[1].Pairs)
	}
}
