package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/isomatch/pkg/report"
)

func TestFormatRunStats(t *testing.T) {
	tests := []struct {
		name  string
		stats report.Stats
		want  []string
		not   []string
	}{
		{
			name:  "fresh",
			stats: report.Stats{Targets: 4, Queries: 5, Matched: 3, Matches: 7, Duration: 1234 * time.Millisecond},
			want:  []string{"3/5 queries matched", "7 matches", "4 targets", "fresh", "1.234s"},
			not:   []string{"skipped", "cached"},
		},
		{
			name:  "cached with skips",
			stats: report.Stats{Queries: 2, Matched: 1, Skipped: 2, CacheHits: 1},
			want:  []string{"1/2 queries matched", "2 skipped", "1 cached"},
			not:   []string{"fresh"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatRunStats(tt.stats)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("formatRunStats() = %q, missing %q", got, w)
				}
			}
			for _, n := range tt.not {
				if strings.Contains(got, n) {
					t.Errorf("formatRunStats() = %q, should not contain %q", got, n)
				}
			}
		})
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{50 * time.Hour, "2d ago"},
		{30 * 24 * time.Hour, "Feb 8, 2025"},
	}

	for _, tt := range tests {
		if got := formatAge(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("formatAge(-%v) = %q, want %q", tt.ago, got, tt.want)
		}
	}
}
