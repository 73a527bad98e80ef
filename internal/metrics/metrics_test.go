package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/isomatch/pkg/observability"
)

func TestMatchHooks(t *testing.T) {
	m := New()
	ctx := context.Background()

	m.OnQueryStart(ctx, "q", 3)
	if got := testutil.ToFloat64(m.inFlight); got != 1 {
		t.Errorf("in flight = %v", got)
	}
	m.OnAttempt(ctx, "q", "a", true, 10, time.Millisecond, nil)
	m.OnAttempt(ctx, "q", "b", false, 5, time.Millisecond, nil)
	m.OnAttempt(ctx, "q", "c", false, 100, time.Second, errors.New("budget"))
	m.OnQueryComplete(ctx, "q", 1, time.Second, nil)

	if got := testutil.ToFloat64(m.inFlight); got != 0 {
		t.Errorf("in flight after complete = %v", got)
	}
	for result, want := range map[string]float64{"matched": 1, "unmatched": 1, "error": 1} {
		if got := testutil.ToFloat64(m.attempts.WithLabelValues(result)); got != want {
			t.Errorf("attempts{%s} = %v, want %v", result, got, want)
		}
	}
	if got := testutil.ToFloat64(m.queries.WithLabelValues("matched")); got != 1 {
		t.Errorf("queries{matched} = %v", got)
	}
}

func TestCacheHooks(t *testing.T) {
	m := New()
	ctx := context.Background()
	m.OnCacheHit(ctx, "match")
	m.OnCacheMiss(ctx, "match")
	m.OnCacheMiss(ctx, "match")
	m.OnCacheSet(ctx, "render", 128)

	if got := testutil.ToFloat64(m.cacheOps.WithLabelValues("match", "miss")); got != 2 {
		t.Errorf("misses = %v", got)
	}
	if got := testutil.ToFloat64(m.cacheBytes); got != 128 {
		t.Errorf("bytes = %v", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.OnRequest(context.Background(), http.MethodGet, "/healthz", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	want := `isomatch_http_requests_total{method="GET",route="/healthz",status="200"} 1`
	if !strings.Contains(body, want) {
		t.Errorf("metrics output missing %q", want)
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Error("runtime collector not registered")
	}
}

func TestRegister(t *testing.T) {
	defer observability.Reset()
	m := New()
	m.Register()
	if observability.Match() != m || observability.Cache() != m || observability.Server() != m {
		t.Error("hooks not registered")
	}
}
