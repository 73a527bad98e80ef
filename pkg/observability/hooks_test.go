package observability

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Match hooks
	m := NoopMatchHooks{}
	m.OnQueryStart(ctx, "Query 0", 10)
	m.OnAttempt(ctx, "Query 0", "Graph 3", true, 42, time.Millisecond, nil)
	m.OnAttempt(ctx, "Query 0", "Graph 4", false, 1000, time.Second, errors.New("budget"))
	m.OnQueryComplete(ctx, "Query 0", 1, time.Second, nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "match")
	c.OnCacheMiss(ctx, "match")
	c.OnCacheSet(ctx, "render", 1024)

	// Server hooks
	s := NoopServerHooks{}
	s.OnRequest(ctx, "POST", "/v1/match", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Match().(NoopMatchHooks); !ok {
		t.Error("Match() should return NoopMatchHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := Server().(NoopServerHooks); !ok {
		t.Error("Server() should return NoopServerHooks by default")
	}

	// Set custom hooks
	customMatch := &testMatchHooks{}
	SetMatchHooks(customMatch)
	if Match() != customMatch {
		t.Error("SetMatchHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customServer := &testServerHooks{}
	SetServerHooks(customServer)
	if Server() != customServer {
		t.Error("SetServerHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Match().(NoopMatchHooks); !ok {
		t.Error("Reset() should restore NoopMatchHooks")
	}
	if _, ok := Server().(NoopServerHooks); !ok {
		t.Error("Reset() should restore NoopServerHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testMatchHooks{}
	SetMatchHooks(custom)

	// Setting nil should be ignored
	SetMatchHooks(nil)
	SetCacheHooks(nil)
	SetServerHooks(nil)

	if Match() != custom {
		t.Error("SetMatchHooks(nil) should be ignored")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("SetCacheHooks(nil) should keep the default")
	}
}

func TestConcurrentAccess(t *testing.T) {
	Reset()
	defer Reset()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetMatchHooks(&testMatchHooks{})
		}()
		go func() {
			defer wg.Done()
			Match().OnQueryStart(context.Background(), "q", 1)
		}()
	}
	wg.Wait()
}

// Test implementations
type testMatchHooks struct{ NoopMatchHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testServerHooks struct{ NoopServerHooks }
