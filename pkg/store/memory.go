package store

import (
	"cmp"
	"context"
	"encoding/json"
	"slices"
	"sync"

	"github.com/matzehuels/isomatch/pkg/report"
)

// MemoryStore keeps reports in process memory. Reports are stored as JSON
// so callers cannot mutate a saved report through a shared pointer.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string][]byte
	summary map[string]report.Summary
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reports: make(map[string][]byte),
		summary: make(map[string]report.Summary),
	}
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, r *report.Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[r.ID] = data
	s.summary[r.ID] = r.Summary()
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (*report.Report, error) {
	s.mu.RLock()
	data, ok := s.reports[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	var r report.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context, limit int) ([]report.Summary, error) {
	s.mu.RLock()
	out := make([]report.Summary, 0, len(s.summary))
	for _, sum := range s.summary {
		out = append(out, sum)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b report.Summary) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if n := listLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
