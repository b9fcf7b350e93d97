package query

import (
	"context"
	"sort"
	"sync"

	"callsync-server/internal/records"
)

// MemoryRepo is an in-memory query repository for tests and early
// development. Rows keep their insertion order, which is the tie-break
// order for equal timestamps.

type MemoryRepo struct {
	mu   sync.Mutex
	Rows []records.CallRecord
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) List(ctx context.Context, f Filter, limit, offset int) ([]records.CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]records.CallRecord, 0)
	for _, rec := range r.Rows {
		if f.Matches(rec) {
			matched = append(matched, rec)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	if offset >= len(matched) {
		return []records.CallRecord{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (r *MemoryRepo) Count(ctx context.Context, f Filter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, rec := range r.Rows {
		if f.Matches(rec) {
			n++
		}
	}
	return n, nil
}
