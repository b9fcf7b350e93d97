package stats

import (
	"context"
	"sync"

	"callsync-server/internal/records"
)

// MemoryRepo is an in-memory aggregation source for tests and early
// development.

type MemoryRepo struct {
	mu   sync.Mutex
	Rows []records.CallRecord
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) ListAll(ctx context.Context) ([]records.CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]records.CallRecord, len(r.Rows))
	copy(out, r.Rows)
	return out, nil
}
