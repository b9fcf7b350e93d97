package ingest

import (
	"context"
	"sync"
	"time"

	"callsync-server/internal/records"

	"github.com/google/uuid"
)

// MemoryRepo is an in-memory record store for tests and early development.
// It mirrors the Postgres constraints so batch rejection behaves the same.

type MemoryRepo struct {
	mu   sync.Mutex
	rows []records.CallRecord

	// FailAll simulates an unreachable store.
	FailAll error
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) InsertOne(ctx context.Context, rec records.CallRecord) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailAll != nil {
		return "", r.FailAll
	}
	if !rowSatisfiesConstraints(rec) {
		return "", errInvalidRow
	}
	return r.append(rec), nil
}

func (r *MemoryRepo) InsertMany(ctx context.Context, recs []records.CallRecord) (BatchResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailAll != nil {
		return BatchResult{}, r.FailAll
	}
	var res BatchResult
	for _, rec := range recs {
		if !rowSatisfiesConstraints(rec) {
			res.Rejected++
			continue
		}
		r.append(rec)
		res.Persisted++
	}
	return res, nil
}

// Records returns a copy of everything persisted so far, in insertion order.
func (r *MemoryRepo) Records() []records.CallRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]records.CallRecord, len(r.rows))
	copy(out, r.rows)
	return out
}

func (r *MemoryRepo) append(rec records.CallRecord) string {
	rec.ID = uuid.NewString()
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	r.rows = append(r.rows, rec)
	return rec.ID
}

var errInvalidRow = errRow("row violates call_records constraints")

type errRow string

func (e errRow) Error() string { return string(e) }

// rowSatisfiesConstraints mirrors the CHECK and NOT NULL constraints on the
// call_records table.
func rowSatisfiesConstraints(rec records.CallRecord) bool {
	if rec.PhoneNumber == "" || rec.DeviceID == "" {
		return false
	}
	if _, ok := records.ParseCallType(string(rec.CallType)); !ok {
		return false
	}
	return rec.DurationSeconds >= 0
}
