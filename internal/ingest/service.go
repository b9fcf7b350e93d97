package ingest

import (
	"context"
	"errors"
	"fmt"

	"callsync-server/internal/records"

	"github.com/jonboulle/clockwork"
)

// Repository is the persistence contract for call records.
//
// It MUST be append-only. No Update/Delete methods are provided by design:
// devices re-send on failure and duplicates simply become duplicate rows.

type Repository interface {
	// InsertOne persists a single record and returns the store-assigned id.
	InsertOne(ctx context.Context, rec records.CallRecord) (string, error)

	// InsertMany persists a batch without ordering guarantees. A row that
	// violates a store constraint is dropped and counted; only a
	// transport-level failure returns an error.
	InsertMany(ctx context.Context, recs []records.CallRecord) (BatchResult, error)
}

// BatchResult reports what a batch insert actually did. Rejected rows are
// counted but carry no per-row detail; offline-sync callers only re-send on
// total failure.
type BatchResult struct {
	Persisted int `json:"persisted"`
	Rejected  int `json:"rejected"`
}

// Service validates and persists records synced from field devices.
type Service struct {
	repo  Repository
	clock clockwork.Clock
}

func NewService(repo Repository, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{repo: repo, clock: clock}
}

// SubmitOne validates one record strictly and persists it.
func (s *Service) SubmitOne(ctx context.Context, in records.Input) (string, error) {
	if s.repo == nil {
		return "", errors.New("ingest: repository not configured")
	}
	rec, err := records.New(in, s.clock.Now().UTC())
	if err != nil {
		return "", err
	}
	id, err := s.repo.InsertOne(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("ingest: insert failed: %w", err)
	}
	return id, nil
}

// SubmitBatch persists an offline-sync batch. Elements are defaulted and
// normalized individually; required-field validation is deliberately skipped
// on this path and left to the store constraints per row.
func (s *Service) SubmitBatch(ctx context.Context, ins []records.Input) (BatchResult, error) {
	if s.repo == nil {
		return BatchResult{}, errors.New("ingest: repository not configured")
	}
	if len(ins) == 0 {
		return BatchResult{}, &records.ValidationError{Message: "calls must be a non-empty array"}
	}

	now := s.clock.Now().UTC()
	rows := make([]records.CallRecord, 0, len(ins))
	for _, in := range ins {
		rows = append(rows, records.FromSync(in, now))
	}

	res, err := s.repo.InsertMany(ctx, rows)
	if err != nil {
		return res, fmt.Errorf("ingest: batch insert failed: %w", err)
	}
	return res, nil
}
