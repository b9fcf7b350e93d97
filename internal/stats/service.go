package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"callsync-server/internal/records"

	"github.com/jonboulle/clockwork"
)

// Repository supplies the full record set for aggregation. Stats are always
// computed over everything, never over a client-paginated slice.

type Repository interface {
	ListAll(ctx context.Context) ([]records.CallRecord, error)
}

// Overview is the fixed summary served by GET /stats.
type Overview struct {
	TotalCalls      int              `json:"totalCalls"`
	TodayCalls      int              `json:"todayCalls"`
	ByType          map[string]int   `json:"byType"`
	TopEmployees    []EmployeeTotals `json:"topEmployees"`
	AvgCallDuration int              `json:"avgCallDuration"`
}

type EmployeeTotals struct {
	Name          string `json:"name"`
	Count         int    `json:"count"`
	TotalDuration int    `json:"totalDuration"`
}

// RosterEntry is one distinct (employee, device) pair with usage totals.
type RosterEntry struct {
	EmployeeName string    `json:"employeeName"`
	DeviceID     string    `json:"deviceId"`
	CallCount    int       `json:"callCount"`
	LastCall     time.Time `json:"lastCall"`
}

const topEmployeeLimit = 10

// Service computes summary statistics over the record set.
//
// Aggregation runs as explicit transforms (group, then sort, then limit)
// in-process over repo rows. All methods are read-only and tolerate an
// empty record set.
type Service struct {
	repo  Repository
	clock clockwork.Clock
	cache *Cache
}

// NewService wires the aggregation service. cache may be nil to disable the
// read-through cache.
func NewService(repo Repository, clock clockwork.Clock, cache *Cache) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{repo: repo, clock: clock, cache: cache}
}

// Overview aggregates counts, per-type breakdown, top employees and average
// duration over the full record set.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	if s.repo == nil {
		return Overview{}, errors.New("stats: repository not configured")
	}

	var cached Overview
	if s.cacheGet(ctx, cacheKeyOverview, &cached) {
		return cached, nil
	}

	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("stats: list failed: %w", err)
	}

	out := Overview{
		ByType:       map[string]int{},
		TopEmployees: []EmployeeTotals{},
	}

	// Today starts at local midnight of the service clock.
	now := s.clock.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	// Group pass. Employee group order follows first appearance so that
	// ties in the later sort stay stable within one aggregation.
	employeeOrder := make([]string, 0)
	employees := map[string]*EmployeeTotals{}
	connectedCount := 0
	connectedDuration := 0

	for _, rec := range rows {
		out.TotalCalls++
		out.ByType[string(rec.CallType)]++
		if !rec.Timestamp.Before(midnight) {
			out.TodayCalls++
		}

		e, ok := employees[rec.EmployeeName]
		if !ok {
			e = &EmployeeTotals{Name: rec.EmployeeName}
			employees[rec.EmployeeName] = e
			employeeOrder = append(employeeOrder, rec.EmployeeName)
		}
		e.Count++
		e.TotalDuration += rec.DurationSeconds

		// Missed calls carry no meaningful duration; the mean covers
		// connected calls only.
		if rec.CallType == records.CallTypeIncoming || rec.CallType == records.CallTypeOutgoing {
			connectedCount++
			connectedDuration += rec.DurationSeconds
		}
	}

	// Sort pass, then limit.
	top := make([]EmployeeTotals, 0, len(employeeOrder))
	for _, name := range employeeOrder {
		top = append(top, *employees[name])
	}
	sort.SliceStable(top, func(i, j int) bool { return top[i].Count > top[j].Count })
	if len(top) > topEmployeeLimit {
		top = top[:topEmployeeLimit]
	}
	out.TopEmployees = top

	if connectedCount > 0 {
		out.AvgCallDuration = int(math.Round(float64(connectedDuration) / float64(connectedCount)))
	}

	s.cacheSet(ctx, cacheKeyOverview, out)
	return out, nil
}

// Roster returns one entry per distinct (employeeName, deviceId) pair,
// most recent call first.
func (s *Service) Roster(ctx context.Context) ([]RosterEntry, error) {
	if s.repo == nil {
		return nil, errors.New("stats: repository not configured")
	}

	var cached []RosterEntry
	if s.cacheGet(ctx, cacheKeyRoster, &cached) {
		return cached, nil
	}

	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: list failed: %w", err)
	}

	type pairKey struct{ employee, device string }
	order := make([]pairKey, 0)
	pairs := map[pairKey]*RosterEntry{}

	for _, rec := range rows {
		k := pairKey{rec.EmployeeName, rec.DeviceID}
		e, ok := pairs[k]
		if !ok {
			e = &RosterEntry{EmployeeName: rec.EmployeeName, DeviceID: rec.DeviceID}
			pairs[k] = e
			order = append(order, k)
		}
		e.CallCount++
		if rec.Timestamp.After(e.LastCall) {
			e.LastCall = rec.Timestamp
		}
	}

	out := make([]RosterEntry, 0, len(order))
	for _, k := range order {
		out = append(out, *pairs[k])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].LastCall.After(out[j].LastCall) })

	s.cacheSet(ctx, cacheKeyRoster, out)
	return out, nil
}

func (s *Service) cacheGet(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	ok, err := s.cache.get(ctx, key, dest)
	if err != nil {
		slog.Debug("stats cache read failed", "key", key, "err", err)
		return false
	}
	return ok
}

func (s *Service) cacheSet(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.set(ctx, key, v); err != nil {
		slog.Debug("stats cache write failed", "key", key, "err", err)
	}
}
