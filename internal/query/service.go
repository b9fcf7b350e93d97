package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"callsync-server/internal/records"
)

// Filter is the set of ANDed predicates for listing call records.
// Zero values mean "no constraint".
type Filter struct {
	// DeviceID matches exactly.
	DeviceID string
	// EmployeeName matches as a case-insensitive substring.
	EmployeeName string
	// CallType matches exactly after input uppercasing.
	CallType records.CallType
	// PhoneNumber matches as a case-sensitive substring.
	PhoneNumber string
	// From/To bound the record timestamp inclusively.
	From *time.Time
	To   *time.Time
}

// Matches reports whether rec satisfies every set predicate. The Postgres
// repository compiles the same predicates to SQL; this is the reference
// semantics used by the memory repository and the tests.
func (f Filter) Matches(rec records.CallRecord) bool {
	if f.DeviceID != "" && rec.DeviceID != f.DeviceID {
		return false
	}
	if f.EmployeeName != "" && !strings.Contains(strings.ToLower(rec.EmployeeName), strings.ToLower(f.EmployeeName)) {
		return false
	}
	if f.CallType != "" && rec.CallType != f.CallType {
		return false
	}
	if f.PhoneNumber != "" && !strings.Contains(rec.PhoneNumber, f.PhoneNumber) {
		return false
	}
	if f.From != nil && rec.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && rec.Timestamp.After(*f.To) {
		return false
	}
	return true
}

// Repository abstracts filtered, paginated reads over the record store.
// Rows come back sorted by timestamp descending, ties in insertion order.

type Repository interface {
	List(ctx context.Context, f Filter, limit, offset int) ([]records.CallRecord, error)
	Count(ctx context.Context, f Filter) (int, error)
}

type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

type Page struct {
	Calls      []records.CallRecord `json:"calls"`
	Pagination Pagination           `json:"pagination"`
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

// List returns one page of matching records plus the full filtered count.
// Page and count are two separate reads; exact point-in-time consistency
// across concurrent writes is not guaranteed and not required.
func (s *Service) List(ctx context.Context, req Request) (Page, error) {
	if s.repo == nil {
		return Page{}, errors.New("query: repository not configured")
	}
	page := req.Page
	if page < 1 {
		page = DefaultPage
	}
	limit := req.Limit
	if limit < 1 {
		limit = DefaultLimit
	}

	rows, err := s.repo.List(ctx, req.Filter, limit, (page-1)*limit)
	if err != nil {
		return Page{}, fmt.Errorf("query: list failed: %w", err)
	}
	total, err := s.repo.Count(ctx, req.Filter)
	if err != nil {
		return Page{}, fmt.Errorf("query: count failed: %w", err)
	}

	if rows == nil {
		rows = []records.CallRecord{}
	}
	return Page{
		Calls: rows,
		Pagination: Pagination{
			Total: total,
			Page:  page,
			Limit: limit,
			Pages: (total + limit - 1) / limit,
		},
	}, nil
}
