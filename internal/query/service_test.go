package query

import (
	"context"
	"fmt"
	"testing"
	"time"

	"callsync-server/internal/records"
)

func seedRows(n int, base time.Time) []records.CallRecord {
	rows := make([]records.CallRecord, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, records.CallRecord{
			ID:          fmt.Sprintf("r%03d", i),
			PhoneNumber: fmt.Sprintf("+1555%04d", i),
			CallType:    records.CallTypeIncoming,
			DeviceID:    "dev-1",
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
		})
	}
	return rows
}

func TestList_PaginatesFullSet(t *testing.T) {
	base := time.Unix(1700000000, 0).UTC()
	repo := NewMemoryRepo()
	repo.Rows = seedRows(120, base)
	svc := NewService(repo)

	page, err := svc.List(context.Background(), Request{Page: 1, Limit: 50})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if page.Pagination.Total != 120 || page.Pagination.Pages != 3 {
		t.Fatalf("expected total 120 pages 3, got %+v", page.Pagination)
	}
	if len(page.Calls) != 50 {
		t.Fatalf("expected 50 rows, got %d", len(page.Calls))
	}
	// Newest first.
	if !page.Calls[0].Timestamp.After(page.Calls[49].Timestamp) {
		t.Fatalf("expected descending timestamps")
	}

	page, err = svc.List(context.Background(), Request{Page: 3, Limit: 50})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(page.Calls) != 20 {
		t.Fatalf("expected 20 rows on page 3, got %d", len(page.Calls))
	}
	if page.Pagination.Page != 3 {
		t.Fatalf("expected page echo 3, got %d", page.Pagination.Page)
	}
}

func TestList_BeyondLastPageIsEmptyNotNil(t *testing.T) {
	repo := NewMemoryRepo()
	repo.Rows = seedRows(3, time.Unix(1700000000, 0).UTC())
	svc := NewService(repo)

	page, err := svc.List(context.Background(), Request{Page: 9, Limit: 50})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if page.Calls == nil || len(page.Calls) != 0 {
		t.Fatalf("expected empty page, got %v", page.Calls)
	}
	if page.Pagination.Total != 3 || page.Pagination.Pages != 1 {
		t.Fatalf("unexpected pagination: %+v", page.Pagination)
	}
}

func TestList_StableTieOrder(t *testing.T) {
	ts := time.Unix(1700000000, 0).UTC()
	repo := NewMemoryRepo()
	repo.Rows = []records.CallRecord{
		{ID: "first", CallType: records.CallTypeMissed, Timestamp: ts},
		{ID: "second", CallType: records.CallTypeMissed, Timestamp: ts},
		{ID: "third", CallType: records.CallTypeMissed, Timestamp: ts},
	}
	svc := NewService(repo)

	page, err := svc.List(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if page.Calls[0].ID != "first" || page.Calls[2].ID != "third" {
		t.Fatalf("expected insertion order on equal timestamps, got %v", page.Calls)
	}
}

func TestFilter_Matches(t *testing.T) {
	ts := time.Unix(1700000000, 0).UTC()
	rec := records.CallRecord{
		PhoneNumber:  "+15551234567",
		CallType:     records.CallTypeOutgoing,
		DeviceID:     "dev-7",
		EmployeeName: "Alice",
		Timestamp:    ts,
	}

	cases := []struct {
		name string
		f    Filter
		want bool
	}{
		{"empty matches all", Filter{}, true},
		{"device exact", Filter{DeviceID: "dev-7"}, true},
		{"device mismatch", Filter{DeviceID: "dev-8"}, false},
		{"employee case-insensitive substring", Filter{EmployeeName: "ali"}, true},
		{"employee no match", Filter{EmployeeName: "bob"}, false},
		{"call type exact", Filter{CallType: records.CallTypeOutgoing}, true},
		{"call type mismatch", Filter{CallType: records.CallTypeMissed}, false},
		{"phone substring case-sensitive", Filter{PhoneNumber: "5551234"}, true},
		{"phone no match", Filter{PhoneNumber: "999"}, false},
		{"from inclusive", Filter{From: &ts}, true},
		{"to inclusive", Filter{To: &ts}, true},
	}
	for _, tc := range cases {
		if got := tc.f.Matches(rec); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}

	after := ts.Add(time.Second)
	if (Filter{From: &after}).Matches(rec) {
		t.Fatalf("expected from-bound to exclude older record")
	}
	before := ts.Add(-time.Second)
	if (Filter{To: &before}).Matches(rec) {
		t.Fatalf("expected to-bound to exclude newer record")
	}
}

func TestParseRequest_DefaultsAndRejection(t *testing.T) {
	req, err := ParseRequest(RawQuery{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if req.Page != DefaultPage || req.Limit != DefaultLimit {
		t.Fatalf("expected defaults, got %+v", req)
	}

	for _, raw := range []RawQuery{
		{Page: "abc"},
		{Page: "0"},
		{Page: "-3"},
		{Limit: "fifty"},
		{Limit: "0"},
		{CallType: "TELEGRAM"},
		{From: "not-a-time"},
		{To: "also-not"},
	} {
		if _, err := ParseRequest(raw); !records.IsValidation(err) {
			t.Fatalf("expected validation error for %+v, got %v", raw, err)
		}
	}
}

func TestParseRequest_TypedValues(t *testing.T) {
	req, err := ParseRequest(RawQuery{
		DeviceID: "dev-1",
		CallType: "missed",
		From:     "2024-03-01T00:00:00Z",
		To:       "2024-03-02T00:00:00Z",
		Page:     "2",
		Limit:    "10",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if req.Filter.CallType != records.CallTypeMissed {
		t.Fatalf("expected uppercased call type, got %q", req.Filter.CallType)
	}
	if req.Filter.From == nil || req.Filter.To == nil || !req.Filter.To.After(*req.Filter.From) {
		t.Fatalf("expected parsed bounds, got %+v", req.Filter)
	}
	if req.Page != 2 || req.Limit != 10 {
		t.Fatalf("expected page 2 limit 10, got %+v", req)
	}
}
