package query

import (
	"fmt"
	"strconv"
	"strings"

	"callsync-server/internal/records"
)

const (
	DefaultPage  = 1
	DefaultLimit = 50
)

// RawQuery carries the query-string parameters exactly as received.
type RawQuery struct {
	DeviceID     string
	EmployeeName string
	CallType     string
	PhoneNumber  string
	From         string
	To           string
	Page         string
	Limit        string
}

// Request is a fully parsed list request.
type Request struct {
	Filter Filter
	Page   int
	Limit  int
}

// ParseRequest turns raw query parameters into a typed request.
//
// Every parameter has a total parse: absent means its default, malformed
// means ValidationError. Nothing silently falls back on bad input.
func ParseRequest(raw RawQuery) (Request, error) {
	req := Request{
		Filter: Filter{
			DeviceID:     strings.TrimSpace(raw.DeviceID),
			EmployeeName: strings.TrimSpace(raw.EmployeeName),
			PhoneNumber:  strings.TrimSpace(raw.PhoneNumber),
		},
	}

	if s := strings.TrimSpace(raw.CallType); s != "" {
		ct, ok := records.ParseCallType(s)
		if !ok {
			return Request{}, &records.ValidationError{Message: fmt.Sprintf("callType must be one of INCOMING, OUTGOING, MISSED, got %q", raw.CallType)}
		}
		req.Filter.CallType = ct
	}

	if s := strings.TrimSpace(raw.From); s != "" {
		t, err := records.ParseTimestamp(s)
		if err != nil {
			return Request{}, &records.ValidationError{Message: fmt.Sprintf("from: %v", err)}
		}
		req.Filter.From = &t
	}
	if s := strings.TrimSpace(raw.To); s != "" {
		t, err := records.ParseTimestamp(s)
		if err != nil {
			return Request{}, &records.ValidationError{Message: fmt.Sprintf("to: %v", err)}
		}
		req.Filter.To = &t
	}

	var err error
	if req.Page, err = parsePositiveInt("page", raw.Page, DefaultPage); err != nil {
		return Request{}, err
	}
	if req.Limit, err = parsePositiveInt("limit", raw.Limit, DefaultLimit); err != nil {
		return Request{}, err
	}
	return req, nil
}

func parsePositiveInt(name, raw string, def int) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, &records.ValidationError{Message: fmt.Sprintf("%s must be a positive integer, got %q", name, raw)}
	}
	return n, nil
}
