package records

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CallRecord is a phone-call event synced from a field device.
//
// Invariants:
// - Records are append-only. No update or delete path exists anywhere.
// - CallType always holds one of the three enum values once stored.
// - DurationSeconds is never negative.
// - SyncedAt is stamped once at ingest and never touched again.
//
// Storage (Postgres):
// - Table call_records, INSERT-only.
// - CHECK constraints mirror the CallType and duration invariants so the
//   lenient batch path still cannot persist an invalid row.

type CallRecord struct {
	ID          string `json:"id" db:"id"`
	PhoneNumber string `json:"phoneNumber" db:"phone_number"`

	CallType CallType `json:"callType" db:"call_type"`

	// DurationSeconds is the call duration in seconds. Zero for missed calls.
	DurationSeconds int `json:"duration" db:"duration"`

	Timestamp    time.Time `json:"timestamp" db:"timestamp"`
	DeviceID     string    `json:"deviceId" db:"device_id"`
	EmployeeName string    `json:"employeeName" db:"employee_name"`

	SyncedAt  time.Time `json:"syncedAt" db:"synced_at"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

type CallType string

const (
	CallTypeIncoming CallType = "INCOMING"
	CallTypeOutgoing CallType = "OUTGOING"
	CallTypeMissed   CallType = "MISSED"
)

// ParseCallType matches raw input against the enum, case-insensitively.
func ParseCallType(raw string) (CallType, bool) {
	switch CallType(strings.ToUpper(strings.TrimSpace(raw))) {
	case CallTypeIncoming:
		return CallTypeIncoming, true
	case CallTypeOutgoing:
		return CallTypeOutgoing, true
	case CallTypeMissed:
		return CallTypeMissed, true
	default:
		return "", false
	}
}

// DefaultEmployeeName is stored when a device reports no employee.
const DefaultEmployeeName = "Unknown"

// Input is the raw wire shape of one record as devices send it.
// Duration is a pointer so an absent value can default without
// swallowing an explicit zero.
type Input struct {
	PhoneNumber  string `json:"phoneNumber"`
	CallType     string `json:"callType"`
	Duration     *int   `json:"duration"`
	Timestamp    string `json:"timestamp"`
	DeviceID     string `json:"deviceId"`
	EmployeeName string `json:"employeeName"`
}

// ValidationError is a caller-fixable input defect. Handlers map it to 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// New builds a validated record from raw input (single-submit path).
//
// Required-field failures are aggregated into one message naming all three
// mandatory fields, matching the device sync protocol.
func New(in Input, now time.Time) (CallRecord, error) {
	phone := strings.TrimSpace(in.PhoneNumber)
	device := strings.TrimSpace(in.DeviceID)
	if phone == "" || strings.TrimSpace(in.CallType) == "" || device == "" {
		return CallRecord{}, &ValidationError{Message: "phoneNumber, callType and deviceId are required"}
	}

	ct, ok := ParseCallType(in.CallType)
	if !ok {
		return CallRecord{}, &ValidationError{Message: fmt.Sprintf("callType must be one of INCOMING, OUTGOING, MISSED, got %q", in.CallType)}
	}

	duration := 0
	if in.Duration != nil {
		if *in.Duration < 0 {
			return CallRecord{}, &ValidationError{Message: "duration must be >= 0"}
		}
		duration = *in.Duration
	}

	ts := now
	if strings.TrimSpace(in.Timestamp) != "" {
		parsed, err := ParseTimestamp(in.Timestamp)
		if err != nil {
			return CallRecord{}, err
		}
		ts = parsed
	}

	return CallRecord{
		PhoneNumber:     phone,
		CallType:        ct,
		DurationSeconds: duration,
		Timestamp:       ts,
		DeviceID:        device,
		EmployeeName:    employeeOrDefault(in.EmployeeName),
		SyncedAt:        now,
	}, nil
}

// FromSync builds a record from one element of an offline-sync batch.
//
// The batch path trusts the device: it applies defaults and normalization but
// skips required-field validation. Rows that still violate an invariant are
// rejected per-row by the store's constraints, not here. Known asymmetry with
// New, kept on purpose for sync replay tolerance.
func FromSync(in Input, now time.Time) CallRecord {
	duration := 0
	if in.Duration != nil {
		// Negative values pass through; the store constraint rejects the row.
		duration = *in.Duration
	}

	ts := now
	if strings.TrimSpace(in.Timestamp) != "" {
		if parsed, err := ParseTimestamp(in.Timestamp); err == nil {
			ts = parsed
		}
	}

	return CallRecord{
		PhoneNumber:     strings.TrimSpace(in.PhoneNumber),
		CallType:        CallType(strings.ToUpper(strings.TrimSpace(in.CallType))),
		DurationSeconds: duration,
		Timestamp:       ts,
		DeviceID:        strings.TrimSpace(in.DeviceID),
		EmployeeName:    employeeOrDefault(in.EmployeeName),
		SyncedAt:        now,
	}
}

// ParseTimestamp accepts RFC 3339 (with or without sub-seconds) and unix
// epoch milliseconds, the two formats devices emit.
func ParseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t, nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	return time.Time{}, &ValidationError{Message: fmt.Sprintf("timestamp %q is not RFC 3339 or unix milliseconds", raw)}
}

func employeeOrDefault(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultEmployeeName
	}
	return name
}
