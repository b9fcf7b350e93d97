package store

import (
	"strings"
	"testing"
	"time"

	"callsync-server/internal/query"
	"callsync-server/internal/records"
)

func TestWhereClause_EmptyFilter(t *testing.T) {
	where, args := whereClause(query.Filter{})
	if where != "" || args != nil {
		t.Fatalf("expected no clause for empty filter, got %q %v", where, args)
	}
}

func TestWhereClause_AllPredicatesANDed(t *testing.T) {
	from := time.Unix(1700000000, 0).UTC()
	to := from.Add(time.Hour)
	where, args := whereClause(query.Filter{
		DeviceID:     "dev-1",
		EmployeeName: "ali",
		CallType:     records.CallTypeIncoming,
		PhoneNumber:  "555",
		From:         &from,
		To:           &to,
	})

	if len(args) != 6 {
		t.Fatalf("expected 6 args, got %d", len(args))
	}
	for _, frag := range []string{
		`device_id = $1`,
		`employee_name ILIKE '%' || $2 || '%' ESCAPE '\'`,
		`call_type = $3`,
		`phone_number LIKE '%' || $4 || '%' ESCAPE '\'`,
		`"timestamp" >= $5`,
		`"timestamp" <= $6`,
	} {
		if !strings.Contains(where, frag) {
			t.Fatalf("expected %q in clause %q", frag, where)
		}
	}
	if strings.Count(where, " AND ") != 5 {
		t.Fatalf("expected 5 AND joins, got %q", where)
	}
	if !strings.HasPrefix(where, " WHERE ") {
		t.Fatalf("expected WHERE prefix, got %q", where)
	}
}

func TestWhereClause_ArgNumberingIsSequential(t *testing.T) {
	where, args := whereClause(query.Filter{
		CallType:    records.CallTypeMissed,
		PhoneNumber: "99",
	})
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args))
	}
	if !strings.Contains(where, "call_type = $1") || !strings.Contains(where, "$2") {
		t.Fatalf("expected $1/$2 numbering, got %q", where)
	}
	if args[0] != "MISSED" || args[1] != "99" {
		t.Fatalf("unexpected arg order: %v", args)
	}
}

// Substring filters must match literally, like Filter.Matches does: a stored
// "555" is not a match for filter "5_5", and "%" matches nothing but itself.
func TestWhereClause_EscapesLikeMetacharacters(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`5_5`, `5\_5`},
		{`100%`, `100\%`},
		{`a\b`, `a\\b`},
		{`%_\`, `\%\_\\`},
		{`plain`, `plain`},
	}
	for _, tc := range cases {
		if got := likeEscape(tc.in); got != tc.want {
			t.Fatalf("likeEscape(%q) = %q, want %q", tc.in, got, tc.want)
		}

		_, args := whereClause(query.Filter{PhoneNumber: tc.in})
		if args[0] != tc.want {
			t.Fatalf("phone arg for %q = %v, want %q", tc.in, args[0], tc.want)
		}
		_, args = whereClause(query.Filter{EmployeeName: tc.in})
		if args[0] != tc.want {
			t.Fatalf("employee arg for %q = %v, want %q", tc.in, args[0], tc.want)
		}
	}

	where, _ := whereClause(query.Filter{PhoneNumber: `5_5`})
	if !strings.Contains(where, `ESCAPE '\'`) {
		t.Fatalf("expected ESCAPE clause, got %q", where)
	}
}

// Filter.Matches is the reference semantics for the SQL predicates: a filter
// containing pattern characters only matches records that contain them
// literally.
func TestFilterTreatsPatternCharactersLiterally(t *testing.T) {
	rec := records.CallRecord{PhoneNumber: "555", EmployeeName: "Alice", CallType: records.CallTypeIncoming, DeviceID: "d1"}
	if (query.Filter{PhoneNumber: "5_5"}).Matches(rec) {
		t.Fatalf("expected 5_5 not to match 555")
	}
	if (query.Filter{PhoneNumber: "%"}).Matches(rec) {
		t.Fatalf("expected %% not to match 555")
	}
	lit := records.CallRecord{PhoneNumber: "5_5", EmployeeName: "100% effort", CallType: records.CallTypeIncoming, DeviceID: "d1"}
	if !(query.Filter{PhoneNumber: "5_5"}).Matches(lit) {
		t.Fatalf("expected literal 5_5 to match")
	}
	if !(query.Filter{EmployeeName: "100%"}).Matches(lit) {
		t.Fatalf("expected literal 100%% to match")
	}
}

func TestSchemaEnforcesModelInvariants(t *testing.T) {
	for _, frag := range []string{
		`call_type IN ('INCOMING','OUTGOING','MISSED')`,
		`duration >= 0`,
		`phone_number <> ''`,
		`device_id <> ''`,
	} {
		if !strings.Contains(schemaSQL, frag) {
			t.Fatalf("expected schema constraint %q", frag)
		}
	}
	if len(indexSQL) != 4 {
		t.Fatalf("expected exactly four secondary indexes, got %d", len(indexSQL))
	}
}
