package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"callsync-server/internal/ingest"
	"callsync-server/internal/query"
	"callsync-server/internal/records"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres implements the ingest, query and stats repositories over a single
// shared *sql.DB handle (pgx stdlib driver).
//
// The call_records table is INSERT-only. CHECK constraints mirror the model
// invariants so the lenient batch path cannot persist an invalid row; the
// seq column pins insertion order for tie-breaking on equal timestamps.

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

const schemaSQL = `
CREATE TABLE IF NOT EXISTS call_records (
    id            UUID PRIMARY KEY,
    seq           BIGSERIAL,
    phone_number  TEXT NOT NULL CHECK (phone_number <> ''),
    call_type     TEXT NOT NULL CHECK (call_type IN ('INCOMING','OUTGOING','MISSED')),
    duration      INTEGER NOT NULL DEFAULT 0 CHECK (duration >= 0),
    "timestamp"   TIMESTAMPTZ NOT NULL,
    device_id     TEXT NOT NULL CHECK (device_id <> ''),
    employee_name TEXT NOT NULL DEFAULT 'Unknown',
    synced_at     TIMESTAMPTZ NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// The four access paths that drive reads: device history, employee lookup,
// global recency, phone search.
var indexSQL = []string{
	`CREATE INDEX IF NOT EXISTS idx_call_records_device_time ON call_records (device_id, "timestamp" DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_call_records_employee ON call_records (employee_name)`,
	`CREATE INDEX IF NOT EXISTS idx_call_records_time ON call_records ("timestamp" DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_call_records_phone ON call_records (phone_number)`,
}

// Migrate creates the call_records table and its indexes. Safe to run on
// every boot.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("store: create table failed: %w", err)
	}
	for _, q := range indexSQL {
		if _, err := p.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("store: create index failed: %w", err)
		}
	}
	return nil
}

const insertSQL = `
INSERT INTO call_records (
  id, phone_number, call_type, duration, "timestamp", device_id, employee_name, synced_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8
)`

func (p *Postgres) InsertOne(ctx context.Context, rec records.CallRecord) (string, error) {
	id := uuid.NewString()
	_, err := p.db.ExecContext(ctx, insertSQL,
		id,
		rec.PhoneNumber,
		string(rec.CallType),
		rec.DurationSeconds,
		rec.Timestamp,
		rec.DeviceID,
		rec.EmployeeName,
		rec.SyncedAt,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// InsertMany persists rows one at a time in autocommit mode, deliberately
// outside a transaction: a constraint violation drops that row only.
// Server-side errors (pgconn.PgError) count as rejections; anything else is
// a transport failure and aborts the batch.
func (p *Postgres) InsertMany(ctx context.Context, recs []records.CallRecord) (ingest.BatchResult, error) {
	var res ingest.BatchResult
	for _, rec := range recs {
		_, err := p.db.ExecContext(ctx, insertSQL,
			uuid.NewString(),
			rec.PhoneNumber,
			string(rec.CallType),
			rec.DurationSeconds,
			rec.Timestamp,
			rec.DeviceID,
			rec.EmployeeName,
			rec.SyncedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) {
				res.Rejected++
				continue
			}
			return res, err
		}
		res.Persisted++
	}
	return res, nil
}

const selectColumns = `id, phone_number, call_type, duration, "timestamp", device_id, employee_name, synced_at, created_at, updated_at`

func (p *Postgres) List(ctx context.Context, f query.Filter, limit, offset int) ([]records.CallRecord, error) {
	where, args := whereClause(f)
	q := fmt.Sprintf(
		`SELECT %s FROM call_records%s ORDER BY "timestamp" DESC, seq ASC LIMIT $%d OFFSET $%d`,
		selectColumns, where, len(args)+1, len(args)+2,
	)
	args = append(args, limit, offset)

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]records.CallRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (p *Postgres) Count(ctx context.Context, f query.Filter) (int, error) {
	where, args := whereClause(f)
	var n int
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM call_records`+where, args...).Scan(&n)
	return n, err
}

// ListAll feeds the aggregation service with the full record set in
// insertion order.
func (p *Postgres) ListAll(ctx context.Context) ([]records.CallRecord, error) {
	rows, err := p.db.QueryContext(ctx, fmt.Sprintf(`SELECT %s FROM call_records ORDER BY seq ASC`, selectColumns))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]records.CallRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// whereClause compiles a query.Filter to a SQL predicate. Must stay in
// lockstep with Filter.Matches.
func whereClause(f query.Filter) (string, []any) {
	conds := make([]string, 0, 6)
	args := make([]any, 0, 6)

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.DeviceID != "" {
		add(`device_id = $%d`, f.DeviceID)
	}
	if f.EmployeeName != "" {
		add(`employee_name ILIKE '%%' || $%d || '%%' ESCAPE '\'`, likeEscape(f.EmployeeName))
	}
	if f.CallType != "" {
		add(`call_type = $%d`, string(f.CallType))
	}
	if f.PhoneNumber != "" {
		add(`phone_number LIKE '%%' || $%d || '%%' ESCAPE '\'`, likeEscape(f.PhoneNumber))
	}
	if f.From != nil {
		add(`"timestamp" >= $%d`, *f.From)
	}
	if f.To != nil {
		add(`"timestamp" <= $%d`, *f.To)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likeEscape neutralizes LIKE/ILIKE metacharacters so filter values match as
// plain substrings, the same way Filter.Matches treats them.
func likeEscape(s string) string {
	return likeEscaper.Replace(s)
}

func scanRecord(rows *sql.Rows) (records.CallRecord, error) {
	var rec records.CallRecord
	var ct string
	err := rows.Scan(
		&rec.ID,
		&rec.PhoneNumber,
		&ct,
		&rec.DurationSeconds,
		&rec.Timestamp,
		&rec.DeviceID,
		&rec.EmployeeName,
		&rec.SyncedAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	rec.CallType = records.CallType(ct)
	return rec, err
}
