package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	dbpkg "github.com/clearpath-sec/gatehouse/internal/db"
	"github.com/clearpath-sec/gatehouse/internal/gatehouse/store"
	"github.com/clearpath-sec/gatehouse/internal/gatehouse/types"
)

// AccessLogStore persists audit entries in SQLite. Writes go through the
// serialized writer so concurrent terminals never interleave inside a row;
// ids are random UUIDs so uniqueness holds regardless of caller ordering.
type AccessLogStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAccessLogStore(db *sql.DB, writer *dbpkg.Worker) *AccessLogStore {
	return &AccessLogStore{db: db, writer: writer}
}

func (s *AccessLogStore) Append(ctx context.Context, in store.AccessLogInput) (types.AccessLogEntry, error) {
	entry := types.AccessLogEntry{
		ID: uuid.NewString(),
		// Stored at millisecond precision; truncate so the returned record
		// matches what a later Query will read back.
		Timestamp:     time.Now().UTC().Truncate(time.Millisecond),
		RequestID:     in.RequestID,
		RequestNumber: in.RequestNumber,
		RequesterName: in.RequesterName,
		Facility:      in.Facility,
		Gate:          in.Gate,
		Action:        in.Action,
		Method:        in.Method,
		GuardName:     in.GuardName,
		Reason:        in.Reason,
		Valid:         in.Valid,
	}

	valid := 0
	if entry.Valid {
		valid = 1
	}

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO access_logs(
  id, ts_ms, request_id, request_number, requester_name,
  facility, gate, action, method, guard_name, reason, valid
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`,
			entry.ID, entry.Timestamp.UnixMilli(), entry.RequestID, entry.RequestNumber,
			entry.RequesterName, entry.Facility, entry.Gate, string(entry.Action),
			string(entry.Method), entry.GuardName, entry.Reason, valid,
		); err != nil {
			return fmt.Errorf("Append insert: %w", err)
		}
		return nil
	})
	if err != nil {
		return types.AccessLogEntry{}, err
	}
	return entry, nil
}

func (s *AccessLogStore) Query(ctx context.Context, f store.LogFilter) ([]types.AccessLogEntry, error) {
	q := `
SELECT id, ts_ms, request_id, request_number, requester_name,
       facility, gate, action, method, guard_name, reason, valid
FROM access_logs`

	var conds []string
	var args []any

	if f.Text != "" {
		like := "%" + strings.ToLower(f.Text) + "%"
		conds = append(conds, `(LOWER(request_number) LIKE ? OR LOWER(requester_name) LIKE ?
   OR LOWER(gate) LIKE ? OR LOWER(guard_name) LIKE ?)`)
		args = append(args, like, like, like, like)
	}
	if f.Facility != "" {
		conds = append(conds, "facility = ?")
		args = append(args, f.Facility)
	}
	if f.Action != "" {
		conds = append(conds, "action = ?")
		args = append(args, string(f.Action))
	}
	if f.From != nil {
		conds = append(conds, "ts_ms >= ?")
		args = append(args, f.From.UTC().UnixMilli())
	}
	if f.To != nil {
		conds = append(conds, "ts_ms <= ?")
		args = append(args, f.To.UTC().UnixMilli())
	}

	if len(conds) > 0 {
		q += "\nWHERE " + strings.Join(conds, " AND ")
	}
	// rowid breaks equal-timestamp ties by insertion order, newest first.
	q += "\nORDER BY ts_ms DESC, rowid DESC;"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("Query: %w", err)
	}
	defer rows.Close()

	var out []types.AccessLogEntry
	for rows.Next() {
		var (
			e     types.AccessLogEntry
			tsMs  int64
			valid int
		)
		if err := rows.Scan(
			&e.ID, &tsMs, &e.RequestID, &e.RequestNumber, &e.RequesterName,
			&e.Facility, &e.Gate, &e.Action, &e.Method, &e.GuardName, &e.Reason, &valid,
		); err != nil {
			return nil, fmt.Errorf("Query scan: %w", err)
		}
		e.Timestamp = time.UnixMilli(tsMs).UTC()
		e.Valid = valid != 0
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Query rows: %w", err)
	}
	return out, nil
}

func (s *AccessLogStore) ListFacilities(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT DISTINCT facility FROM access_logs
WHERE facility <> ''
ORDER BY facility;`)
	if err != nil {
		return nil, fmt.Errorf("ListFacilities: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("ListFacilities scan: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListFacilities rows: %w", err)
	}
	return out, nil
}

func (s *AccessLogStore) Purge(ctx context.Context) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM access_logs;`); err != nil {
			return fmt.Errorf("Purge: %w", err)
		}
		return nil
	})
}
