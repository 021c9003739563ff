package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/clearpath-sec/gatehouse/internal/gatehouse/store"
	"github.com/clearpath-sec/gatehouse/internal/gatehouse/types"
)

// RequestStore reads request records mirrored from the external request
// subsystem. It is read-only: gatehouse never mutates request state, so
// there is no writer dependency here.
type RequestStore struct {
	db *sql.DB
}

func NewRequestStore(db *sql.DB) *RequestStore {
	return &RequestStore{db: db}
}

const requestColumns = `
id, request_number, requester_name, requester_email, status,
facility_access, start_date_ms, end_date_ms, access_type, access_level,
system_access, duration, template_id`

func (s *RequestStore) GetByID(ctx context.Context, id string) (types.Request, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = ?;`, id)
	return scanRequest(row)
}

func (s *RequestStore) GetByNumber(ctx context.Context, number string) (types.Request, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE request_number = ?;`, number)
	return scanRequest(row)
}

func scanRequest(row *sql.Row) (types.Request, error) {
	var (
		r                       types.Request
		requesterName           sql.NullString
		requesterEmail          sql.NullString
		facilityAccess          sql.NullString
		startMs, endMs          sql.NullInt64
		accessType, accessLevel sql.NullString
		systemAccess            sql.NullString
		duration, templateID    sql.NullString
	)

	err := row.Scan(
		&r.ID, &r.RequestNumber, &requesterName, &requesterEmail, &r.Status,
		&facilityAccess, &startMs, &endMs, &accessType, &accessLevel,
		&systemAccess, &duration, &templateID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Request{}, store.ErrNotFound
	}
	if err != nil {
		return types.Request{}, fmt.Errorf("scan request: %w", err)
	}

	r.RequesterName = requesterName.String
	r.RequesterEmail = requesterEmail.String
	r.TemplateID = templateID.String
	r.Form = types.RequestForm{
		FacilityAccess: facilityAccess.String,
		AccessType:     accessType.String,
		AccessLevel:    accessLevel.String,
		Duration:       duration.String,
	}
	if startMs.Valid {
		t := time.UnixMilli(startMs.Int64).UTC()
		r.Form.StartDate = &t
	}
	if endMs.Valid {
		t := time.UnixMilli(endMs.Int64).UTC()
		r.Form.EndDate = &t
	}
	if systemAccess.Valid && systemAccess.String != "" {
		if err := json.Unmarshal([]byte(systemAccess.String), &r.Form.SystemAccess); err != nil {
			return types.Request{}, fmt.Errorf("decode system_access: %w", err)
		}
	}

	return r, nil
}

// ApprovalStore reads approval-chain entries, also read-only. Rows come
// back in insertion order (rowid); the inspector applies the
// approval-order sort.
type ApprovalStore struct {
	db *sql.DB
}

func NewApprovalStore(db *sql.DB) *ApprovalStore {
	return &ApprovalStore{db: db}
}

func (s *ApprovalStore) ListByRequest(ctx context.Context, requestID string) ([]types.ApprovalChainEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT request_id, approver_name, approval_order, status, action_date_ms, signature_ref
FROM approval_chain
WHERE request_id = ?
ORDER BY id;`, requestID)
	if err != nil {
		return nil, fmt.Errorf("ListByRequest: %w", err)
	}
	defer rows.Close()

	var out []types.ApprovalChainEntry
	for rows.Next() {
		var (
			e            types.ApprovalChainEntry
			actionMs     sql.NullInt64
			signatureRef sql.NullString
		)
		if err := rows.Scan(&e.RequestID, &e.ApproverName, &e.Order, &e.Status, &actionMs, &signatureRef); err != nil {
			return nil, fmt.Errorf("ListByRequest scan: %w", err)
		}
		if actionMs.Valid {
			t := time.UnixMilli(actionMs.Int64).UTC()
			e.ActionDate = &t
		}
		e.SignatureRef = signatureRef.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByRequest rows: %w", err)
	}
	return out, nil
}
