package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type SeedTerminal struct {
	ID       string
	Facility string
	Gate     string
}

type SeedDevOptions struct {
	// Optional: terminals from config to pre-provision in dev.
	KnownTerminals []SeedTerminal
}

// SeedDev provisions a starter terminal and a couple of demo requests with
// approval chains so a fresh dev checkout can exercise scan, lookup, and
// decision flows end to end.
func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	now := time.Now().UTC()
	nowMs := now.UnixMilli()

	if _, err := db.ExecContext(ctx, `
INSERT INTO terminals(
  terminal_id, display_name, facility, gate,
  enabled, commissioned_at_ms, created_at_ms, updated_at_ms
) VALUES ('term-001', 'Main Entrance', 'HQ', 'North', 1, ?, ?, ?)
ON CONFLICT(terminal_id) DO UPDATE SET
  display_name = excluded.display_name,
  facility = excluded.facility,
  gate = excluded.gate,
  enabled = 1,
  commissioned_at_ms = COALESCE(terminals.commissioned_at_ms, excluded.commissioned_at_ms),
  updated_at_ms = excluded.updated_at_ms;
`, nowMs, nowMs, nowMs); err != nil {
		return fmt.Errorf("seed terminal term-001: %w", err)
	}

	for _, term := range opt.KnownTerminals {
		if term.ID == "" || term.ID == "term-001" {
			continue
		}
		if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO terminals(
  terminal_id, facility, gate, enabled, commissioned_at_ms, created_at_ms, updated_at_ms
) VALUES (?, ?, ?, 1, ?, ?, ?);
`, term.ID, term.Facility, term.Gate, nowMs, nowMs, nowMs); err != nil {
			return fmt.Errorf("seed terminal %s: %w", term.ID, err)
		}
	}

	// An approved request valid for the next 30 days, and a pending one
	// so the deny path is reachable too.
	startMs := now.Add(-24 * time.Hour).UnixMilli()
	endMs := now.Add(30 * 24 * time.Hour).UnixMilli()

	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO requests(
  id, request_number, requester_name, requester_email, status,
  facility_access, start_date_ms, end_date_ms, access_type, access_level,
  system_access, duration, template_id
) VALUES
  ('req-dev-1', 'REQ-2024-001', 'Ada Lovelace', 'ada@example.com', 'approved',
   'HQ', ?, ?, 'physical', 'standard', '["badge-system"]', '30d', 'tmpl-1'),
  ('req-dev-2', 'REQ-2024-002', 'Grace Hopper', 'grace@example.com', 'pending',
   'Lab B', NULL, NULL, 'physical', 'elevated', '[]', '7d', 'tmpl-1');
`, startMs, endMs); err != nil {
		return fmt.Errorf("seed requests: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO approval_chain(
  id, request_id, approver_name, approval_order, status, action_date_ms, signature_ref
) VALUES
  (1, 'req-dev-1', 'Facilities Lead', 1, 'approved', ?, 'sig-1'),
  (2, 'req-dev-1', 'Security Officer', 2, 'approved', ?, 'sig-2'),
  (3, 'req-dev-2', 'Facilities Lead', 1, 'approved', ?, 'sig-3'),
  (4, 'req-dev-2', 'Security Officer', 2, 'pending', NULL, NULL);
`, nowMs, nowMs, nowMs); err != nil {
		return fmt.Errorf("seed approval chain: %w", err)
	}

	return nil
}
