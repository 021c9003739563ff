package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// ensureTerminal guarantees a terminals row exists for the given terminalID
// so that foreign-key constraints from heartbeats are satisfied.
//
// New rows start disabled and uncommissioned — only an admin action (or the
// dev seeder) should set enabled=1 and commissioned_at_ms.
//
// Must be called inside an existing transaction.
func ensureTerminal(ctx context.Context, tx *sql.Tx, terminalID string, nowMs int64) error {
	if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO terminals(
  terminal_id, enabled, created_at_ms, updated_at_ms
) VALUES (?, 0, ?, ?);
`, terminalID, nowMs, nowMs); err != nil {
		return fmt.Errorf("ensureTerminal %s: %w", terminalID, err)
	}
	return nil
}
