package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/clearpath-sec/gatehouse/internal/db"
	"github.com/clearpath-sec/gatehouse/internal/gatehouse/store"
)

type HeartbeatStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewHeartbeatStore(db *sql.DB, writer *dbpkg.Worker) *HeartbeatStore {
	return &HeartbeatStore{db: db, writer: writer}
}

func (s *HeartbeatStore) UpsertHeartbeat(ctx context.Context, terminalID string, rec store.HeartbeatRecord) error {
	terminalID = strings.TrimSpace(terminalID)
	if terminalID == "" {
		return nil
	}

	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = time.Now().UTC()
	}
	recvMs := rec.ReceivedAt.UTC().UnixMilli()

	fw := strings.TrimSpace(rec.Request.FirmwareVersion)
	ip := strings.TrimSpace(rec.Request.IP)

	var rssi any
	if rec.Request.RSSIDbm != nil {
		rssi = *rec.Request.RSSIDbm
	}

	var scannerOK any
	if rec.Request.ScannerOK != nil {
		if *rec.Request.ScannerOK {
			scannerOK = 1
		} else {
			scannerOK = 0
		}
	}

	var uptimeMs any
	if rec.Request.UptimeSeconds != 0 {
		uptimeMs = int64(rec.Request.UptimeSeconds) * 1000
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := ensureTerminal(ctx, tx, terminalID, recvMs); err != nil {
			return err
		}

		// Insert heartbeat event (append-only)
		if _, err := tx.ExecContext(ctx, `
INSERT INTO terminal_heartbeats(
  terminal_id, received_at_ms, uptime_ms, fw_version, scanner_ok, wifi_rssi, ip
) VALUES (?, ?, ?, ?, ?, ?, ?);
`, terminalID, recvMs, uptimeMs, fw, scannerOK, rssi, ip); err != nil {
			return fmt.Errorf("UpsertHeartbeat insert heartbeat: %w", err)
		}

		// Update terminal snapshot for fast current-status queries.
		if _, err := tx.ExecContext(ctx, `
UPDATE terminals
SET last_seen_at_ms = ?,
    last_ip = ?,
    last_fw_version = ?,
    updated_at_ms = ?
WHERE terminal_id = ?;
`, recvMs, ip, fw, recvMs, terminalID); err != nil {
			return fmt.Errorf("UpsertHeartbeat update terminal snapshot: %w", err)
		}

		return nil
	})
}

// PruneOlderThan deletes heartbeat rows with received_at_ms before the given
// cutoff time.  Returns the number of rows deleted.
//
// Uses the idx_heartbeats_time index for an efficient range scan.
func (s *HeartbeatStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cutoffMs := cutoff.UTC().UnixMilli()

	var deleted int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
DELETE FROM terminal_heartbeats
WHERE received_at_ms < ?;
`, cutoffMs)
		if err != nil {
			return fmt.Errorf("PruneOlderThan: %w", err)
		}
		deleted, _ = res.RowsAffected()
		return nil
	})
	return deleted, err
}
