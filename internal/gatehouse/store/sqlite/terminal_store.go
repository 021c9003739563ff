package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/clearpath-sec/gatehouse/internal/db"
	"github.com/clearpath-sec/gatehouse/internal/gatehouse/store"
)

type TerminalStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewTerminalStore(db *sql.DB, writer *dbpkg.Worker) *TerminalStore {
	return &TerminalStore{db: db, writer: writer}
}

// Get treats "known" as commissioned + enabled: in prod an admin provisions
// terminals (or the dev seeder does), and only those may run checkpoint
// sessions.
func (s *TerminalStore) Get(ctx context.Context, terminalID string) (store.TerminalRecord, error) {
	terminalID = strings.TrimSpace(terminalID)
	if terminalID == "" {
		return store.TerminalRecord{}, nil
	}

	var (
		displayName  sql.NullString
		facility     sql.NullString
		gate         sql.NullString
		enabled      int
		commissioned sql.NullInt64
		lastSeen     sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT display_name, facility, gate, enabled, commissioned_at_ms, last_seen_at_ms
FROM terminals WHERE terminal_id = ?;`, terminalID).Scan(
		&displayName, &facility, &gate, &enabled, &commissioned, &lastSeen,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return store.TerminalRecord{ID: terminalID}, nil
	}
	if err != nil {
		return store.TerminalRecord{}, fmt.Errorf("Get terminal: %w", err)
	}

	rec := store.TerminalRecord{
		ID:          terminalID,
		DisplayName: displayName.String,
		Facility:    facility.String,
		Gate:        gate.String,
		Known:       enabled == 1 && commissioned.Valid,
	}
	if lastSeen.Valid {
		rec.LastSeen = time.UnixMilli(lastSeen.Int64).UTC()
	}
	return rec, nil
}

func (s *TerminalStore) MarkSeen(ctx context.Context, terminalID string, _ bool, t time.Time) error {
	terminalID = strings.TrimSpace(terminalID)
	if terminalID == "" {
		return nil
	}
	if t.IsZero() {
		t = time.Now().UTC()
	}
	seenMs := t.UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := ensureTerminal(ctx, tx, terminalID, seenMs); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
UPDATE terminals
SET last_seen_at_ms = ?, updated_at_ms = ?
WHERE terminal_id = ?;`, seenMs, seenMs, terminalID); err != nil {
			return fmt.Errorf("MarkSeen update: %w", err)
		}
		return nil
	})
}
