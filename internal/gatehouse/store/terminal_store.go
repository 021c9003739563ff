package store

import (
	"context"
	"time"

	"github.com/clearpath-sec/gatehouse/internal/gatehouse/types"
)

// TerminalRecord describes a provisioned checkpoint terminal. Facility and
// Gate scope the verdicts and audit entries produced at that terminal.
type TerminalRecord struct {
	ID          string
	DisplayName string
	Facility    string
	Gate        string
	Known       bool
	LastSeen    time.Time
}

type TerminalStore interface {
	// Get returns the terminal record; Known=false (not an error) when the
	// terminal has not been provisioned.
	Get(ctx context.Context, terminalID string) (TerminalRecord, error)
	MarkSeen(ctx context.Context, terminalID string, known bool, t time.Time) error
}

type HeartbeatRecord struct {
	ReceivedAt time.Time
	Request    types.HeartbeatRequest
}

type HeartbeatStore interface {
	UpsertHeartbeat(ctx context.Context, terminalID string, rec HeartbeatRecord) error
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
