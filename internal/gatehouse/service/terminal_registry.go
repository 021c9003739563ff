package service

import (
	"context"
	"strings"
	"time"

	"github.com/clearpath-sec/gatehouse/internal/gatehouse/store"
)

// TerminalRegistry resolves checkpoint terminals to their provisioning
// record (facility and gate bindings) and tracks when they were last seen.
type TerminalRegistry struct {
	store store.TerminalStore
}

func NewTerminalRegistry(st store.TerminalStore) *TerminalRegistry {
	return &TerminalRegistry{store: st}
}

func (r *TerminalRegistry) Get(ctx context.Context, terminalID string) (store.TerminalRecord, error) {
	terminalID = strings.TrimSpace(terminalID)
	if terminalID == "" {
		return store.TerminalRecord{}, nil
	}
	return r.store.Get(ctx, terminalID)
}

func (r *TerminalRegistry) IsKnown(ctx context.Context, terminalID string) (bool, error) {
	rec, err := r.Get(ctx, terminalID)
	if err != nil {
		return false, err
	}
	return rec.Known, nil
}

func (r *TerminalRegistry) NoteSeen(ctx context.Context, terminalID string, known bool) error {
	terminalID = strings.TrimSpace(terminalID)
	if terminalID == "" {
		return nil
	}
	return r.store.MarkSeen(ctx, terminalID, known, time.Now().UTC())
}
