package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/clearpath-sec/gatehouse/internal/gatehouse/store"
	"github.com/clearpath-sec/gatehouse/internal/gatehouse/types"
)

var (
	ErrInvalidTerminalID = errors.New("terminal_id is required")
)

type HeartbeatService struct {
	heartbeatStore store.HeartbeatStore
	registry       *TerminalRegistry
}

func NewHeartbeatService(hs store.HeartbeatStore, reg *TerminalRegistry) *HeartbeatService {
	return &HeartbeatService{heartbeatStore: hs, registry: reg}
}

// Record accepts a terminal heartbeat. Unknown terminals are accepted too
// (the response marks them as unknown) so a freshly installed terminal shows
// up before it is provisioned. A heartbeat with scanner_ok=false is how a
// terminal reports a camera/scanner fault; it never touches the audit log.
func (s *HeartbeatService) Record(ctx context.Context, req types.HeartbeatRequest) (types.HeartbeatResponse, error) {
	terminalID := strings.TrimSpace(req.TerminalID)
	if terminalID == "" {
		return types.HeartbeatResponse{}, ErrInvalidTerminalID
	}

	known, err := s.registry.IsKnown(ctx, terminalID)
	if err != nil {
		return types.HeartbeatResponse{}, err
	}
	_ = s.registry.NoteSeen(ctx, terminalID, known)

	rec := store.HeartbeatRecord{
		ReceivedAt: time.Now().UTC(),
		Request:    req,
	}

	if err := s.heartbeatStore.UpsertHeartbeat(ctx, terminalID, rec); err != nil {
		return types.HeartbeatResponse{}, err
	}

	return types.HeartbeatResponse{
		OK:         true,
		Known:      known,
		TerminalID: terminalID,
		ServerTime: time.Now().UTC().Format(time.RFC3339Nano),
	}, nil
}
