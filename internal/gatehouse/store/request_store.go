package store

import (
	"context"

	"github.com/clearpath-sec/gatehouse/internal/gatehouse/types"
)

// RequestStore is a read-only view over the external request subsystem.
// Gatehouse never writes request state.
type RequestStore interface {
	GetByID(ctx context.Context, id string) (types.Request, error)
	GetByNumber(ctx context.Context, number string) (types.Request, error)
}

// ApprovalStore is a read-only view over a request's approval chain.
type ApprovalStore interface {
	ListByRequest(ctx context.Context, requestID string) ([]types.ApprovalChainEntry, error)
}
