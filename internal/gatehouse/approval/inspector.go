// Package approval gives a read-only view over a request's sign-off chain.
// The summary feeds the operator display; it never gates a verdict.
package approval

import (
	"context"
	"sort"

	"github.com/clearpath-sec/gatehouse/internal/gatehouse/store"
	"github.com/clearpath-sec/gatehouse/internal/gatehouse/types"
)

type Inspector struct {
	store store.ApprovalStore
}

func NewInspector(st store.ApprovalStore) *Inspector {
	return &Inspector{store: st}
}

// EntriesFor returns the chain sorted ascending by approval order. Entries
// sharing an order value keep their original record order (stable sort).
func (i *Inspector) EntriesFor(ctx context.Context, requestID string) ([]types.ApprovalChainEntry, error) {
	entries, err := i.store.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].Order < entries[b].Order
	})
	return entries, nil
}

// IsComplete reports whether every slot up to requiredApproverCount has an
// approved entry.
func (i *Inspector) IsComplete(ctx context.Context, requestID string, requiredApproverCount int) (bool, error) {
	entries, err := i.store.ListByRequest(ctx, requestID)
	if err != nil {
		return false, err
	}

	approved := make(map[int]bool, len(entries))
	for _, e := range entries {
		if e.Status == types.ApprovalApproved {
			approved[e.Order] = true
		}
	}

	for slot := 1; slot <= requiredApproverCount; slot++ {
		if !approved[slot] {
			return false, nil
		}
	}
	return true, nil
}

// Summarize bundles the ordered chain and its completeness for display.
func (i *Inspector) Summarize(ctx context.Context, requestID string, requiredApproverCount int) (types.ApprovalSummary, error) {
	entries, err := i.EntriesFor(ctx, requestID)
	if err != nil {
		return types.ApprovalSummary{}, err
	}
	complete, err := i.IsComplete(ctx, requestID, requiredApproverCount)
	if err != nil {
		return types.ApprovalSummary{}, err
	}
	return types.ApprovalSummary{Entries: entries, Complete: complete}, nil
}
