package memory

import (
	"context"
	"sync"

	"github.com/clearpath-sec/gatehouse/internal/gatehouse/store"
	"github.com/clearpath-sec/gatehouse/internal/gatehouse/types"
)

// RequestStore serves request records from memory. Gatehouse treats the
// request subsystem as read-only, so there are no write methods.
type RequestStore struct {
	mu       sync.RWMutex
	byID     map[string]types.Request
	byNumber map[string]types.Request
}

func NewRequestStore(requests []types.Request) *RequestStore {
	s := &RequestStore{
		byID:     make(map[string]types.Request, len(requests)),
		byNumber: make(map[string]types.Request, len(requests)),
	}
	for _, r := range requests {
		s.byID[r.ID] = r
		if r.RequestNumber != "" {
			s.byNumber[r.RequestNumber] = r
		}
	}
	return s
}

func (s *RequestStore) GetByID(_ context.Context, id string) (types.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[id]
	if !ok {
		return types.Request{}, store.ErrNotFound
	}
	return r, nil
}

func (s *RequestStore) GetByNumber(_ context.Context, number string) (types.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byNumber[number]
	if !ok {
		return types.Request{}, store.ErrNotFound
	}
	return r, nil
}

// ApprovalStore serves approval-chain entries from memory, preserving the
// original record order within a request.
type ApprovalStore struct {
	mu        sync.RWMutex
	byRequest map[string][]types.ApprovalChainEntry
}

func NewApprovalStore(entries []types.ApprovalChainEntry) *ApprovalStore {
	s := &ApprovalStore{byRequest: make(map[string][]types.ApprovalChainEntry)}
	for _, e := range entries {
		s.byRequest[e.RequestID] = append(s.byRequest[e.RequestID], e)
	}
	return s
}

func (s *ApprovalStore) ListByRequest(_ context.Context, requestID string) ([]types.ApprovalChainEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.byRequest[requestID]
	out := make([]types.ApprovalChainEntry, len(src))
	copy(out, src)
	return out, nil
}
