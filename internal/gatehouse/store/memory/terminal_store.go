package memory

import (
	"context"
	"sync"
	"time"

	"github.com/clearpath-sec/gatehouse/internal/gatehouse/store"
)

type TerminalStore struct {
	mu        sync.RWMutex
	terminals map[string]store.TerminalRecord
	seen      map[string]time.Time
}

func NewTerminalStore(terminals []store.TerminalRecord) *TerminalStore {
	m := make(map[string]store.TerminalRecord, len(terminals))
	for _, t := range terminals {
		if t.ID == "" {
			continue
		}
		t.Known = true
		m[t.ID] = t
	}
	return &TerminalStore{
		terminals: m,
		seen:      make(map[string]time.Time),
	}
}

func (s *TerminalStore) Get(_ context.Context, terminalID string) (store.TerminalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.terminals[terminalID]
	if !ok {
		return store.TerminalRecord{ID: terminalID}, nil
	}
	rec.LastSeen = s.seen[terminalID]
	return rec, nil
}

func (s *TerminalStore) MarkSeen(_ context.Context, terminalID string, _ bool, t time.Time) error {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[terminalID] = t
	return nil
}

type HeartbeatStore struct {
	mu   sync.Mutex
	data map[string]store.HeartbeatRecord
}

func NewHeartbeatStore() *HeartbeatStore {
	return &HeartbeatStore{data: make(map[string]store.HeartbeatRecord)}
}

func (s *HeartbeatStore) UpsertHeartbeat(_ context.Context, terminalID string, rec store.HeartbeatRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = time.Now().UTC()
	}
	s.data[terminalID] = rec
	return nil
}

func (s *HeartbeatStore) PruneOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for id, rec := range s.data {
		if rec.ReceivedAt.Before(cutoff) {
			delete(s.data, id)
			deleted++
		}
	}
	return deleted, nil
}
