package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clearpath-sec/gatehouse/internal/gatehouse/store"
	"github.com/clearpath-sec/gatehouse/internal/gatehouse/types"
)

// AccessLogStore is an in-memory append-only audit log for tests and dev
// environments. IDs are UUIDs so they stay unique even when several stores
// feed the same assertions.
type AccessLogStore struct {
	mu      sync.Mutex
	entries []types.AccessLogEntry
}

func NewAccessLogStore() *AccessLogStore {
	return &AccessLogStore{}
}

func (s *AccessLogStore) Append(_ context.Context, in store.AccessLogInput) (types.AccessLogEntry, error) {
	entry := types.AccessLogEntry{
		ID: uuid.NewString(),
		// Millisecond precision, matching what the durable store preserves.
		Timestamp:     time.Now().UTC().Truncate(time.Millisecond),
		RequestID:     in.RequestID,
		RequestNumber: in.RequestNumber,
		RequesterName: in.RequesterName,
		Facility:      in.Facility,
		Gate:          in.Gate,
		Action:        in.Action,
		Method:        in.Method,
		GuardName:     in.GuardName,
		Reason:        in.Reason,
		Valid:         in.Valid,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return entry, nil
}

func (s *AccessLogStore) Query(_ context.Context, f store.LogFilter) ([]types.AccessLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Walk newest-insertion-first so the stable sort below breaks
	// equal-timestamp ties by recency.
	out := make([]types.AccessLogEntry, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		if matches(s.entries[i], f) {
			out = append(out, s.entries[i])
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (s *AccessLogStore) ListFacilities(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	for _, e := range s.entries {
		if e.Facility != "" {
			seen[e.Facility] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Strings(out)
	return out, nil
}

func (s *AccessLogStore) Purge(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}

// Len reports the number of stored entries. Test-only helper.
func (s *AccessLogStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func matches(e types.AccessLogEntry, f store.LogFilter) bool {
	if f.Text != "" {
		q := strings.ToLower(f.Text)
		if !strings.Contains(strings.ToLower(e.RequestNumber), q) &&
			!strings.Contains(strings.ToLower(e.RequesterName), q) &&
			!strings.Contains(strings.ToLower(e.Gate), q) &&
			!strings.Contains(strings.ToLower(e.GuardName), q) {
			return false
		}
	}
	if f.Facility != "" && e.Facility != f.Facility {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.From != nil && e.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && e.Timestamp.After(*f.To) {
		return false
	}
	return true
}
