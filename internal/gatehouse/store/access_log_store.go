package store

import (
	"context"
	"time"

	"github.com/clearpath-sec/gatehouse/internal/gatehouse/types"
)

// AccessLogInput carries the caller-supplied fields of a new audit entry.
// ID and Timestamp are assigned by the store on append.
type AccessLogInput struct {
	RequestID     string
	RequestNumber string
	RequesterName string
	Facility      string
	Gate          string
	Action        types.LogAction
	Method        types.LogMethod
	GuardName     string
	Reason        string
	Valid         bool
}

// LogFilter selects audit entries. Text matches case-insensitively against
// request number, requester name, gate, or guard name (OR); the remaining
// filters are exact or inclusive-range and compose with AND. Zero values
// disable a filter.
type LogFilter struct {
	Text     string
	Facility string
	Action   types.LogAction
	From     *time.Time
	To       *time.Time
}

// AccessLogStore is the durable, append-only audit log. Append assigns a
// globally unique id and timestamp and makes exactly one new entry visible
// per successful call; entries are immutable and only Purge removes them.
type AccessLogStore interface {
	Append(ctx context.Context, in AccessLogInput) (types.AccessLogEntry, error)
	Query(ctx context.Context, f LogFilter) ([]types.AccessLogEntry, error)
	ListFacilities(ctx context.Context) ([]string, error)
	Purge(ctx context.Context) error
}
