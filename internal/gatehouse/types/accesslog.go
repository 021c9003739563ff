package types

import "time"

type LogAction string

const (
	ActionAdmit LogAction = "ADMIT"
	ActionDeny  LogAction = "DENY"
)

type LogMethod string

const (
	MethodScan   LogMethod = "SCAN"
	MethodManual LogMethod = "MANUAL"
)

// AccessLogEntry is one immutable record of an admit/deny decision.
// ID and Timestamp are assigned by the log store on append; entries are
// never mutated afterwards and are removed only by a whole-store purge.
type AccessLogEntry struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	RequestID     string    `json:"requestId,omitempty"`
	RequestNumber string    `json:"requestNumber"`
	RequesterName string    `json:"requesterName,omitempty"`
	Facility      string    `json:"facility,omitempty"`
	Gate          string    `json:"gate,omitempty"`
	Action        LogAction `json:"action"`
	Method        LogMethod `json:"method"`
	GuardName     string    `json:"guardName,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	Valid         bool      `json:"valid"`
}
