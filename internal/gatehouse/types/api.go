package types

// Wire shapes for the checkpoint terminal API.

type ScanRequest struct {
	Raw string `json:"raw"`
}

type LookupRequest struct {
	RequestNumber string `json:"request_number,omitempty"`
	RequestID     string `json:"request_id,omitempty"`
}

type DecisionRequest struct {
	Action    LogAction `json:"action"`
	GuardName string    `json:"guard_name,omitempty"`
	// Reason overrides the verdict's joined reasons when set (operator
	// supplied justification, e.g. for an override admit).
	Reason string `json:"reason,omitempty"`
}

// ApprovalSummary is the inspector's read-only view of a request's chain,
// shown to the operator alongside the verdict.
type ApprovalSummary struct {
	Entries  []ApprovalChainEntry `json:"entries"`
	Complete bool                 `json:"complete"`
}

// SessionView is the externally visible state of a checkpoint session.
type SessionView struct {
	TerminalID string           `json:"terminal_id"`
	State      string           `json:"state"`
	Claim      *AccessClaim     `json:"claim,omitempty"`
	Verdict    *Verdict         `json:"verdict,omitempty"`
	Approvals  *ApprovalSummary `json:"approvals,omitempty"`
	LastEntry  *AccessLogEntry  `json:"last_entry,omitempty"`
	ServerTime string           `json:"server_time"`
}

type DecisionResponse struct {
	OK         bool           `json:"ok"`
	Entry      AccessLogEntry `json:"entry"`
	ServerTime string         `json:"server_time"`
}
