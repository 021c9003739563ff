package types

import "time"

// AccessClaim is the decoded form of a presented pass. It is produced once
// per scan by the pass decoder and discarded after a decision. Optional
// fields stay nil/empty when the payload omits them.
type AccessClaim struct {
	RequestID     string        `json:"requestId,omitempty"`
	RequestNumber string        `json:"requestNumber,omitempty"`
	RequesterName string        `json:"requesterName,omitempty"`
	Title         string        `json:"title,omitempty"`
	Access        *AccessWindow `json:"access,omitempty"`
	VerifyPath    string        `json:"verifyPath,omitempty"`
}

// AccessWindow scopes a claim to a facility, level, and validity interval.
// A nil Start or End means open-ended on that side.
type AccessWindow struct {
	Type     string     `json:"type,omitempty"`
	Facility string     `json:"facility,omitempty"`
	Level    string     `json:"level,omitempty"`
	Start    *time.Time `json:"start,omitempty"`
	End      *time.Time `json:"end,omitempty"`
}
