package types

import "time"

// RequestStatus mirrors the request subsystem's lifecycle states. Gatehouse
// only ever reads these; status transitions happen elsewhere.
type RequestStatus string

const (
	StatusDraft     RequestStatus = "draft"
	StatusPending   RequestStatus = "pending"
	StatusInReview  RequestStatus = "in_review"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
	StatusCancelled RequestStatus = "cancelled"
	StatusWithdrawn RequestStatus = "withdrawn"
)

// Request is a read-only view of an access request owned by the external
// request subsystem.
type Request struct {
	ID             string        `json:"id"`
	RequestNumber  string        `json:"requestNumber"`
	RequesterName  string        `json:"requesterName,omitempty"`
	RequesterEmail string        `json:"requesterEmail,omitempty"`
	Status         RequestStatus `json:"status"`
	Form           RequestForm   `json:"formData"`
	TemplateID     string        `json:"templateId,omitempty"`
}

// RequestForm carries the fields of the request form that matter at a
// checkpoint. Nil dates mean open-ended validity.
type RequestForm struct {
	FacilityAccess string     `json:"facilityAccess,omitempty"`
	StartDate      *time.Time `json:"startDate,omitempty"`
	EndDate        *time.Time `json:"endDate,omitempty"`
	AccessType     string     `json:"accessType,omitempty"`
	AccessLevel    string     `json:"accessLevel,omitempty"`
	SystemAccess   []string   `json:"systemAccess,omitempty"`
	Duration       string     `json:"duration,omitempty"`
}

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// ApprovalChainEntry is one sign-off slot in a request's approval chain,
// read-only from gatehouse's point of view.
type ApprovalChainEntry struct {
	RequestID    string         `json:"requestId"`
	ApproverName string         `json:"approverName"`
	Order        int            `json:"approvalOrder"`
	Status       ApprovalStatus `json:"status"`
	ActionDate   *time.Time     `json:"actionDate,omitempty"`
	SignatureRef string         `json:"signatureRef,omitempty"`
}
