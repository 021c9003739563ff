// Package verify holds the checkpoint admission rules. Evaluation is a pure
// function of the subject, the clock reading, and the checkpoint's facility;
// it performs no I/O and keeps no state.
package verify

import (
	"fmt"
	"time"

	"github.com/clearpath-sec/gatehouse/internal/gatehouse/types"
)

// Human-readable rule failures, surfaced to the operator verbatim.
const (
	ReasonMissingNumber    = "Missing request number."
	ReasonNotActiveYet     = "Pass not active yet."
	ReasonExpired          = "Pass has expired."
	ReasonFacilityMismatch = "Facility mismatch for this checkpoint."
)

// Subject is the tagged input the rules run against. Claims and request
// records both normalize into it so the rule set exists exactly once.
// Status is nil on the claim path; the approval-status rule only applies
// to request records.
type Subject struct {
	Number   string
	Status   *types.RequestStatus
	Facility string
	Start    *time.Time
	End      *time.Time
}

// ClaimSubject normalizes a decoded pass into a rule subject.
func ClaimSubject(c types.AccessClaim) Subject {
	s := Subject{Number: c.RequestNumber}
	if c.Access != nil {
		s.Facility = c.Access.Facility
		s.Start = c.Access.Start
		s.End = c.Access.End
	}
	return s
}

// RequestSubject normalizes a request record into a rule subject.
func RequestSubject(r types.Request) Subject {
	status := r.Status
	return Subject{
		Number:   r.RequestNumber,
		Status:   &status,
		Facility: r.Form.FacilityAccess,
		Start:    r.Form.StartDate,
		End:      r.Form.EndDate,
	}
}

// Evaluate runs every rule and collects all failures; it never
// short-circuits, so the operator sees every reason at once. Absent start,
// end, or facility fields are never themselves failures: validity is
// open-ended by default. expectedFacility == "" disables facility scoping.
func Evaluate(s Subject, now time.Time, expectedFacility string) types.Verdict {
	var reasons []string

	if s.Number == "" {
		reasons = append(reasons, ReasonMissingNumber)
	}

	if s.Status != nil && *s.Status != types.StatusApproved {
		reasons = append(reasons, fmt.Sprintf("Request is not approved (status: %s).", *s.Status))
	}

	if s.Start != nil && s.Start.After(now) {
		reasons = append(reasons, ReasonNotActiveYet)
	}

	if s.End != nil && s.End.Before(now) {
		reasons = append(reasons, ReasonExpired)
	}

	if expectedFacility != "" && s.Facility != "" && s.Facility != expectedFacility {
		reasons = append(reasons, ReasonFacilityMismatch)
	}

	return types.NewVerdict(reasons, now)
}

// VerifyClaim evaluates a decoded pass.
func VerifyClaim(c types.AccessClaim, now time.Time, expectedFacility string) types.Verdict {
	return Evaluate(ClaimSubject(c), now, expectedFacility)
}

// VerifyRequest evaluates a request record looked up by an operator.
func VerifyRequest(r types.Request, now time.Time, expectedFacility string) types.Verdict {
	return Evaluate(RequestSubject(r), now, expectedFacility)
}
