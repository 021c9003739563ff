package verify_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/clearpath-sec/gatehouse/internal/gatehouse/types"
	"github.com/clearpath-sec/gatehouse/internal/gatehouse/verify"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func ts(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// ── Claim path ───────────────────────────────────────────────────────────────

func TestVerifyClaim_NoWindowNoFacility_OK(t *testing.T) {
	v := verify.VerifyClaim(types.AccessClaim{RequestNumber: "REQ-2"}, testNow, "")
	if !v.OK {
		t.Errorf("expected ok=true, reasons=%v", v.Reasons)
	}
	if len(v.Reasons) != 0 {
		t.Errorf("expected no reasons, got %v", v.Reasons)
	}
	if !v.EvaluatedAt.Equal(testNow) {
		t.Errorf("expected evaluatedAt=%v, got %v", testNow, v.EvaluatedAt)
	}
}

func TestVerifyClaim_Expired(t *testing.T) {
	c := types.AccessClaim{
		RequestNumber: "REQ-1",
		Access:        &types.AccessWindow{Start: ts(2024, 1, 1), End: ts(2024, 1, 2)},
	}
	v := verify.VerifyClaim(c, testNow, "")
	if v.OK {
		t.Error("expected ok=false for expired pass")
	}
	want := []string{verify.ReasonExpired}
	if !reflect.DeepEqual(v.Reasons, want) {
		t.Errorf("expected reasons=%v, got %v", want, v.Reasons)
	}
}

func TestVerifyClaim_NotActiveYet(t *testing.T) {
	c := types.AccessClaim{
		RequestNumber: "REQ-1",
		Access:        &types.AccessWindow{Start: ts(2025, 1, 1)},
	}
	v := verify.VerifyClaim(c, testNow, "")
	if v.OK {
		t.Error("expected ok=false for not-yet-active pass")
	}
	want := []string{verify.ReasonNotActiveYet}
	if !reflect.DeepEqual(v.Reasons, want) {
		t.Errorf("expected reasons=%v, got %v", want, v.Reasons)
	}
}

func TestVerifyClaim_AllFailuresCollected(t *testing.T) {
	// Start in the future AND end in the past: both reasons must be
	// present simultaneously — rules never short-circuit.
	c := types.AccessClaim{
		Access: &types.AccessWindow{
			Start:    ts(2025, 1, 1),
			End:      ts(2024, 1, 1),
			Facility: "HQ",
		},
	}
	v := verify.VerifyClaim(c, testNow, "Lab B")
	want := []string{
		verify.ReasonMissingNumber,
		verify.ReasonNotActiveYet,
		verify.ReasonExpired,
		verify.ReasonFacilityMismatch,
	}
	if !reflect.DeepEqual(v.Reasons, want) {
		t.Errorf("expected reasons=%v, got %v", want, v.Reasons)
	}
	if v.OK {
		t.Error("expected ok=false")
	}
}

// ── Facility scoping ─────────────────────────────────────────────────────────

func TestVerifyClaim_FacilityMismatchRules(t *testing.T) {
	cases := []struct {
		name             string
		claimFacility    string
		expectedFacility string
		wantMismatch     bool
	}{
		{"both set and different", "HQ", "Lab B", true},
		{"both set and equal", "HQ", "HQ", false},
		{"claim facility absent", "", "Lab B", false},
		{"expected facility absent", "HQ", "", false},
		{"both absent", "", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := types.AccessClaim{
				RequestNumber: "REQ-1",
				Access:        &types.AccessWindow{Facility: tc.claimFacility},
			}
			v := verify.VerifyClaim(c, testNow, tc.expectedFacility)

			gotMismatch := false
			for _, r := range v.Reasons {
				if r == verify.ReasonFacilityMismatch {
					gotMismatch = true
				}
			}
			if gotMismatch != tc.wantMismatch {
				t.Errorf("mismatch reason present=%v, want %v (reasons=%v)",
					gotMismatch, tc.wantMismatch, v.Reasons)
			}
		})
	}
}

func TestVerifyClaim_NoAccessWindow_NeverFacilityMismatch(t *testing.T) {
	v := verify.VerifyClaim(types.AccessClaim{RequestNumber: "REQ-1"}, testNow, "Lab B")
	if !v.OK {
		t.Errorf("expected ok=true when claim has no access window, got reasons=%v", v.Reasons)
	}
}

// ── Request path ─────────────────────────────────────────────────────────────

func TestVerifyRequest_PendingStatus(t *testing.T) {
	r := types.Request{
		ID:            "r-1",
		RequestNumber: "REQ-3",
		Status:        types.StatusPending,
	}
	v := verify.VerifyRequest(r, testNow, "")
	if v.OK {
		t.Error("expected ok=false for pending request")
	}
	found := false
	for _, reason := range v.Reasons {
		if reason == "Request is not approved (status: pending)." {
			found = true
		}
	}
	if !found {
		t.Errorf("expected status reason, got %v", v.Reasons)
	}
}

func TestVerifyRequest_ApprovedWithinWindow_OK(t *testing.T) {
	r := types.Request{
		ID:            "r-1",
		RequestNumber: "REQ-3",
		Status:        types.StatusApproved,
		Form: types.RequestForm{
			FacilityAccess: "HQ",
			StartDate:      ts(2024, 1, 1),
			EndDate:        ts(2024, 12, 31),
		},
	}
	v := verify.VerifyRequest(r, testNow, "HQ")
	if !v.OK {
		t.Errorf("expected ok=true, got reasons=%v", v.Reasons)
	}
}

func TestVerifyRequest_StatusRuleOnlyOnRequestPath(t *testing.T) {
	// A claim has no status; the status rule must not fire there.
	v := verify.VerifyClaim(types.AccessClaim{RequestNumber: "REQ-1"}, testNow, "")
	for _, r := range v.Reasons {
		if r == "Request is not approved (status: )." {
			t.Errorf("status rule fired on claim path: %v", v.Reasons)
		}
	}
}

// ── Purity ───────────────────────────────────────────────────────────────────

func TestEvaluate_Deterministic(t *testing.T) {
	c := types.AccessClaim{
		RequestNumber: "REQ-1",
		Access:        &types.AccessWindow{Start: ts(2025, 1, 1), Facility: "HQ"},
	}
	a := verify.VerifyClaim(c, testNow, "Lab B")
	b := verify.VerifyClaim(c, testNow, "Lab B")
	if !reflect.DeepEqual(a, b) {
		t.Errorf("identical inputs produced different verdicts:\n a=%+v\n b=%+v", a, b)
	}
}

func TestEvaluate_MissingNumber(t *testing.T) {
	v := verify.Evaluate(verify.Subject{}, testNow, "")
	want := []string{verify.ReasonMissingNumber}
	if !reflect.DeepEqual(v.Reasons, want) {
		t.Errorf("expected reasons=%v, got %v", want, v.Reasons)
	}
}
