package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clearpath-sec/gatehouse/internal/gatehouse/approval"
	"github.com/clearpath-sec/gatehouse/internal/gatehouse/pass"
	"github.com/clearpath-sec/gatehouse/internal/gatehouse/service"
	"github.com/clearpath-sec/gatehouse/internal/gatehouse/store"
	"github.com/clearpath-sec/gatehouse/internal/gatehouse/store/memory"
	"github.com/clearpath-sec/gatehouse/internal/gatehouse/types"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc  *service.CheckpointService
	logs *memory.AccessLogStore
}

// newFixture wires a checkpoint service over in-memory stores with one
// provisioned terminal at facility HQ, gate North.
func newFixture(t *testing.T, requests []types.Request, chain []types.ApprovalChainEntry) fixture {
	t.Helper()

	terminals := memory.NewTerminalStore([]store.TerminalRecord{
		{ID: "term-1", DisplayName: "North Gate", Facility: "HQ", Gate: "North"},
	})
	logs := memory.NewAccessLogStore()

	svc := service.NewCheckpointService(
		service.NewTerminalRegistry(terminals),
		memory.NewRequestStore(requests),
		approval.NewInspector(memory.NewApprovalStore(chain)),
		service.NewAuditLog(logs, nil),
		nil,
		service.CheckpointConfig{
			RequiredApprovals: 2,
			Now:               func() time.Time { return testNow },
		},
	)
	return fixture{svc: svc, logs: logs}
}

func validScan(number string) string {
	return `{"requestId":"r-1","requestNumber":"` + number + `","requesterName":"Ada Lovelace","access":{"facility":"HQ"}}`
}

// ── Scan path ────────────────────────────────────────────────────────────────

func TestPresent_ValidScan_RestsVerified(t *testing.T) {
	f := newFixture(t, nil, nil)

	view, err := f.svc.Present(context.Background(), "term-1", validScan("REQ-1"))
	if err != nil {
		t.Fatalf("Present: %v", err)
	}

	if view.State != string(service.StateVerified) {
		t.Errorf("expected state=verified, got %q", view.State)
	}
	if view.Claim == nil || view.Claim.RequestNumber != "REQ-1" {
		t.Errorf("expected claim REQ-1, got %+v", view.Claim)
	}
	if view.Verdict == nil || !view.Verdict.OK {
		t.Errorf("expected ok verdict, got %+v", view.Verdict)
	}
}

func TestPresent_FacilityMismatchVerdict(t *testing.T) {
	f := newFixture(t, nil, nil)

	raw := `{"requestNumber":"REQ-1","access":{"facility":"Lab B"}}`
	view, err := f.svc.Present(context.Background(), "term-1", raw)
	if err != nil {
		t.Fatalf("Present: %v", err)
	}

	if view.Verdict.OK {
		t.Error("expected ok=false for facility mismatch at HQ terminal")
	}
}

func TestPresent_DecodeFailure_SessionUnchanged(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	_, err := f.svc.Present(ctx, "term-1", "garbage")
	if !errors.Is(err, pass.ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}

	view, err := f.svc.View(ctx, "term-1")
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if view.State != string(service.StateIdle) {
		t.Errorf("expected session to stay idle after failed decode, got %q", view.State)
	}
	if f.logs.Len() != 0 {
		t.Errorf("expected no audit entries, got %d", f.logs.Len())
	}
}

func TestPresent_DuplicatePayload_Deduplicated(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	raw := validScan("REQ-1")

	first, err := f.svc.Present(ctx, "term-1", raw)
	if err != nil {
		t.Fatalf("first Present: %v", err)
	}

	// The scanner callback re-delivers the same payload; no new
	// ClaimPresented transition may happen.
	second, err := f.svc.Present(ctx, "term-1", raw)
	if err != nil {
		t.Fatalf("second Present: %v", err)
	}

	if second.State != string(service.StateVerified) {
		t.Errorf("expected state=verified, got %q", second.State)
	}
	if !second.Verdict.EvaluatedAt.Equal(first.Verdict.EvaluatedAt) {
		t.Error("duplicate payload re-ran verification")
	}
}

func TestPresent_NewPayloadReplacesClaim(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	if _, err := f.svc.Present(ctx, "term-1", validScan("REQ-1")); err != nil {
		t.Fatalf("Present: %v", err)
	}
	view, err := f.svc.Present(ctx, "term-1", validScan("REQ-2"))
	if err != nil {
		t.Fatalf("Present: %v", err)
	}
	if view.Claim.RequestNumber != "REQ-2" {
		t.Errorf("expected new claim REQ-2, got %q", view.Claim.RequestNumber)
	}
}

func TestPresent_UnknownTerminal_Rejected(t *testing.T) {
	f := newFixture(t, nil, nil)

	_, err := f.svc.Present(context.Background(), "rogue", validScan("REQ-1"))
	if !errors.Is(err, service.ErrUnknownTerminal) {
		t.Fatalf("expected ErrUnknownTerminal, got %v", err)
	}
}

// ── Lookup path ──────────────────────────────────────────────────────────────

func TestLookup_PendingRequest_FailsVerdict(t *testing.T) {
	f := newFixture(t, []types.Request{
		{ID: "r-1", RequestNumber: "REQ-1", RequesterName: "Ada Lovelace", Status: types.StatusPending},
	}, nil)

	view, err := f.svc.Lookup(context.Background(), "term-1", types.LookupRequest{RequestNumber: "REQ-1"})
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	if view.Verdict.OK {
		t.Error("expected ok=false for pending request")
	}
	found := false
	for _, r := range view.Verdict.Reasons {
		if r == "Request is not approved (status: pending)." {
			found = true
		}
	}
	if !found {
		t.Errorf("expected status reason, got %v", view.Verdict.Reasons)
	}
}

func TestLookup_AttachesApprovalSummary(t *testing.T) {
	f := newFixture(t,
		[]types.Request{{ID: "r-1", RequestNumber: "REQ-1", Status: types.StatusApproved}},
		[]types.ApprovalChainEntry{
			{RequestID: "r-1", ApproverName: "Alice", Order: 1, Status: types.ApprovalApproved},
			{RequestID: "r-1", ApproverName: "Bob", Order: 2, Status: types.ApprovalApproved},
		},
	)

	view, err := f.svc.Lookup(context.Background(), "term-1", types.LookupRequest{RequestID: "r-1"})
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	if view.Approvals == nil {
		t.Fatal("expected approval summary")
	}
	if !view.Approvals.Complete {
		t.Error("expected chain complete with 2/2 approved")
	}
	if len(view.Approvals.Entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(view.Approvals.Entries))
	}
}

func TestLookup_UnknownRequest(t *testing.T) {
	f := newFixture(t, nil, nil)

	_, err := f.svc.Lookup(context.Background(), "term-1", types.LookupRequest{RequestNumber: "REQ-404"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLookup_EmptyRequest(t *testing.T) {
	f := newFixture(t, nil, nil)

	_, err := f.svc.Lookup(context.Background(), "term-1", types.LookupRequest{})
	if !errors.Is(err, service.ErrEmptyLookup) {
		t.Fatalf("expected ErrEmptyLookup, got %v", err)
	}
}

// ── Decisions ────────────────────────────────────────────────────────────────

func TestDecide_Admit_AppendsAndReturnsToIdle(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	if _, err := f.svc.Present(ctx, "term-1", validScan("REQ-1")); err != nil {
		t.Fatalf("Present: %v", err)
	}

	resp, err := f.svc.Decide(ctx, "term-1", types.DecisionRequest{
		Action:    types.ActionAdmit,
		GuardName: "Officer Kim",
	})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}

	if resp.Entry.Action != types.ActionAdmit {
		t.Errorf("expected action=ADMIT, got %q", resp.Entry.Action)
	}
	if resp.Entry.Method != types.MethodScan {
		t.Errorf("expected method=SCAN, got %q", resp.Entry.Method)
	}
	if resp.Entry.GuardName != "Officer Kim" {
		t.Errorf("expected guardName=Officer Kim, got %q", resp.Entry.GuardName)
	}
	if !resp.Entry.Valid {
		t.Error("expected valid=true for ok verdict")
	}
	if resp.Entry.Gate != "North" {
		t.Errorf("expected gate from terminal record, got %q", resp.Entry.Gate)
	}
	if f.logs.Len() != 1 {
		t.Fatalf("expected exactly 1 audit entry, got %d", f.logs.Len())
	}

	view, err := f.svc.View(ctx, "term-1")
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if view.State != string(service.StateIdle) {
		t.Errorf("expected session back to idle, got %q", view.State)
	}
	if view.LastEntry == nil || view.LastEntry.ID != resp.Entry.ID {
		t.Error("expected last entry retained for display")
	}
}

func TestDecide_OverrideAdmitOnFailingVerdict(t *testing.T) {
	// The verdict recommends deny but the operator is not hard-blocked
	// from admitting; their reason replaces the verdict's.
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	raw := `{"requestNumber":"REQ-1","access":{"end":"2024-01-01"}}`
	view, err := f.svc.Present(ctx, "term-1", raw)
	if err != nil {
		t.Fatalf("Present: %v", err)
	}
	if view.Verdict.OK {
		t.Fatal("expected failing verdict for expired pass")
	}

	resp, err := f.svc.Decide(ctx, "term-1", types.DecisionRequest{
		Action: types.ActionAdmit,
		Reason: "Escorted by site manager",
	})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}

	if resp.Entry.Valid {
		t.Error("expected valid=false recorded from failing verdict")
	}
	if resp.Entry.Reason != "Escorted by site manager" {
		t.Errorf("expected override reason, got %q", resp.Entry.Reason)
	}
}

func TestDecide_DefaultReasonJoinsVerdictReasons(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	raw := `{"access":{"start":"2025-01-01","end":"2024-01-01"}}`
	if _, err := f.svc.Present(ctx, "term-1", raw); err != nil {
		t.Fatalf("Present: %v", err)
	}

	resp, err := f.svc.Decide(ctx, "term-1", types.DecisionRequest{Action: types.ActionDeny})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}

	want := "Missing request number.; Pass not active yet.; Pass has expired."
	if resp.Entry.Reason != want {
		t.Errorf("expected joined reasons %q, got %q", want, resp.Entry.Reason)
	}
}

func TestDecide_WithoutVerifiedClaim(t *testing.T) {
	f := newFixture(t, nil, nil)

	_, err := f.svc.Decide(context.Background(), "term-1", types.DecisionRequest{Action: types.ActionAdmit})
	if !errors.Is(err, service.ErrNoVerifiedClaim) {
		t.Fatalf("expected ErrNoVerifiedClaim, got %v", err)
	}
	if f.logs.Len() != 0 {
		t.Errorf("expected no audit entries, got %d", f.logs.Len())
	}
}

func TestDecide_InvalidAction(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	if _, err := f.svc.Present(ctx, "term-1", validScan("REQ-1")); err != nil {
		t.Fatalf("Present: %v", err)
	}

	_, err := f.svc.Decide(ctx, "term-1", types.DecisionRequest{Action: "MAYBE"})
	if !errors.Is(err, service.ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
	if f.logs.Len() != 0 {
		t.Errorf("expected no audit entries, got %d", f.logs.Len())
	}
}

func TestDecide_SecondDecisionNeedsNewClaim(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	if _, err := f.svc.Present(ctx, "term-1", validScan("REQ-1")); err != nil {
		t.Fatalf("Present: %v", err)
	}
	if _, err := f.svc.Decide(ctx, "term-1", types.DecisionRequest{Action: types.ActionAdmit}); err != nil {
		t.Fatalf("Decide: %v", err)
	}

	_, err := f.svc.Decide(ctx, "term-1", types.DecisionRequest{Action: types.ActionAdmit})
	if !errors.Is(err, service.ErrNoVerifiedClaim) {
		t.Fatalf("expected ErrNoVerifiedClaim after cycle completed, got %v", err)
	}
	if f.logs.Len() != 1 {
		t.Errorf("expected exactly 1 entry, got %d", f.logs.Len())
	}
}

// ── Reset ────────────────────────────────────────────────────────────────────

func TestReset_FromVerified_NeverAppends(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	if _, err := f.svc.Present(ctx, "term-1", validScan("REQ-1")); err != nil {
		t.Fatalf("Present: %v", err)
	}

	before := f.logs.Len()
	view, err := f.svc.Reset(ctx, "term-1")
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}

	if view.State != string(service.StateIdle) {
		t.Errorf("expected idle after reset, got %q", view.State)
	}
	if f.logs.Len() != before {
		t.Errorf("reset changed the audit log: before=%d after=%d", before, f.logs.Len())
	}
}

func TestReset_FromIdle_Idempotent(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		view, err := f.svc.Reset(ctx, "term-1")
		if err != nil {
			t.Fatalf("Reset %d: %v", i, err)
		}
		if view.State != string(service.StateIdle) {
			t.Errorf("expected idle, got %q", view.State)
		}
	}
	if f.logs.Len() != 0 {
		t.Errorf("expected no audit entries, got %d", f.logs.Len())
	}
}

// ── Append failure ───────────────────────────────────────────────────────────

type failingLogStore struct {
	failAppend bool
	inner      *memory.AccessLogStore
}

func (f *failingLogStore) Append(ctx context.Context, in store.AccessLogInput) (types.AccessLogEntry, error) {
	if f.failAppend {
		return types.AccessLogEntry{}, errors.New("disk full")
	}
	return f.inner.Append(ctx, in)
}

func (f *failingLogStore) Query(ctx context.Context, flt store.LogFilter) ([]types.AccessLogEntry, error) {
	return f.inner.Query(ctx, flt)
}

func (f *failingLogStore) ListFacilities(ctx context.Context) ([]string, error) {
	return f.inner.ListFacilities(ctx)
}

func (f *failingLogStore) Purge(ctx context.Context) error {
	return f.inner.Purge(ctx)
}

func TestDecide_AppendFailure_StaysVerifiedAndRetries(t *testing.T) {
	terminals := memory.NewTerminalStore([]store.TerminalRecord{
		{ID: "term-1", Facility: "HQ", Gate: "North"},
	})
	flaky := &failingLogStore{failAppend: true, inner: memory.NewAccessLogStore()}

	svc := service.NewCheckpointService(
		service.NewTerminalRegistry(terminals),
		memory.NewRequestStore(nil),
		approval.NewInspector(memory.NewApprovalStore(nil)),
		service.NewAuditLog(flaky, nil),
		nil,
		service.CheckpointConfig{Now: func() time.Time { return testNow }},
	)
	ctx := context.Background()

	if _, err := svc.Present(ctx, "term-1", validScan("REQ-1")); err != nil {
		t.Fatalf("Present: %v", err)
	}

	_, err := svc.Decide(ctx, "term-1", types.DecisionRequest{Action: types.ActionAdmit})
	if err == nil {
		t.Fatal("expected append failure")
	}
	var pe *store.PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *store.PersistenceError, got %T: %v", err, err)
	}

	view, err := svc.View(ctx, "term-1")
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if view.State != string(service.StateVerified) {
		t.Errorf("expected session to stay verified after failed append, got %q", view.State)
	}

	// Operator retries after the fault clears — no rescan needed.
	flaky.failAppend = false
	resp, err := svc.Decide(ctx, "term-1", types.DecisionRequest{Action: types.ActionAdmit})
	if err != nil {
		t.Fatalf("retry Decide: %v", err)
	}
	if resp.Entry.RequestNumber != "REQ-1" {
		t.Errorf("expected retried entry for REQ-1, got %q", resp.Entry.RequestNumber)
	}
	if flaky.inner.Len() != 1 {
		t.Errorf("expected exactly 1 entry after retry, got %d", flaky.inner.Len())
	}
}
