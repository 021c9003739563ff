package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/clearpath-sec/gatehouse/internal/gatehouse/approval"
	"github.com/clearpath-sec/gatehouse/internal/gatehouse/pass"
	"github.com/clearpath-sec/gatehouse/internal/gatehouse/store"
	"github.com/clearpath-sec/gatehouse/internal/gatehouse/types"
	"github.com/clearpath-sec/gatehouse/internal/gatehouse/verify"
	"github.com/clearpath-sec/gatehouse/internal/metrics"
)

var (
	ErrUnknownTerminal = errors.New("terminal is not provisioned")
	ErrNoVerifiedClaim = errors.New("no verified claim to decide on")
	ErrInvalidAction   = errors.New("action must be ADMIT or DENY")
	ErrEmptyLookup     = errors.New("request_number or request_id is required")
)

// SessionState is the checkpoint session's position in the
// scan → verify → decide → log cycle.
type SessionState string

const (
	StateIdle             SessionState = "idle"
	StateClaimPresented   SessionState = "claim_presented"
	StateVerified         SessionState = "verified"
	StateDecisionRecorded SessionState = "decision_recorded"
)

// session is the per-terminal state machine. ClaimPresented and
// DecisionRecorded are transient: verification runs as soon as a claim is
// presented and a recorded decision returns the session to Idle, so Idle
// and Verified are the two resting states.
type session struct {
	mu        sync.Mutex
	state     SessionState
	raw       string // payload that produced the current claim, for dedup
	claim     *types.AccessClaim
	verdict   *types.Verdict
	method    types.LogMethod
	approvals *types.ApprovalSummary
	lastEntry *types.AccessLogEntry
}

// clearClaim drops the in-flight claim but keeps lastEntry for display.
func (s *session) clearClaim() {
	s.state = StateIdle
	s.raw = ""
	s.claim = nil
	s.verdict = nil
	s.method = ""
	s.approvals = nil
}

// CheckpointConfig tunes the checkpoint service.
type CheckpointConfig struct {
	// RequiredApprovals is the sign-off count a chain needs to show as
	// complete in the operator display.
	RequiredApprovals int

	// Now overrides the clock; nil means time.Now. Used by tests.
	Now func() time.Time
}

// CheckpointService orchestrates decode, verification, operator decision,
// and the audit write for every provisioned terminal. One session exists
// per terminal and each session processes one cycle at a time.
type CheckpointService struct {
	registry  *TerminalRegistry
	requests  store.RequestStore
	inspector *approval.Inspector
	audit     *AuditLog
	metrics   *metrics.Metrics
	required  int
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func NewCheckpointService(
	reg *TerminalRegistry,
	requests store.RequestStore,
	inspector *approval.Inspector,
	audit *AuditLog,
	m *metrics.Metrics,
	cfg CheckpointConfig,
) *CheckpointService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &CheckpointService{
		registry:  reg,
		requests:  requests,
		inspector: inspector,
		audit:     audit,
		metrics:   m,
		required:  cfg.RequiredApprovals,
		now:       now,
		sessions:  make(map[string]*session),
	}
}

// Present feeds a raw scan payload into the terminal's session. On a
// successful decode the claim is verified immediately against the
// terminal's facility and the session comes to rest in Verified. A decode
// failure leaves the session exactly as it was. Re-delivery of the payload
// that produced the current claim is deduplicated: the scanner callback can
// fire more than once per physical scan.
func (s *CheckpointService) Present(ctx context.Context, terminalID, raw string) (types.SessionView, error) {
	term, sess, err := s.resolve(ctx, terminalID)
	if err != nil {
		return types.SessionView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.state != StateIdle && sess.raw != "" && sess.raw == raw {
		return s.viewLocked(terminalID, sess), nil
	}

	claim, err := pass.Decode(raw)
	if err != nil {
		s.metrics.IncDecodeFailure()
		return types.SessionView{}, err
	}

	sess.state = StateClaimPresented
	sess.raw = raw
	sess.claim = &claim
	sess.method = types.MethodScan
	sess.lastEntry = nil

	verdict := verify.VerifyClaim(claim, s.now(), term.Facility)
	sess.verdict = &verdict
	sess.state = StateVerified
	s.metrics.IncVerdict(verdict.OK, "scan")

	sess.approvals = s.summarize(ctx, claim.RequestID)

	return s.viewLocked(terminalID, sess), nil
}

// Lookup verifies a request record fetched by number or id — the manual
// path when a pass cannot be scanned. The session comes to rest in Verified
// just like a scan; the recorded method will be MANUAL.
func (s *CheckpointService) Lookup(ctx context.Context, terminalID string, req types.LookupRequest) (types.SessionView, error) {
	term, sess, err := s.resolve(ctx, terminalID)
	if err != nil {
		return types.SessionView{}, err
	}

	var record types.Request
	switch {
	case strings.TrimSpace(req.RequestNumber) != "":
		record, err = s.requests.GetByNumber(ctx, strings.TrimSpace(req.RequestNumber))
	case strings.TrimSpace(req.RequestID) != "":
		record, err = s.requests.GetByID(ctx, strings.TrimSpace(req.RequestID))
	default:
		return types.SessionView{}, ErrEmptyLookup
	}
	if err != nil {
		return types.SessionView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	claim := claimFromRequest(record)
	sess.state = StateClaimPresented
	sess.raw = ""
	sess.claim = &claim
	sess.method = types.MethodManual
	sess.lastEntry = nil

	verdict := verify.VerifyRequest(record, s.now(), term.Facility)
	sess.verdict = &verdict
	sess.state = StateVerified
	s.metrics.IncVerdict(verdict.OK, "lookup")

	sess.approvals = s.summarize(ctx, record.ID)

	return s.viewLocked(terminalID, sess), nil
}

// Decide records the operator's call. The verdict recommends but does not
// bind: an operator may admit against a failing verdict (with their own
// reason) or deny a passing one. Exactly one audit entry is appended per
// recorded decision; if the append fails the session stays Verified so the
// operator can retry without rescanning.
func (s *CheckpointService) Decide(ctx context.Context, terminalID string, req types.DecisionRequest) (types.DecisionResponse, error) {
	term, sess, err := s.resolve(ctx, terminalID)
	if err != nil {
		return types.DecisionResponse{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.state != StateVerified || sess.claim == nil || sess.verdict == nil {
		return types.DecisionResponse{}, ErrNoVerifiedClaim
	}
	if req.Action != types.ActionAdmit && req.Action != types.ActionDeny {
		return types.DecisionResponse{}, ErrInvalidAction
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = strings.Join(sess.verdict.Reasons, "; ")
	}

	facility := term.Facility
	if sess.claim.Access != nil && sess.claim.Access.Facility != "" {
		facility = sess.claim.Access.Facility
	}

	entry, err := s.audit.Append(ctx, store.AccessLogInput{
		RequestID:     sess.claim.RequestID,
		RequestNumber: sess.claim.RequestNumber,
		RequesterName: sess.claim.RequesterName,
		Facility:      facility,
		Gate:          term.Gate,
		Action:        req.Action,
		Method:        sess.method,
		GuardName:     strings.TrimSpace(req.GuardName),
		Reason:        reason,
		Valid:         sess.verdict.OK,
	})
	if err != nil {
		// Session stays Verified; the decision is not silently lost and
		// retry is an explicit operator action.
		return types.DecisionResponse{}, err
	}

	sess.state = StateDecisionRecorded
	sess.lastEntry = &entry
	sess.clearClaim()

	return types.DecisionResponse{
		OK:         true,
		Entry:      entry,
		ServerTime: s.now().UTC().Format(time.RFC3339Nano),
	}, nil
}

// Reset returns the terminal's session to Idle from any state without
// touching the audit log.
func (s *CheckpointService) Reset(ctx context.Context, terminalID string) (types.SessionView, error) {
	_, sess, err := s.resolve(ctx, terminalID)
	if err != nil {
		return types.SessionView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.clearClaim()
	sess.lastEntry = nil
	return s.viewLocked(terminalID, sess), nil
}

// View returns a snapshot of the terminal's session.
func (s *CheckpointService) View(ctx context.Context, terminalID string) (types.SessionView, error) {
	_, sess, err := s.resolve(ctx, terminalID)
	if err != nil {
		return types.SessionView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.viewLocked(terminalID, sess), nil
}

func (s *CheckpointService) resolve(ctx context.Context, terminalID string) (store.TerminalRecord, *session, error) {
	term, err := s.registry.Get(ctx, terminalID)
	if err != nil {
		return store.TerminalRecord{}, nil, err
	}
	if !term.Known {
		return store.TerminalRecord{}, nil, ErrUnknownTerminal
	}
	_ = s.registry.NoteSeen(ctx, terminalID, true)

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[terminalID]
	if !ok {
		sess = &session{state: StateIdle}
		s.sessions[terminalID] = sess
	}
	return term, sess, nil
}

// summarize fetches the approval chain for display. Failures degrade to no
// summary — the chain is informational and never gates the verdict.
func (s *CheckpointService) summarize(ctx context.Context, requestID string) *types.ApprovalSummary {
	if requestID == "" || s.inspector == nil {
		return nil
	}
	sum, err := s.inspector.Summarize(ctx, requestID, s.required)
	if err != nil {
		return nil
	}
	return &sum
}

func (s *CheckpointService) viewLocked(terminalID string, sess *session) types.SessionView {
	return types.SessionView{
		TerminalID: terminalID,
		State:      string(sess.state),
		Claim:      sess.claim,
		Verdict:    sess.verdict,
		Approvals:  sess.approvals,
		LastEntry:  sess.lastEntry,
		ServerTime: s.now().UTC().Format(time.RFC3339Nano),
	}
}

func claimFromRequest(r types.Request) types.AccessClaim {
	c := types.AccessClaim{
		RequestID:     r.ID,
		RequestNumber: r.RequestNumber,
		RequesterName: r.RequesterName,
	}
	if r.Form.FacilityAccess != "" || r.Form.AccessType != "" ||
		r.Form.AccessLevel != "" || r.Form.StartDate != nil || r.Form.EndDate != nil {
		c.Access = &types.AccessWindow{
			Type:     r.Form.AccessType,
			Facility: r.Form.FacilityAccess,
			Level:    r.Form.AccessLevel,
			Start:    r.Form.StartDate,
			End:      r.Form.EndDate,
		}
	}
	return c
}
