package types

import "time"

// Verdict is the verification engine's admit/deny recommendation.
// Invariant: OK is true exactly when Reasons is empty.
type Verdict struct {
	OK          bool      `json:"ok"`
	Reasons     []string  `json:"reasons"`
	EvaluatedAt time.Time `json:"evaluatedAt"`
}

// NewVerdict derives OK from the collected reasons so the invariant cannot
// be constructed wrong.
func NewVerdict(reasons []string, evaluatedAt time.Time) Verdict {
	if reasons == nil {
		reasons = []string{}
	}
	return Verdict{
		OK:          len(reasons) == 0,
		Reasons:     reasons,
		EvaluatedAt: evaluatedAt,
	}
}
