// Package pass turns raw scanned text into a typed AccessClaim. It is pure
// parsing: no network, no storage, no clock.
package pass

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/clearpath-sec/gatehouse/internal/gatehouse/types"
)

// ErrInvalidPayload is returned when the scanned text is neither a direct
// claim payload nor a URI with an embedded one.
var ErrInvalidPayload = errors.New("scan payload is not a recognizable pass")

// claimParam is the query parameter carrying the embedded claim when a pass
// is presented as a URL (e.g. printed QR linking to the verify page).
const claimParam = "data"

// A DecodeError describes why a scan payload could not be decoded. It always
// wraps ErrInvalidPayload so callers can classify with errors.Is.
type DecodeError struct {
	Detail string
}

func (e *DecodeError) Error() string {
	if e.Detail == "" {
		return ErrInvalidPayload.Error()
	}
	return ErrInvalidPayload.Error() + ": " + e.Detail
}

func (e *DecodeError) Unwrap() error { return ErrInvalidPayload }

// Decode parses raw scanned text into an AccessClaim. It first tries the
// canonical JSON form, then a URI with the claim embedded in the "data"
// query parameter. First success wins. Optional fields missing from the
// payload stay absent on the claim.
func Decode(raw string) (types.AccessClaim, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return types.AccessClaim{}, &DecodeError{Detail: "empty payload"}
	}

	if c, err := decodePayload(raw); err == nil {
		return c, nil
	}

	if c, ok := decodeURI(raw); ok {
		return c, nil
	}

	return types.AccessClaim{}, &DecodeError{Detail: "not direct JSON and no embedded claim in URI"}
}

// Encode renders a claim in its canonical serialized form, the same shape
// Decode accepts on the direct path.
func Encode(c types.AccessClaim) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// claimPayload is the loose wire shape. Instants arrive as strings so we can
// accept both full RFC3339 stamps and bare dates.
type claimPayload struct {
	RequestID     string         `json:"requestId"`
	RequestNumber string         `json:"requestNumber"`
	RequesterName string         `json:"requesterName"`
	Title         string         `json:"title"`
	Access        *accessPayload `json:"access"`
	VerifyPath    string         `json:"verifyPath"`
}

type accessPayload struct {
	Type     string `json:"type"`
	Facility string `json:"facility"`
	Level    string `json:"level"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

func decodePayload(raw string) (types.AccessClaim, error) {
	// Reject anything that is not a JSON object before unmarshalling, so
	// bare strings/numbers don't decode into an empty claim.
	if !strings.HasPrefix(raw, "{") {
		return types.AccessClaim{}, &DecodeError{Detail: "not a JSON object"}
	}

	var p claimPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return types.AccessClaim{}, &DecodeError{Detail: err.Error()}
	}

	c := types.AccessClaim{
		RequestID:     strings.TrimSpace(p.RequestID),
		RequestNumber: strings.TrimSpace(p.RequestNumber),
		RequesterName: strings.TrimSpace(p.RequesterName),
		Title:         strings.TrimSpace(p.Title),
		VerifyPath:    strings.TrimSpace(p.VerifyPath),
	}

	if p.Access != nil {
		c.Access = &types.AccessWindow{
			Type:     strings.TrimSpace(p.Access.Type),
			Facility: strings.TrimSpace(p.Access.Facility),
			Level:    strings.TrimSpace(p.Access.Level),
			Start:    parseInstant(p.Access.Start),
			End:      parseInstant(p.Access.End),
		}
	}

	return c, nil
}

func decodeURI(raw string) (types.AccessClaim, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return types.AccessClaim{}, false
	}

	embedded := u.Query().Get(claimParam)
	if embedded == "" {
		return types.AccessClaim{}, false
	}

	c, err := decodePayload(strings.TrimSpace(embedded))
	if err != nil {
		return types.AccessClaim{}, false
	}
	return c, true
}

// parseInstant parses an optional validity instant. Accepts RFC3339,
// RFC3339Nano, and bare dates; returns nil for empty or unparseable input
// so an unreadable instant degrades to open-ended validity rather than a
// decode failure.
func parseInstant(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			u := t.UTC()
			return &u
		}
	}
	return nil
}
