package host

import (
	"encoding/json"
	"fmt"

	"kudubot/internal/domain"
)

// legacyApplicableMode is what older services write instead of is_applicable.
const legacyApplicableMode = "is_applicable"

// rawResponse accepts both the canonical response documents and the legacy
// forms, e.g. {"mode":"is_applicable","applicable":true}.
type rawResponse struct {
	Mode         string `json:"mode"`
	IsApplicable *bool  `json:"is_applicable"`
	Applicable   *bool  `json:"applicable"`
}

func parseApplicability(data []byte) (bool, error) {
	var r rawResponse
	if err := json.Unmarshal(data, &r); err != nil {
		return false, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	switch {
	case r.IsApplicable != nil:
		return *r.IsApplicable, nil
	case r.Mode == legacyApplicableMode && r.Applicable != nil:
		return *r.Applicable, nil
	default:
		return false, fmt.Errorf("%w: no applicability verdict", ErrBadResponse)
	}
}

// parseHandle reports whether the service asked for its reply to be sent.
func parseHandle(data []byte) (bool, error) {
	var r rawResponse
	if err := json.Unmarshal(data, &r); err != nil {
		return false, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	switch r.Mode {
	case domain.ReplyMode:
		return true, nil
	case domain.NoReplyMode:
		return false, nil
	default:
		return false, fmt.Errorf("%w: unknown mode %q", ErrBadResponse, r.Mode)
	}
}
