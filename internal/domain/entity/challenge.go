package entity

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// OTPChallenge is the phase-1 result of a credential change or reset: an
// opaque continuation token that must be echoed back with the one-time code,
// plus the server-declared expiry used to seed the client countdown. Expiry
// is authoritative on the server; the countdown is UX only.
type OTPChallenge struct {
	ContinuationToken string
	ExpiresInSeconds  int
	SentTo            string
}

// Usable reports whether a verification attempt may be made with this challenge.
func (c *OTPChallenge) Usable() bool {
	return c != nil && c.ContinuationToken != ""
}

// NormalizeExpiry interprets the backend's expiresIn field, which has been
// observed as a raw second count, a numeric string, or a human label like
// "10 minutes". Numeric values pass through, a label containing "minute"
// maps to the fallback, and any other shape is an error rather than a guess.
func NormalizeExpiry(raw any, fallback int) (int, error) {
	switch v := raw.(type) {
	case nil:
		return fallback, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return fallback, nil
		}
		if n, err := strconv.Atoi(trimmed); err == nil {
			return n, nil
		}
		if strings.Contains(strings.ToLower(trimmed), "minute") {
			return fallback, nil
		}

		return 0, errors.Errorf("unrecognized expiry label: %q", v)
	default:
		return 0, errors.Errorf("unrecognized expiry type: %T", raw)
	}
}
