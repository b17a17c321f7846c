package impl

import (
	"encoding/json"
	"log/slog"

	"console/internal/domain/entity"
	domainerrors "console/internal/domain/errors"
)

// Backends have shipped the login payload in more than one shape. The
// matchers below are tried in order; the generic scan is a last resort and
// its use is logged because it indicates backend contract drift.
const minScannedTokenLength = 20

type shapeMatcher struct {
	name  string
	match func(payload map[string]any) *entity.Session
}

func loginShapeMatchers() []shapeMatcher {
	return []shapeMatcher{
		{name: "direct", match: matchDirectShape},
		{name: "nestedData", match: matchNestedDataShape},
		{name: "genericScan", match: matchGenericScanShape},
	}
}

// parseLoginSession probes the raw login response for a token and a profile.
func parseLoginSession(raw []byte, logger *slog.Logger) (*entity.Session, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, domainerrors.ErrInvalidResponseShape.WrapMessage("login response is not a JSON object")
	}

	for _, matcher := range loginShapeMatchers() {
		session := matcher.match(payload)
		if session == nil {
			continue
		}

		if matcher.name == "genericScan" {
			logger.Warn("Login payload matched only by generic scan; backend contract may have drifted")
		}

		return session, nil
	}

	return nil, domainerrors.ErrInvalidResponseShape.WrapMessage("no recognizable token/user fields in login response")
}

// matchDirectShape handles {token, user}.
func matchDirectShape(payload map[string]any) *entity.Session {
	token, _ := payload["token"].(string)
	if token == "" {
		return nil
	}

	userObj, _ := payload["user"].(map[string]any)
	profile := entity.ProfileFromMap(userObj)
	if profile == nil {
		return nil
	}

	return &entity.Session{Token: token, User: profile}
}

// matchNestedDataShape handles {data: {token, user}}.
func matchNestedDataShape(payload map[string]any) *entity.Session {
	data, _ := payload["data"].(map[string]any)
	if data == nil {
		return nil
	}

	return matchDirectShape(data)
}

// matchGenericScanShape scans one level deep for a long string field (the
// token) and an object field that decodes as a profile.
func matchGenericScanShape(payload map[string]any) *entity.Session {
	token, profile := scanLevel(payload)
	if token == "" || profile == nil {
		// One nesting level down covers envelope wrappers.
		for _, value := range payload {
			child, ok := value.(map[string]any)
			if !ok {
				continue
			}
			childToken, childProfile := scanLevel(child)
			if token == "" {
				token = childToken
			}
			if profile == nil {
				profile = childProfile
			}
		}
	}

	if token == "" || profile == nil {
		return nil
	}

	return &entity.Session{Token: token, User: profile}
}

func scanLevel(obj map[string]any) (string, *entity.UserProfile) {
	var token string
	var profile *entity.UserProfile

	for _, value := range obj {
		switch v := value.(type) {
		case string:
			if token == "" && len(v) >= minScannedTokenLength {
				token = v
			}
		case map[string]any:
			if profile == nil {
				profile = entity.ProfileFromMap(v)
			}
		}
	}

	return token, profile
}
