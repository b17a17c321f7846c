package entity

import "strconv"

// ProfileFromMap builds a UserProfile from a loosely typed JSON object,
// keeping the original object in Raw so nothing the backend sent is lost.
// Returns nil when the object carries none of the identifying fields.
func ProfileFromMap(m map[string]any) *UserProfile {
	if m == nil {
		return nil
	}

	profile := &UserProfile{Raw: m}
	if v, ok := m["id"]; ok {
		profile.ID = stringifyScalar(v)
	}
	if v, ok := m["email"].(string); ok {
		profile.Email = v
	}
	if v, ok := m["name"].(string); ok {
		profile.Name = v
	}

	if profile.ID == "" && profile.Email == "" && profile.Name == "" {
		return nil
	}

	return profile
}

// JSONObject returns the profile as a plain JSON object for persistence.
// Raw wins when present so round-trips preserve fields the console ignores.
func (p *UserProfile) JSONObject() map[string]any {
	if p == nil {
		return nil
	}
	if p.Raw != nil {
		return p.Raw
	}

	obj := map[string]any{}
	if p.ID != "" {
		obj["id"] = p.ID
	}
	if p.Email != "" {
		obj["email"] = p.Email
	}
	if p.Name != "" {
		obj["name"] = p.Name
	}

	return obj
}

// stringifyScalar renders the id field, which backends send as either a
// string or a number.
func stringifyScalar(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return ""
	}
}
