// Package entity contains the core business objects of the console,
// each representing a unique, identifiable concept within the domain.
package entity

// AuthState describes the console's belief about the current operator session.
type AuthState string

const (
	// StateUnknown is the initial state before the credential store has been read.
	StateUnknown AuthState = "unknown"
	// StateAnonymous indicates no valid session is held.
	StateAnonymous AuthState = "anonymous"
	// StateAuthenticated indicates a token and profile are held.
	StateAuthenticated AuthState = "authenticated"
)

// String returns the string representation of the AuthState.
func (s AuthState) String() string {
	return string(s)
}

// UserProfile mirrors the operator profile object the backend returns.
// The backend contract is loose, so the full object is preserved in Raw
// alongside the fields the console actually renders.
type UserProfile struct {
	ID    string
	Email string
	Name  string
	Raw   map[string]any
}

// Session pairs the opaque auth token with the profile it belongs to.
// It is created on successful login and destroyed on logout or when the
// backend rejects the token.
type Session struct {
	Token string
	User  *UserProfile
}

// Valid reports whether the session holds both a token and a profile.
func (s *Session) Valid() bool {
	return s != nil && s.Token != "" && s.User != nil
}
