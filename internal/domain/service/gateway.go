// Package service declares the external-facing contracts implemented by the
// infrastructure layer.
package service

import "context"

// ChallengeReply is the raw phase-1 payload returned by the backend when an
// OTP is issued. ExpiresIn is left untyped because the backend has been
// observed returning both second counts and human labels; normalization
// happens in the usecase layer.
type ChallengeReply struct {
	Token     string
	ExpiresIn any
	SentTo    string
	Message   string
}

// AuthGateway is the console's view of the remote auth API. Every method
// issues a single request; none retries. A 401 on any authenticated call
// clears the credential store and fires the registered unauthorized hook
// before the error is returned.
type AuthGateway interface {
	// Login authenticates and returns the raw response body. The payload
	// shape varies between backend versions, so decoding is left to the
	// caller's shape probing.
	Login(ctx context.Context, email, password string) ([]byte, error)

	// Signup registers a new staff account. No session is created; the
	// platform requires an explicit login afterwards.
	Signup(ctx context.Context, profile map[string]any) error

	// Logout invalidates the session server-side with the given token. The
	// token travels explicitly because callers tear local state down first.
	// Best effort.
	Logout(ctx context.Context, token string) error

	// ForgotPassword requests a recovery OTP for the given email.
	ForgotPassword(ctx context.Context, email string) (*ChallengeReply, error)

	// ResetPassword finalizes an unauthenticated recovery.
	ResetPassword(ctx context.Context, token, otp, newPassword, confirmPassword string) error

	// ChangePassword verifies the current password and requests a change OTP.
	// The password is not mutated until the OTP is verified.
	ChangePassword(ctx context.Context, currentPassword, newPassword, confirmPassword string) (*ChallengeReply, error)

	// VerifyPasswordChange finalizes an authenticated password change.
	VerifyPasswordChange(ctx context.Context, token, otp string) error
}
