// Package usecase defines the application's business-rule contracts and the
// input/output models that cross them.
package usecase

import (
	"context"

	"console/internal/domain/entity"
)

// LoginInput carries the operator's credentials.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignupInput carries a new staff account registration. Extra holds
// platform-specific profile fields forwarded verbatim.
type SignupInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Extra    map[string]any
}

// ForgotPasswordInput starts the unauthenticated recovery flow.
type ForgotPasswordInput struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordInput finalizes the unauthenticated recovery flow.
type ResetPasswordInput struct {
	ContinuationToken string `json:"token"`
	OTP               string `json:"otp"`
	NewPassword       string `json:"newPassword" validate:"required,min=6"`
	ConfirmPassword   string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// ChangePasswordInput starts the authenticated change flow. The new password
// must be at least 6 characters, differ from the current one and match the
// confirmation; violations never reach the backend.
type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,nefield=CurrentPassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// VerifyPasswordChangeInput finalizes the authenticated change flow.
type VerifyPasswordChangeInput struct {
	ContinuationToken string `json:"token"`
	OTP               string `json:"otp"`
}

// AuthUsecase is the single in-memory authority for the operator session.
// Every credential-affecting operation goes through it. Errors returned by
// its methods always carry a user-presentable message, so deliveries render
// them without inspecting internals.
type AuthUsecase interface {
	// State reports the current session state.
	State() entity.AuthState
	// CurrentUser returns the profile of the authenticated operator, or nil.
	CurrentUser() *entity.UserProfile

	// Login authenticates and persists the session.
	Login(ctx context.Context, input *LoginInput) (*entity.Session, error)
	// Signup registers a new account; no local state change.
	Signup(ctx context.Context, input *SignupInput) error
	// Logout tears the session down locally before a best-effort remote
	// invalidation. It always leaves the session Anonymous and never fails.
	Logout(ctx context.Context)

	// ForgotPassword requests a recovery OTP (phase 1, unauthenticated).
	ForgotPassword(ctx context.Context, input *ForgotPasswordInput) (*entity.OTPChallenge, error)
	// ResetPassword finalizes a recovery (phase 2, unauthenticated).
	ResetPassword(ctx context.Context, input *ResetPasswordInput) error
	// ChangePassword requests a change OTP (phase 1, authenticated). The
	// session is not ended; the password is not mutated yet.
	ChangePassword(ctx context.Context, input *ChangePasswordInput) (*entity.OTPChallenge, error)
	// VerifyPasswordChange finalizes the change (phase 2). Rejects locally,
	// without a network call, when the token or OTP is missing.
	VerifyPasswordChange(ctx context.Context, input *VerifyPasswordChangeInput) error
}
