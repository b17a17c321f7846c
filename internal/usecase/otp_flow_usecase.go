package usecase

import "context"

// FlowState is the position of an OTP flow in its two-phase exchange.
type FlowState string

const (
	// StateCollecting gathers credentials for the phase-1 request.
	StateCollecting FlowState = "collecting"
	// StateAwaitingOTP holds a continuation token and counts down its expiry.
	StateAwaitingOTP FlowState = "awaiting_otp"
	// StateDone means phase 2 succeeded and transient state was cleared.
	StateDone FlowState = "done"
)

// OTPFlow drives the two-phase OTP exchange shared by the change-password
// and reset-password screens. Hosts must call Dispose on teardown so the
// countdown stops updating state.
type OTPFlow interface {
	// State returns the current flow state.
	State() FlowState
	// Begin runs phase 1. Transitions to StateAwaitingOTP only when the
	// request succeeds AND a continuation token is present.
	Begin(ctx context.Context) error
	// Resend re-runs phase 1 with the original payload and replaces the held
	// token. The state does not change.
	Resend(ctx context.Context) error
	// Submit runs phase 2 with the held token. A no-op local error is
	// returned once the countdown has expired.
	Submit(ctx context.Context, otp string) error
	// Cancel discards the token and returns to StateCollecting.
	Cancel()
	// Remaining returns the countdown seconds left.
	Remaining() int
	// Expired reports whether the countdown reached zero.
	Expired() bool
	// Dispose stops the countdown permanently.
	Dispose()
}

// FlowFactory builds OTP flows bound to concrete credential payloads.
type FlowFactory interface {
	// PasswordChange builds the authenticated change flow.
	PasswordChange(input *ChangePasswordInput) OTPFlow
	// PasswordReset builds the recovery flow. The reset credentials are read
	// at submit time, so the host fills them alongside the OTP.
	PasswordReset(email string, credentials *ResetPasswordInput) OTPFlow
}
