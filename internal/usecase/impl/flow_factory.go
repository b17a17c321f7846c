package impl

import (
	"context"
	"log/slog"
	"time"

	"console/config"
	"console/internal/domain/entity"
	"console/internal/usecase"

	"go.uber.org/fx"
)

// flowFactory builds OTP flows bound to the auth usecase.
type flowFactory struct {
	auth   usecase.AuthUsecase
	tick   time.Duration
	logger *slog.Logger
}

// FlowFactoryParams holds dependencies for the flow factory, injected by Fx.
type FlowFactoryParams struct {
	fx.In

	Auth   usecase.AuthUsecase
	Config *config.Config
	Logger *slog.Logger
}

// NewFlowFactory is the constructor for flowFactory.
func NewFlowFactory(params FlowFactoryParams) usecase.FlowFactory {
	return &flowFactory{
		auth:   params.Auth,
		tick:   time.Second,
		logger: params.Logger,
	}
}

// PasswordChange builds the authenticated change flow. The credential
// payload is captured so a resend repeats phase 1 verbatim.
func (fac *flowFactory) PasswordChange(input *usecase.ChangePasswordInput) usecase.OTPFlow {
	request := func(ctx context.Context) (*entity.OTPChallenge, error) {
		return fac.auth.ChangePassword(ctx, input)
	}
	verify := func(ctx context.Context, token, otp string) error {
		return fac.auth.VerifyPasswordChange(ctx, &usecase.VerifyPasswordChangeInput{
			ContinuationToken: token,
			OTP:               otp,
		})
	}

	return newOTPFlow(request, verify, fac.tick, fac.logger)
}

// PasswordReset builds the recovery flow. The new password fields are read
// from credentials at submit time, matching the screen where they are
// entered together with the OTP.
func (fac *flowFactory) PasswordReset(email string, credentials *usecase.ResetPasswordInput) usecase.OTPFlow {
	request := func(ctx context.Context) (*entity.OTPChallenge, error) {
		return fac.auth.ForgotPassword(ctx, &usecase.ForgotPasswordInput{Email: email})
	}
	verify := func(ctx context.Context, token, otp string) error {
		submitted := *credentials
		submitted.ContinuationToken = token
		submitted.OTP = otp

		return fac.auth.ResetPassword(ctx, &submitted)
	}

	return newOTPFlow(request, verify, fac.tick, fac.logger)
}
