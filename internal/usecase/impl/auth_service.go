// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"sync"

	"console/config"
	deliverycontext "console/internal/delivery/context"
	"console/internal/domain/entity"
	domainerrors "console/internal/domain/errors"
	"console/internal/domain/repository"
	"console/internal/domain/service"
	"console/internal/errors"
	"console/internal/usecase"

	"github.com/go-playground/validator/v10"
	"go.uber.org/fx"
)

// authService implements the AuthUsecase interface. It owns the in-memory
// session state; the credential store holds the durable copy.
type authService struct {
	store          repository.CredentialStore
	gateway        service.AuthGateway
	validate       *validator.Validate
	fallbackExpiry int
	logger         *slog.Logger

	mu      sync.RWMutex
	state   entity.AuthState
	current *entity.UserProfile
}

// AuthServiceParams holds dependencies for the auth service, injected by Fx.
type AuthServiceParams struct {
	fx.In

	Store   repository.CredentialStore
	Gateway service.AuthGateway
	Config  *config.Config
	Logger  *slog.Logger
}

// NewAuthService is the constructor for authService. It restores the session
// from the credential store before returning, so callers never observe the
// Unknown state.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	srv := &authService{
		store:          params.Store,
		gateway:        params.Gateway,
		validate:       newValidator(),
		fallbackExpiry: params.Config.OTP.FallbackExpirySeconds,
		logger:         params.Logger,
		state:          entity.StateUnknown,
	}
	srv.restore()

	return srv
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// restore reads the credential store once at startup. Any failure is soft:
// the session simply starts Anonymous.
func (srv *authService) restore() {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	token, tokenErr := srv.store.Token()
	profile, profileErr := srv.store.Profile()

	if tokenErr == nil && profileErr == nil && token != "" && profile != nil {
		srv.state = entity.StateAuthenticated
		srv.current = profile
		srv.logger.Info("Restored session from credential store", slog.String("email", profile.Email))

		return
	}

	if tokenErr != nil && !errors.Is(tokenErr, repository.ErrCredentialNotFound) {
		srv.logger.Warn("Credential store read failed, treating as anonymous", slog.Any("error", tokenErr))
	}
	srv.state = entity.StateAnonymous
	srv.current = nil
}

func (srv *authService) State() entity.AuthState {
	srv.mu.RLock()
	defer srv.mu.RUnlock()

	return srv.state
}

func (srv *authService) CurrentUser() *entity.UserProfile {
	srv.mu.RLock()
	defer srv.mu.RUnlock()

	return srv.current
}

// Login authenticates against the backend and persists the session. The
// response payload shape is probed defensively; see login_shape.go.
func (srv *authService) Login(ctx context.Context, input *usecase.LoginInput) (*entity.Session, error) {
	if err := validateInput(srv.validate, input); err != nil {
		return nil, err
	}

	raw, err := srv.gateway.Login(ctx, input.Email, input.Password)
	if err != nil {
		srv.log(ctx).Warn("Login rejected", slog.String("email", input.Email), slog.Any("error", err))

		return nil, err
	}

	session, err := parseLoginSession(raw, srv.log(ctx))
	if err != nil {
		srv.log(ctx).Error("Login response unusable", slog.String("email", input.Email), slog.Any("error", err))

		return nil, err
	}

	if err := srv.store.SaveToken(session.Token); err != nil {
		return nil, errors.Wrap(err, "persist auth token")
	}
	if err := srv.store.SaveProfile(session.User); err != nil {
		return nil, errors.Wrap(err, "persist user profile")
	}

	srv.mu.Lock()
	srv.state = entity.StateAuthenticated
	srv.current = session.User
	srv.mu.Unlock()

	srv.log(ctx).Info("Login succeeded", slog.String("email", input.Email))

	return session, nil
}

// Signup registers a new account. The platform requires an explicit login
// afterwards, so no local state changes.
func (srv *authService) Signup(ctx context.Context, input *usecase.SignupInput) error {
	if err := validateInput(srv.validate, input); err != nil {
		return err
	}

	payload := map[string]any{
		"name":     input.Name,
		"email":    input.Email,
		"password": input.Password,
	}
	for key, value := range input.Extra {
		payload[key] = value
	}

	return srv.gateway.Signup(ctx, payload)
}

// Logout tears down local state unconditionally, then makes a best-effort
// remote invalidation whose failure is logged and swallowed. Calling it
// while already Anonymous is a harmless no-op.
func (srv *authService) Logout(ctx context.Context) {
	srv.mu.Lock()
	token := ""
	if srv.state == entity.StateAuthenticated {
		if held, err := srv.store.Token(); err == nil {
			token = held
		}
	}
	srv.state = entity.StateAnonymous
	srv.current = nil
	srv.mu.Unlock()

	if err := srv.store.Clear(); err != nil {
		srv.log(ctx).Error("Failed to clear credential store on logout", slog.Any("error", err))
	}

	if token == "" {
		return
	}
	if err := srv.gateway.Logout(ctx, token); err != nil {
		srv.log(ctx).Warn("Remote logout failed, session already cleared locally", slog.Any("error", err))
	}
}

// ForgotPassword requests a recovery OTP tied to an email address.
func (srv *authService) ForgotPassword(ctx context.Context, input *usecase.ForgotPasswordInput) (*entity.OTPChallenge, error) {
	if err := validateInput(srv.validate, input); err != nil {
		return nil, err
	}

	reply, err := srv.gateway.ForgotPassword(ctx, input.Email)
	if err != nil {
		return nil, err
	}

	return srv.challengeFromReply(ctx, reply)
}

// ResetPassword finalizes an unauthenticated recovery with the OTP and the
// continuation token issued by ForgotPassword.
func (srv *authService) ResetPassword(ctx context.Context, input *usecase.ResetPasswordInput) error {
	if input.ContinuationToken == "" || input.OTP == "" {
		return domainerrors.ErrChallengeMissing.WrapMessage("continuation token and OTP are both required")
	}
	if err := validateInput(srv.validate, input); err != nil {
		return err
	}

	return srv.gateway.ResetPassword(ctx, input.ContinuationToken, input.OTP, input.NewPassword, input.ConfirmPassword)
}

// ChangePassword runs phase 1 of the authenticated change. The current
// session stays intact; only the continuation token comes back.
func (srv *authService) ChangePassword(ctx context.Context, input *usecase.ChangePasswordInput) (*entity.OTPChallenge, error) {
	if srv.State() != entity.StateAuthenticated {
		return nil, errors.WithStack(domainerrors.ErrNotAuthenticated)
	}
	if err := validateInput(srv.validate, input); err != nil {
		return nil, err
	}

	reply, err := srv.gateway.ChangePassword(ctx, input.CurrentPassword, input.NewPassword, input.ConfirmPassword)
	if err != nil {
		return nil, err
	}

	return srv.challengeFromReply(ctx, reply)
}

// VerifyPasswordChange runs phase 2. A missing token or OTP is rejected
// locally with a descriptive error so the UI can send the user back to
// phase 1 without a wasted round trip.
func (srv *authService) VerifyPasswordChange(ctx context.Context, input *usecase.VerifyPasswordChangeInput) error {
	if input == nil || input.ContinuationToken == "" {
		return domainerrors.ErrChallengeMissing.WrapMessage("continuation token is missing, request a new code")
	}
	if input.OTP == "" {
		return domainerrors.NewFieldError("otp", domainerrors.ErrValidationFailed.WrapMessage("otp is required"))
	}

	return srv.gateway.VerifyPasswordChange(ctx, input.ContinuationToken, input.OTP)
}

// challengeFromReply normalizes a phase-1 reply into an OTPChallenge. A
// success without a continuation token is a contract violation, not a
// success.
func (srv *authService) challengeFromReply(ctx context.Context, reply *service.ChallengeReply) (*entity.OTPChallenge, error) {
	if reply == nil || reply.Token == "" {
		return nil, domainerrors.ErrInvalidResponseShape.WrapMessage("continuation token missing from response")
	}

	seconds, err := entity.NormalizeExpiry(reply.ExpiresIn, srv.fallbackExpiry)
	if err != nil {
		srv.log(ctx).Error("Unusable expiry in challenge reply", slog.Any("error", err))

		return nil, domainerrors.ErrInvalidResponseShape.WrapMessage(err.Error())
	}
	if seconds <= 0 {
		seconds = srv.fallbackExpiry
	}

	return &entity.OTPChallenge{
		ContinuationToken: reply.Token,
		ExpiresInSeconds:  seconds,
		SentTo:            reply.SentTo,
	}, nil
}
