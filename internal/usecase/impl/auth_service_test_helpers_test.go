package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"console/config"
	"console/internal/domain/entity"
	"console/internal/domain/repository"
	"console/internal/domain/service"
	"console/internal/usecase"
)

// fakeStore is an in-memory CredentialStore for service tests.
type fakeStore struct {
	token      string
	profile    *entity.UserProfile
	tokenErr   error
	profileErr error
}

func (s *fakeStore) SaveToken(token string) error { s.token = token; return nil }
func (s *fakeStore) Token() (string, error) {
	if s.tokenErr != nil {
		return "", s.tokenErr
	}
	if s.token == "" {
		return "", repository.ErrCredentialNotFound
	}
	return s.token, nil
}
func (s *fakeStore) RemoveToken() error { s.token = ""; return nil }
func (s *fakeStore) SaveProfile(p *entity.UserProfile) error { s.profile = p; return nil }
func (s *fakeStore) Profile() (*entity.UserProfile, error) {
	if s.profileErr != nil {
		return nil, s.profileErr
	}
	if s.profile == nil {
		return nil, repository.ErrCredentialNotFound
	}
	return s.profile, nil
}
func (s *fakeStore) RemoveProfile() error { s.profile = nil; return nil }
func (s *fakeStore) Clear() error         { s.token = ""; s.profile = nil; return nil }

// fakeGateway lets each test script the backend's behavior per endpoint.
type fakeGateway struct {
	loginFn          func(ctx context.Context, email, password string) ([]byte, error)
	signupFn         func(ctx context.Context, profile map[string]any) error
	logoutFn         func(ctx context.Context, token string) error
	forgotFn         func(ctx context.Context, email string) (*service.ChallengeReply, error)
	resetFn          func(ctx context.Context, token, otp, newPassword, confirmPassword string) error
	changeFn         func(ctx context.Context, currentPassword, newPassword, confirmPassword string) (*service.ChallengeReply, error)
	verifyFn         func(ctx context.Context, token, otp string) error
	loginCalls       int
	logoutCalls      int
	changeCalls      int
	verifyCalls      int
	forgotCalls      int
}

func (g *fakeGateway) Login(ctx context.Context, email, password string) ([]byte, error) {
	g.loginCalls++
	return g.loginFn(ctx, email, password)
}

func (g *fakeGateway) Signup(ctx context.Context, profile map[string]any) error {
	return g.signupFn(ctx, profile)
}

func (g *fakeGateway) Logout(ctx context.Context, token string) error {
	g.logoutCalls++
	if g.logoutFn == nil {
		return nil
	}
	return g.logoutFn(ctx, token)
}

func (g *fakeGateway) ForgotPassword(ctx context.Context, email string) (*service.ChallengeReply, error) {
	g.forgotCalls++
	return g.forgotFn(ctx, email)
}

func (g *fakeGateway) ResetPassword(ctx context.Context, token, otp, newPassword, confirmPassword string) error {
	return g.resetFn(ctx, token, otp, newPassword, confirmPassword)
}

func (g *fakeGateway) ChangePassword(ctx context.Context, currentPassword, newPassword, confirmPassword string) (*service.ChallengeReply, error) {
	g.changeCalls++
	return g.changeFn(ctx, currentPassword, newPassword, confirmPassword)
}

func (g *fakeGateway) VerifyPasswordChange(ctx context.Context, token, otp string) error {
	g.verifyCalls++
	if g.verifyFn == nil {
		return nil
	}
	return g.verifyFn(ctx, token, otp)
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.OTP.FallbackExpirySeconds = 600

	return cfg
}

func newTestAuthService(t *testing.T, store repository.CredentialStore, gateway service.AuthGateway) usecase.AuthUsecase {
	t.Helper()

	return NewAuthService(AuthServiceParams{
		Store:   store,
		Gateway: gateway,
		Config:  testConfig(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}
