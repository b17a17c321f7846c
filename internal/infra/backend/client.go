// Package backend implements the AuthGateway against the remote admin API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"console/config"
	domainerrors "console/internal/domain/errors"
	"console/internal/domain/repository"
	"console/internal/domain/service"
	"console/internal/errors"

	"go.uber.org/fx"
)

const (
	loginPath          = "/auth/login"
	signupPath         = "/auth/signup"
	logoutPath         = "/auth/logout"
	forgotPasswordPath = "/auth/forgot-password"
	resetPasswordPath  = "/auth/reset-password"
	changePasswordPath = "/auth/change-password"
	verifyChangePath   = "/auth/verify-password-change"
)

// envelope is the backend's uniform response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *errorInfo      `json:"error,omitempty"`
}

type errorInfo struct {
	Code    string `json:"code"`
	Details string `json:"details"`
}

// challengeData is the data payload of the phase-1 endpoints.
type challengeData struct {
	Token     string `json:"token"`
	ExpiresIn any    `json:"expiresIn"`
	SentTo    string `json:"sentTo"`
	Message   string `json:"message"`
}

// Client talks to the remote auth API. A bearer header is attached
// automatically whenever the credential store holds a token, and any 401 on
// an authenticated call clears the store and fires the unauthorized hook.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      repository.CredentialStore
	logger     *slog.Logger

	mu             sync.RWMutex
	onUnauthorized func()
}

// Params holds dependencies for the Client, injected by Fx.
type Params struct {
	fx.In

	Config *config.Config
	Store  repository.CredentialStore
	Logger *slog.Logger
}

// New is the constructor for Client.
func New(params Params) *Client {
	return &Client{
		baseURL: params.Config.Backend.BaseURL,
		httpClient: &http.Client{
			Timeout: params.Config.Backend.Timeout,
		},
		store:  params.Store,
		logger: params.Logger,
	}
}

// AsGateway exposes the client through its domain contract.
func AsGateway(client *Client) service.AuthGateway {
	return client
}

// SetUnauthorizedHook registers the callback invoked when an authenticated
// call is rejected with 401 (the forced-logout navigation).
func (c *Client) SetUnauthorizedHook(hook func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = hook
}

// Login authenticates and returns the raw response body for shape probing.
func (c *Client) Login(ctx context.Context, email, password string) ([]byte, error) {
	body, err := c.post(ctx, loginPath, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	return body, nil
}

// Signup registers a new staff account.
func (c *Client) Signup(ctx context.Context, profile map[string]any) error {
	_, err := c.post(ctx, signupPath, profile)

	return err
}

// Logout invalidates the session server-side. The token is passed explicitly
// because local teardown empties the store before this call is made. Best
// effort; callers decide whether the failure matters.
func (c *Client) Logout(ctx context.Context, token string) error {
	_, err := c.postWithToken(ctx, logoutPath, struct{}{}, token)

	return err
}

// ForgotPassword requests a recovery OTP for the given email.
func (c *Client) ForgotPassword(ctx context.Context, email string) (*service.ChallengeReply, error) {
	body, err := c.post(ctx, forgotPasswordPath, map[string]string{"email": email})
	if err != nil {
		return nil, err
	}

	return decodeChallenge(body)
}

// ResetPassword finalizes an unauthenticated recovery.
func (c *Client) ResetPassword(ctx context.Context, token, otp, newPassword, confirmPassword string) error {
	_, err := c.post(ctx, resetPasswordPath, map[string]string{
		"token":           token,
		"otp":             otp,
		"newPassword":     newPassword,
		"confirmPassword": confirmPassword,
	})

	return err
}

// ChangePassword runs phase 1 of the authenticated change.
func (c *Client) ChangePassword(ctx context.Context, currentPassword, newPassword, confirmPassword string) (*service.ChallengeReply, error) {
	body, err := c.post(ctx, changePasswordPath, map[string]string{
		"currentPassword": currentPassword,
		"newPassword":     newPassword,
		"confirmPassword": confirmPassword,
	})
	if err != nil {
		return nil, err
	}

	return decodeChallenge(body)
}

// VerifyPasswordChange runs phase 2 of the authenticated change.
func (c *Client) VerifyPasswordChange(ctx context.Context, token, otp string) error {
	_, err := c.post(ctx, verifyChangePath, map[string]string{
		"token": token,
		"otp":   otp,
	})

	return err
}

// post issues a JSON POST with the stored token, when one is held.
func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	token, err := c.store.Token()
	if err != nil {
		token = ""
	}

	return c.postWithToken(ctx, path, payload, token)
}

// postWithToken issues a JSON POST and returns the raw response body once
// the envelope reports success.
func (c *Client) postWithToken(ctx context.Context, path string, payload any, token string) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "encode request body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	authenticated := token != ""
	if authenticated {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Backend request failed", slog.String("path", path), slog.Any("error", err))

		return nil, domainerrors.ErrBackendUnavailable.WrapMessage(err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domainerrors.ErrBackendUnavailable.WrapMessage("read response body")
	}

	if resp.StatusCode == http.StatusUnauthorized && authenticated {
		// The session is gone: tear down local state and force navigation to
		// the login screen. A 401 on an anonymous call (e.g. bad login
		// credentials) is a business error, not a session loss.
		c.forceLogout(path)

		return nil, errors.WithStack(domainerrors.ErrSessionExpired)
	}

	var env envelope
	decodable := json.Unmarshal(body, &env) == nil

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.WithStack(serverError(resp.StatusCode, &env, decodable))
	}
	if decodable && !env.Success && env.Message != "" {
		// Some endpoints report business failures with a 200.
		return nil, errors.WithStack(serverError(resp.StatusCode, &env, true))
	}

	return body, nil
}

func (c *Client) forceLogout(path string) {
	if err := c.store.Clear(); err != nil {
		c.logger.Error("Failed to clear credential store after 401", slog.Any("error", err))
	}

	c.mu.RLock()
	hook := c.onUnauthorized
	c.mu.RUnlock()

	c.logger.Warn("Backend rejected the session", slog.String("path", path))
	if hook != nil {
		hook()
	}
}

// serverError converts a failed response into a presentable error, preferring
// the server's structured message over a generic fallback.
func serverError(status int, env *envelope, decodable bool) error {
	message := ""
	code := "BACKEND_ERROR"
	details := ""
	if decodable {
		message = env.Message
		if env.Error != nil {
			if env.Error.Code != "" {
				code = env.Error.Code
			}
			details = env.Error.Details
		}
	}
	if message == "" {
		message = http.StatusText(status)
	}

	return domainerrors.NewBaseError(status, code, message, details)
}

// decodeChallenge extracts the phase-1 challenge payload from the envelope.
func decodeChallenge(body []byte) (*service.ChallengeReply, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, domainerrors.ErrInvalidResponseShape.WrapMessage("undecodable challenge response")
	}

	var data challengeData
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, domainerrors.ErrInvalidResponseShape.WrapMessage("undecodable challenge payload")
		}
	}

	return &service.ChallengeReply{
		Token:     data.Token,
		ExpiresIn: data.ExpiresIn,
		SentTo:    data.SentTo,
		Message:   firstNonEmpty(data.Message, env.Message),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
