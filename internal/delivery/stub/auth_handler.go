package stub

import (
	"log/slog"
	"net/http"

	"console/internal/domain/service"
	"console/internal/errors"
	"console/internal/util"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// AuthHandler implements the auth endpoints of the admin API wire contract.
type AuthHandler struct {
	store  *store
	tokens service.TokenService
	logger *slog.Logger
}

// AuthHandlerParams holds dependencies for the auth handler.
type AuthHandlerParams struct {
	fx.In

	Store  *store
	Tokens service.TokenService
	Logger *slog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(params AuthHandlerParams) *AuthHandler {
	return &AuthHandler{
		store:  params.Store,
		tokens: params.Tokens,
		logger: params.Logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token           string `json:"token"`
	OTP             string `json:"otp"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type verifyPasswordChangeRequest struct {
	Token string `json:"token"`
	OTP   string `json:"otp"`
}

type userPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type challengePayload struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"`
	SentTo    string `json:"sentTo"`
}

// Login authenticates an operator and issues an access token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "BINDING_ERROR", "Invalid request format")
	}

	acct, err := h.store.authenticate(req.Email, req.Password)
	if err != nil {
		return respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Email or password is incorrect")
	}

	token, err := h.tokens.Issue(acct.ID, acct.Email)
	if err != nil {
		h.logger.Error("Failed to issue access token", slog.Any("error", err))

		return respondError(c, http.StatusInternalServerError, "TOKEN_ISSUE_FAILED", "")
	}

	data := map[string]any{
		"token": token,
		"user":  userPayload{ID: acct.ID.String(), Email: acct.Email, Name: acct.Name},
	}

	return respondSuccess(c, http.StatusOK, data, "Login successful")
}

// Signup registers a new operator account.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "BINDING_ERROR", "Invalid request format")
	}
	if req.Email == "" || req.Password == "" {
		return respondError(c, http.StatusBadRequest, "VALIDATION_FAILED", "Email and password are required")
	}

	if err := h.store.register(req.Email, req.Password, req.Name); err != nil {
		if errors.Is(err, errEmailTaken) {
			return respondError(c, http.StatusConflict, "EMAIL_TAKEN", "An account with that email already exists")
		}
		h.logger.Error("Failed to register account", slog.Any("error", err))

		return respondError(c, http.StatusInternalServerError, "SIGNUP_FAILED", "")
	}

	return respondSuccess(c, http.StatusCreated, nil, "Account created")
}

// Logout acknowledges a session teardown. Tokens are stateless here, so the
// acknowledgement is all there is.
func (h *AuthHandler) Logout(c echo.Context) error {
	return respondSuccess(c, http.StatusOK, nil, "Logged out")
}

// ForgotPassword starts the recovery flow by issuing a reset challenge.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "BINDING_ERROR", "Invalid request format")
	}

	acct, err := h.store.find(req.Email)
	if err != nil {
		return respondError(c, http.StatusNotFound, "ACCOUNT_NOT_FOUND", "No account found with that email")
	}

	ch, err := h.store.issueChallenge(acct.Email, purposeReset, "")
	if err != nil {
		h.logger.Error("Failed to issue reset challenge", slog.Any("error", err))

		return respondError(c, http.StatusInternalServerError, "CHALLENGE_FAILED", "")
	}

	return respondSuccess(c, http.StatusOK, challengePayload{
		Token:     ch.Token,
		ExpiresIn: int(h.store.otpTTL.Seconds()),
		SentTo:    util.MaskEmail(acct.Email),
	}, "A verification code has been sent to your email")
}

// ResetPassword completes the recovery flow.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "BINDING_ERROR", "Invalid request format")
	}
	if req.NewPassword == "" || req.NewPassword != req.ConfirmPassword {
		return respondError(c, http.StatusBadRequest, "VALIDATION_FAILED", "Password confirmation does not match")
	}

	ch, err := h.store.consumeChallenge(req.Token, req.OTP, purposeReset)
	if err != nil {
		return h.challengeError(c, err)
	}

	if err := h.store.setPassword(ch.Email, req.NewPassword); err != nil {
		h.logger.Error("Failed to set password", slog.Any("error", err))

		return respondError(c, http.StatusInternalServerError, "RESET_FAILED", "")
	}

	return respondSuccess(c, http.StatusOK, nil, "Password has been reset")
}

// ChangePassword verifies the current password and issues a change challenge.
// The new password rides along with the challenge until phase 2 confirms it.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "")
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "BINDING_ERROR", "Invalid request format")
	}
	if req.NewPassword == "" || req.NewPassword != req.ConfirmPassword {
		return respondError(c, http.StatusBadRequest, "VALIDATION_FAILED", "Password confirmation does not match")
	}

	if _, err := h.store.authenticate(claims.Email, req.CurrentPassword); err != nil {
		return respondError(c, http.StatusBadRequest, "INVALID_CREDENTIALS", "Current password is incorrect")
	}

	ch, err := h.store.issueChallenge(claims.Email, purposeChange, req.NewPassword)
	if err != nil {
		h.logger.Error("Failed to issue change challenge", slog.Any("error", err))

		return respondError(c, http.StatusInternalServerError, "CHALLENGE_FAILED", "")
	}

	return respondSuccess(c, http.StatusOK, challengePayload{
		Token:     ch.Token,
		ExpiresIn: int(h.store.otpTTL.Seconds()),
		SentTo:    util.MaskEmail(claims.Email),
	}, "A verification code has been sent to your email")
}

// VerifyPasswordChange completes the change flow with token and code.
func (h *AuthHandler) VerifyPasswordChange(c echo.Context) error {
	if _, ok := claimsFrom(c); !ok {
		return respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "")
	}

	var req verifyPasswordChangeRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "BINDING_ERROR", "Invalid request format")
	}

	ch, err := h.store.consumeChallenge(req.Token, req.OTP, purposeChange)
	if err != nil {
		return h.challengeError(c, err)
	}

	if err := h.store.setPassword(ch.Email, ch.NewPassword); err != nil {
		h.logger.Error("Failed to set password", slog.Any("error", err))

		return respondError(c, http.StatusInternalServerError, "CHANGE_FAILED", "")
	}

	return respondSuccess(c, http.StatusOK, nil, "Password has been changed")
}

func (h *AuthHandler) challengeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, errChallengeExpired):
		return respondError(c, http.StatusBadRequest, "OTP_EXPIRED", "The OTP has expired, please request a new one")
	case errors.Is(err, errWrongCode):
		return respondError(c, http.StatusBadRequest, "INVALID_OTP", "The OTP you entered is invalid")
	default:
		return respondError(c, http.StatusBadRequest, "CHALLENGE_NOT_FOUND", "No pending verification for that token")
	}
}
