package stub

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"console/config"
	"console/internal/infra/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testStubConfig() *config.Config {
	return &config.Config{
		Stub: &config.StubConfig{
			SecretKey:     "stub_test_secret_key_long_enough",
			AdminEmail:    "admin@example.com",
			AdminPassword: "admin-password",
			AdminName:     "Admin",
			OTPTTL:        10 * time.Minute,
			BcryptCost:    bcrypt.MinCost,
		},
	}
}

// newTestStub mounts the real router on an httptest server.
func newTestStub(t *testing.T) (*httptest.Server, *store) {
	t.Helper()

	cfg := testStubConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hasher := auth.NewBcryptHasher(cfg)
	tokens, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	st, err := NewStore(cfg, hasher)
	require.NoError(t, err)

	handler := NewAuthHandler(AuthHandlerParams{Store: st, Tokens: tokens, Logger: logger})
	srv := httptest.NewServer(newRouter(cfg, logger, handler, tokens))
	t.Cleanup(srv.Close)

	return srv, st
}

func postJSON(t *testing.T, url, bearer string, payload any) (int, map[string]any) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))

	return resp.StatusCode, decoded
}

func loginAs(t *testing.T, srv *httptest.Server, email, password string) string {
	t.Helper()

	status, body := postJSON(t, srv.URL+"/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, status)

	data := body["data"].(map[string]any)
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)

	return token
}

func TestStub_LoginReturnsTokenAndUser(t *testing.T) {
	srv, _ := newTestStub(t)

	status, body := postJSON(t, srv.URL+"/auth/login", "", map[string]string{
		"email":    "admin@example.com",
		"password": "admin-password",
	})

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]any)
	assert.NotEmpty(t, data["token"])

	user := data["user"].(map[string]any)
	assert.Equal(t, "admin@example.com", user["email"])
	assert.Equal(t, "Admin", user["name"])
	assert.NotEmpty(t, user["id"])
}

func TestStub_LoginRejectsWrongPassword(t *testing.T) {
	srv, _ := newTestStub(t)

	status, body := postJSON(t, srv.URL+"/auth/login", "", map[string]string{
		"email":    "admin@example.com",
		"password": "nope",
	})

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Email or password is incorrect", body["message"])
}

func TestStub_SignupThenLogin(t *testing.T) {
	srv, _ := newTestStub(t)

	status, _ := postJSON(t, srv.URL+"/auth/signup", "", map[string]string{
		"email":    "new@example.com",
		"password": "fresh-password",
		"name":     "New Operator",
	})
	require.Equal(t, http.StatusCreated, status)

	loginAs(t, srv, "new@example.com", "fresh-password")

	status, body := postJSON(t, srv.URL+"/auth/signup", "", map[string]string{
		"email":    "new@example.com",
		"password": "fresh-password",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, false, body["success"])
}

func TestStub_ProtectedRoutesRequireBearer(t *testing.T) {
	srv, _ := newTestStub(t)

	for _, path := range []string{"/auth/logout", "/auth/change-password", "/auth/verify-password-change"} {
		status, body := postJSON(t, srv.URL+path, "", map[string]string{})
		assert.Equal(t, http.StatusUnauthorized, status, path)
		assert.Equal(t, false, body["success"], path)
	}

	status, _ := postJSON(t, srv.URL+"/auth/logout", "garbage-token", map[string]string{})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestStub_ChangePasswordFullCycle(t *testing.T) {
	srv, st := newTestStub(t)
	bearer := loginAs(t, srv, "admin@example.com", "admin-password")

	status, body := postJSON(t, srv.URL+"/auth/change-password", bearer, map[string]string{
		"currentPassword": "admin-password",
		"newPassword":     "brand-new-pass",
		"confirmPassword": "brand-new-pass",
	})
	require.Equal(t, http.StatusOK, status)

	data := body["data"].(map[string]any)
	token := data["token"].(string)
	assert.Equal(t, float64(600), data["expiresIn"])
	assert.Equal(t, "a***@example.com", data["sentTo"])

	code, ok := st.challengeCode(token)
	require.True(t, ok)

	status, _ = postJSON(t, srv.URL+"/auth/verify-password-change", bearer, map[string]string{
		"token": token,
		"otp":   code,
	})
	require.Equal(t, http.StatusOK, status)

	// old password no longer works, new one does
	status, _ = postJSON(t, srv.URL+"/auth/login", "", map[string]string{
		"email":    "admin@example.com",
		"password": "admin-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	loginAs(t, srv, "admin@example.com", "brand-new-pass")
}

func TestStub_ChangePasswordRejectsWrongCurrent(t *testing.T) {
	srv, _ := newTestStub(t)
	bearer := loginAs(t, srv, "admin@example.com", "admin-password")

	status, body := postJSON(t, srv.URL+"/auth/change-password", bearer, map[string]string{
		"currentPassword": "wrong",
		"newPassword":     "brand-new-pass",
		"confirmPassword": "brand-new-pass",
	})

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Current password is incorrect", body["message"])
}

func TestStub_WrongOTPKeepsChallengeAlive(t *testing.T) {
	srv, st := newTestStub(t)
	bearer := loginAs(t, srv, "admin@example.com", "admin-password")

	_, body := postJSON(t, srv.URL+"/auth/change-password", bearer, map[string]string{
		"currentPassword": "admin-password",
		"newPassword":     "brand-new-pass",
		"confirmPassword": "brand-new-pass",
	})
	token := body["data"].(map[string]any)["token"].(string)

	status, errBody := postJSON(t, srv.URL+"/auth/verify-password-change", bearer, map[string]string{
		"token": token,
		"otp":   "000000",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, errBody["message"], "OTP")

	// retry with the right code still works
	code, ok := st.challengeCode(token)
	require.True(t, ok)
	status, _ = postJSON(t, srv.URL+"/auth/verify-password-change", bearer, map[string]string{
		"token": token,
		"otp":   code,
	})
	assert.Equal(t, http.StatusOK, status)
}

func TestStub_ResendInvalidatesPreviousToken(t *testing.T) {
	srv, st := newTestStub(t)
	bearer := loginAs(t, srv, "admin@example.com", "admin-password")

	request := map[string]string{
		"currentPassword": "admin-password",
		"newPassword":     "brand-new-pass",
		"confirmPassword": "brand-new-pass",
	}
	_, first := postJSON(t, srv.URL+"/auth/change-password", bearer, request)
	firstToken := first["data"].(map[string]any)["token"].(string)

	_, second := postJSON(t, srv.URL+"/auth/change-password", bearer, request)
	secondToken := second["data"].(map[string]any)["token"].(string)
	require.NotEqual(t, firstToken, secondToken)

	_, ok := st.challengeCode(firstToken)
	assert.False(t, ok, "previous challenge must be superseded")

	code, ok := st.challengeCode(secondToken)
	require.True(t, ok)
	status, _ := postJSON(t, srv.URL+"/auth/verify-password-change", bearer, map[string]string{
		"token": secondToken,
		"otp":   code,
	})
	assert.Equal(t, http.StatusOK, status)
}

func TestStub_ExpiredChallengeRejected(t *testing.T) {
	srv, st := newTestStub(t)
	bearer := loginAs(t, srv, "admin@example.com", "admin-password")

	_, body := postJSON(t, srv.URL+"/auth/change-password", bearer, map[string]string{
		"currentPassword": "admin-password",
		"newPassword":     "brand-new-pass",
		"confirmPassword": "brand-new-pass",
	})
	token := body["data"].(map[string]any)["token"].(string)
	code, ok := st.challengeCode(token)
	require.True(t, ok)

	st.mu.Lock()
	st.now = func() time.Time { return time.Now().Add(11 * time.Minute) }
	st.mu.Unlock()

	status, errBody := postJSON(t, srv.URL+"/auth/verify-password-change", bearer, map[string]string{
		"token": token,
		"otp":   code,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, errBody["message"], "expired")
}

func TestStub_ForgotResetCycle(t *testing.T) {
	srv, st := newTestStub(t)

	status, body := postJSON(t, srv.URL+"/auth/forgot-password", "", map[string]string{
		"email": "admin@example.com",
	})
	require.Equal(t, http.StatusOK, status)
	token := body["data"].(map[string]any)["token"].(string)

	code, ok := st.challengeCode(token)
	require.True(t, ok)

	status, _ = postJSON(t, srv.URL+"/auth/reset-password", "", map[string]string{
		"token":           token,
		"otp":             code,
		"newPassword":     "recovered-pass",
		"confirmPassword": "recovered-pass",
	})
	require.Equal(t, http.StatusOK, status)

	loginAs(t, srv, "admin@example.com", "recovered-pass")
}

func TestStub_ForgotPasswordUnknownEmail(t *testing.T) {
	srv, _ := newTestStub(t)

	status, body := postJSON(t, srv.URL+"/auth/forgot-password", "", map[string]string{
		"email": "ghost@example.com",
	})

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, body["success"])
}
