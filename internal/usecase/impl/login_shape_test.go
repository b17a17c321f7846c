package impl

import (
	"io"
	"log/slog"
	"testing"

	domainerrors "console/internal/domain/errors"
	"console/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLoginSession(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name      string
		raw       string
		wantToken string
		wantEmail string
	}{
		{
			name:      "direct shape",
			raw:       `{"token":"abc123def456","user":{"id":1,"email":"a@b.com","name":"Ada"}}`,
			wantToken: "abc123def456",
			wantEmail: "a@b.com",
		},
		{
			name:      "nested data shape",
			raw:       `{"success":true,"data":{"token":"abc123def456","user":{"id":1,"email":"a@b.com"}}}`,
			wantToken: "abc123def456",
			wantEmail: "a@b.com",
		},
		{
			name:      "generic scan with renamed fields",
			raw:       `{"accessToken":"0123456789012345678901234","account":{"id":"u-9","email":"ops@b.com"}}`,
			wantToken: "0123456789012345678901234",
			wantEmail: "ops@b.com",
		},
		{
			name:      "generic scan one level down",
			raw:       `{"result":{"jwt":"0123456789012345678901234","profile":{"id":3,"email":"x@y.com"}}}`,
			wantToken: "0123456789012345678901234",
			wantEmail: "x@y.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := parseLoginSession([]byte(tt.raw), logger)

			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, session.Token)
			require.NotNil(t, session.User)
			assert.Equal(t, tt.wantEmail, session.User.Email)
		})
	}
}

func TestParseLoginSession_Failures(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: `welcome back`},
		{name: "no token anywhere", raw: `{"user":{"id":1,"email":"a@b.com"}}`},
		{name: "token without profile", raw: `{"token":"abc123def456"}`},
		{name: "short strings never mistaken for tokens", raw: `{"status":"ok","user":{"id":1,"email":"a@b.com"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseLoginSession([]byte(tt.raw), logger)

			assert.True(t, errors.Is(err, domainerrors.ErrInvalidResponseShape))
		})
	}
}

func TestParseLoginSession_DirectShapeWinsOverScan(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	raw := `{"token":"short","user":{"id":1,"email":"a@b.com"},"debug":"0123456789012345678901234"}`

	session, err := parseLoginSession([]byte(raw), logger)

	require.NoError(t, err)
	assert.Equal(t, "short", session.Token)
}
