package service

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the custom claims carried by console access tokens.
type Claims struct {
	UserID uuid.UUID
	Email  string
	jwt.RegisteredClaims
}

// TokenService issues and validates the bearer tokens the stub backend hands
// out at login. The production backend owns its own token format; only the
// opaque-string contract is shared.
type TokenService interface {
	// Issue creates a signed access token for the given account.
	Issue(userID uuid.UUID, email string) (string, error)

	// Validate parses and verifies a token string.
	Validate(tokenString string) (*Claims, error)
}
