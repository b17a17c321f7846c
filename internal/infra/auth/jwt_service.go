// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"console/config"
	"console/internal/domain/service"
)

const accessTokenTTL = 7 * 24 * time.Hour

// jwtService signs and verifies HMAC access tokens for the stub backend.
type jwtService struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTService is the constructor for jwtService.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg.Stub == nil || cfg.Stub.SecretKey == "" {
		return nil, errors.New("stub secret key must be provided")
	}

	return &jwtService{
		secret: []byte(cfg.Stub.SecretKey),
		// Matches the client cookie TTL so a restored session is still accepted.
		ttl: accessTokenTTL,
	}, nil
}

// Issue creates a signed access token for the given account.
func (s *jwtService) Issue(userID uuid.UUID, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID.String(),
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(s.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign access token")
	}

	return signed, nil
}

// Validate parses and verifies a token string.
func (s *jwtService) Validate(tokenString string) (*service.Claims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return s.secret, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "parse access token")
	}
	if !parsed.Valid {
		return nil, errors.New("access token is not valid")
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("unexpected claims type")
	}

	sub, _ := mapClaims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, errors.Wrap(err, "parse subject claim")
	}
	email, _ := mapClaims["email"].(string)

	return &service.Claims{UserID: userID, Email: email}, nil
}
