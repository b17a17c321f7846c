// Package repository declares the persistence contracts the usecases depend on.
package repository

import (
	"console/internal/domain/entity"
	"console/internal/errors"
)

// ErrCredentialNotFound is returned when a credential entry does not exist,
// has expired, or could not be decoded.
var ErrCredentialNotFound = errors.New("credential not found")

// CredentialStore persists the operator's token and profile across console
// restarts. It is the durable half of the session; the in-memory half lives
// in the auth usecase. Malformed stored data reads as absent, never as an
// error the caller must special-case.
type CredentialStore interface {
	// SaveToken stores the opaque auth token.
	SaveToken(token string) error
	// Token returns the stored token, or ErrCredentialNotFound.
	Token() (string, error)
	// RemoveToken deletes the token entry. Deleting an absent entry is a no-op.
	RemoveToken() error

	// SaveProfile stores the operator profile.
	SaveProfile(profile *entity.UserProfile) error
	// Profile returns the stored profile, or ErrCredentialNotFound.
	// Corrupted stored data yields ErrCredentialNotFound rather than a decode error.
	Profile() (*entity.UserProfile, error)
	// RemoveProfile deletes the profile entry.
	RemoveProfile() error

	// Clear removes both entries. Performed as two idempotent removals.
	Clear() error
}
