// Package storage defines the persistence contracts shared by the remote
// Supabase adapters and the in-memory fallbacks.
package storage

import (
	"context"
	"errors"

	"github.com/eatrite/backend/internal/app/domain/identity"
	"github.com/eatrite/backend/internal/app/domain/preference"
)

// Sentinel results. Adapters translate backend responses into exactly one of
// these so the orchestrating services can decide fallback policy explicitly
// instead of relying on caught exceptions.
var (
	// ErrNotFound means the backend answered and the record is absent.
	ErrNotFound = errors.New("record not found")
	// ErrConflict means the backend answered and rejected a duplicate.
	ErrConflict = errors.New("record already exists")
	// ErrUnavailable means the backend could not be reached or failed
	// unexpectedly; the caller should fall back.
	ErrUnavailable = errors.New("backend unavailable")
)

// CredentialStore verifies and registers user credentials.
type CredentialStore interface {
	// Authenticate verifies email/password and returns the matching user.
	// Wrong password and unknown email both report ErrNotFound.
	Authenticate(ctx context.Context, email, password string) (identity.User, error)
	// Register creates a user. Duplicate email reports ErrConflict.
	Register(ctx context.Context, email, password, fullName string) (identity.User, error)
	// GetByID looks up a user profile by id.
	GetByID(ctx context.Context, id string) (identity.User, error)
	// GetByEmail looks up a user profile by normalized email.
	GetByEmail(ctx context.Context, email string) (identity.User, error)
}

// PreferenceStore persists the one dietary record each user may have.
type PreferenceStore interface {
	Get(ctx context.Context, userID string) (preference.Preferences, error)
	Create(ctx context.Context, userID string, input preference.Input) (preference.Preferences, error)
	Update(ctx context.Context, userID string, input preference.Input) (preference.Preferences, error)
	Delete(ctx context.Context, userID string) error
}
