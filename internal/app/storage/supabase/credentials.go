// Package supabase implements the storage contracts against the Supabase
// backend: GoTrue for credentials, PostgREST for preferences. Every failure
// that is not a definitive answer from the backend maps to
// storage.ErrUnavailable so the services can fall back locally.
package supabase

import (
	"context"
	"net/http"
	"strings"

	"github.com/eatrite/backend/internal/app/domain/identity"
	"github.com/eatrite/backend/internal/app/storage"
	"github.com/eatrite/backend/internal/supabase"
)

// CredentialStore verifies and registers users via the GoTrue auth API.
type CredentialStore struct {
	client *supabase.Client
}

var _ storage.CredentialStore = (*CredentialStore)(nil)

// NewCredentialStore wraps a Supabase client.
func NewCredentialStore(client *supabase.Client) *CredentialStore {
	return &CredentialStore{client: client}
}

// Authenticate exchanges credentials via the password grant.
func (s *CredentialStore) Authenticate(ctx context.Context, email, password string) (identity.User, error) {
	user, err := s.client.SignInWithPassword(ctx, identity.NormalizeEmail(email), password)
	if err != nil {
		switch supabase.StatusOf(err) {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			// GoTrue rejects bad credentials with 400.
			return identity.User{}, storage.ErrNotFound
		default:
			return identity.User{}, storage.ErrUnavailable
		}
	}
	return toUser(user), nil
}

// Register signs the user up with the full name in user metadata.
func (s *CredentialStore) Register(ctx context.Context, email, password, fullName string) (identity.User, error) {
	user, err := s.client.SignUp(ctx, identity.NormalizeEmail(email), password, fullName)
	if err != nil {
		if isDuplicate(err) {
			return identity.User{}, storage.ErrConflict
		}
		return identity.User{}, storage.ErrUnavailable
	}
	created := toUser(user)
	if created.FullName == "" {
		created.FullName = fullName
	}
	return created, nil
}

// GetByID fetches the full profile through the admin API.
func (s *CredentialStore) GetByID(ctx context.Context, id string) (identity.User, error) {
	user, err := s.client.AdminGetUser(ctx, id)
	if err != nil {
		if supabase.StatusOf(err) == http.StatusNotFound {
			return identity.User{}, storage.ErrNotFound
		}
		return identity.User{}, storage.ErrUnavailable
	}
	return toUser(user), nil
}

// GetByEmail is not exposed by the GoTrue admin API per-email; the remote
// backend reports not-found and the local store answers instead.
func (s *CredentialStore) GetByEmail(_ context.Context, _ string) (identity.User, error) {
	return identity.User{}, storage.ErrNotFound
}

func toUser(u *supabase.AuthUser) identity.User {
	return identity.User{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName(),
		CreatedAt: u.CreatedAt,
	}
}

func isDuplicate(err error) bool {
	switch supabase.StatusOf(err) {
	case http.StatusConflict, http.StatusUnprocessableEntity:
		return true
	case http.StatusBadRequest:
		return strings.Contains(strings.ToLower(err.Error()), "already registered")
	default:
		return false
	}
}
