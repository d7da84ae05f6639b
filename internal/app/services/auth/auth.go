// Package auth orchestrates registration and login across the remote
// identity backend and the in-memory fallback.
package auth

import (
	"context"
	stderrors "errors"

	"github.com/eatrite/backend/internal/app/domain/identity"
	"github.com/eatrite/backend/internal/app/storage"
	"github.com/eatrite/backend/internal/errors"
	"github.com/eatrite/backend/internal/logging"
	"github.com/eatrite/backend/internal/token"
)

// Service coordinates the two credential backends and the token service.
// The remote store may be nil when no backend is configured; the local
// store always exists. No retries: a single remote failure falls back.
type Service struct {
	remote storage.CredentialStore
	local  storage.CredentialStore
	tokens *token.Service
	log    *logging.Logger
}

// New creates an auth service. remote may be nil.
func New(remote, local storage.CredentialStore, tokens *token.Service, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("auth")
	}
	return &Service{remote: remote, local: local, tokens: tokens, log: log}
}

// Register creates a user in the remote backend, falling back to the local
// store when the remote is unavailable. Duplicate email is a Conflict from
// whichever backend handles the write.
func (s *Service) Register(ctx context.Context, email, password, fullName string) (identity.User, error) {
	if email == "" || password == "" {
		return identity.User{}, errors.InvalidInput("Email and password are required")
	}

	if s.remote != nil {
		user, err := s.remote.Register(ctx, email, password, fullName)
		switch {
		case err == nil:
			return user, nil
		case stderrors.Is(err, storage.ErrConflict):
			return identity.User{}, errors.Conflict("Email already registered")
		case stderrors.Is(err, storage.ErrUnavailable):
			s.log.WithContext(ctx).Warn("remote register unavailable, using fallback")
		default:
			return identity.User{}, errors.Internal("Registration failed", err)
		}
	}

	user, err := s.local.Register(ctx, email, password, fullName)
	if stderrors.Is(err, storage.ErrConflict) {
		return identity.User{}, errors.Conflict("Email already registered")
	}
	if err != nil {
		return identity.User{}, errors.Internal("Registration failed", err)
	}
	return user, nil
}

// Login authenticates against the remote backend first, then the local
// fallback, and issues a session token on success.
func (s *Service) Login(ctx context.Context, email, password string) (identity.User, string, error) {
	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		return identity.User{}, "", err
	}

	accessToken, err := s.tokens.Issue(user.ID, user.Email, 0)
	if err != nil {
		return identity.User{}, "", err
	}
	return user, accessToken, nil
}

func (s *Service) authenticate(ctx context.Context, email, password string) (identity.User, error) {
	if s.remote != nil {
		user, err := s.remote.Authenticate(ctx, email, password)
		if err == nil {
			return user, nil
		}
		if stderrors.Is(err, storage.ErrUnavailable) {
			s.log.WithContext(ctx).Warn("remote authenticate unavailable, using fallback")
		}
		// ErrNotFound falls through to the local store: the two backends
		// hold disjoint user populations.
	}

	user, err := s.local.Authenticate(ctx, email, password)
	if err != nil {
		return identity.User{}, errors.Unauthorized("Incorrect email or password")
	}
	return user, nil
}

// CurrentUser verifies the token and enriches the identity with the fullest
// profile available. Once the token verifies this never fails; it degrades
// to the bare token claims.
func (s *Service) CurrentUser(ctx context.Context, tokenString string) (identity.User, error) {
	id, err := s.tokens.Verify(tokenString)
	if err != nil {
		return identity.User{}, err
	}

	if s.remote != nil {
		if user, remoteErr := s.remote.GetByID(ctx, id.UserID); remoteErr == nil {
			return user, nil
		}
	}

	if id.Email != "" {
		if user, localErr := s.local.GetByEmail(ctx, id.Email); localErr == nil {
			return user, nil
		}
	}

	return identity.User{ID: id.UserID, Email: id.Email}, nil
}
