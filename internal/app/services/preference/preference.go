// Package preference orchestrates dietary preference CRUD across the remote
// table store and the in-memory fallback.
package preference

import (
	"context"
	stderrors "errors"

	"github.com/eatrite/backend/internal/app/domain/preference"
	"github.com/eatrite/backend/internal/app/storage"
	"github.com/eatrite/backend/internal/errors"
	"github.com/eatrite/backend/internal/logging"
)

// Service enforces the one-record-per-user invariant across both backends.
// Existence is decided remote-first so a degraded write in one backend
// cannot produce a duplicate in the other.
type Service struct {
	remote storage.PreferenceStore
	local  storage.PreferenceStore
	log    *logging.Logger
}

// New creates a preference service. remote may be nil.
func New(remote, local storage.PreferenceStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("preferences")
	}
	return &Service{remote: remote, local: local, log: log}
}

// Get returns the user's record, remote first.
func (s *Service) Get(ctx context.Context, userID string) (preference.Preferences, error) {
	rec, err := s.find(ctx, userID)
	if err != nil {
		return preference.Preferences{}, errors.NotFound("User preferences not found. Please create preferences first.")
	}
	return rec, nil
}

// Create inserts the user's record. Fails with Conflict when either backend
// already holds one.
func (s *Service) Create(ctx context.Context, userID string, input preference.Input) (preference.Preferences, error) {
	if _, err := s.find(ctx, userID); err == nil {
		return preference.Preferences{}, errors.Conflict("User preferences already exist. Use PUT to update.")
	}

	if s.remote != nil {
		rec, err := s.remote.Create(ctx, userID, input)
		switch {
		case err == nil:
			return rec, nil
		case stderrors.Is(err, storage.ErrConflict):
			return preference.Preferences{}, errors.Conflict("User preferences already exist. Use PUT to update.")
		case stderrors.Is(err, storage.ErrUnavailable):
			s.log.WithContext(ctx).Warn("remote preference create unavailable, using fallback")
		default:
			return preference.Preferences{}, errors.Internal("Failed to create preferences", err)
		}
	}

	rec, err := s.local.Create(ctx, userID, input)
	if stderrors.Is(err, storage.ErrConflict) {
		return preference.Preferences{}, errors.Conflict("User preferences already exist. Use PUT to update.")
	}
	if err != nil {
		return preference.Preferences{}, errors.Internal("Failed to create preferences", err)
	}
	return rec, nil
}

// Update replaces the user's record. Fails with NotFound when neither
// backend holds one.
func (s *Service) Update(ctx context.Context, userID string, input preference.Input) (preference.Preferences, error) {
	if _, err := s.find(ctx, userID); err != nil {
		return preference.Preferences{}, errors.NotFound("User preferences not found. Use POST to create.")
	}

	if s.remote != nil {
		rec, err := s.remote.Update(ctx, userID, input)
		if err == nil {
			return rec, nil
		}
		if !stderrors.Is(err, storage.ErrUnavailable) && !stderrors.Is(err, storage.ErrNotFound) {
			return preference.Preferences{}, errors.Internal("Failed to update preferences", err)
		}
	}

	rec, err := s.local.Update(ctx, userID, input)
	if stderrors.Is(err, storage.ErrNotFound) {
		// The record lives only in the remote backend and the remote write
		// failed; the updated record migrates into the fallback.
		rec, err = s.local.Create(ctx, userID, input)
	}
	if err != nil {
		return preference.Preferences{}, errors.Internal("Failed to update preferences", err)
	}
	return rec, nil
}

// Delete removes the user's record from both backends. Idempotent: deleting
// an absent record succeeds.
func (s *Service) Delete(ctx context.Context, userID string) error {
	if s.remote != nil {
		if err := s.remote.Delete(ctx, userID); err != nil {
			s.log.WithContext(ctx).Warn("remote preference delete unavailable")
		}
	}
	if err := s.local.Delete(ctx, userID); err != nil && !stderrors.Is(err, storage.ErrNotFound) {
		return errors.Internal("Failed to delete preferences", err)
	}
	return nil
}

// find unifies the two backends into one existence signal: remote answers
// win; unavailable or missing remote defers to local.
func (s *Service) find(ctx context.Context, userID string) (preference.Preferences, error) {
	if s.remote != nil {
		rec, err := s.remote.Get(ctx, userID)
		if err == nil {
			return rec, nil
		}
	}
	return s.local.Get(ctx, userID)
}
