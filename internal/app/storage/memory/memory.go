// Package memory provides in-memory fallback implementations of the storage
// contracts. Stores are safe for concurrent use; every request that cannot
// reach the remote backend lands here.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/eatrite/backend/internal/app/domain/identity"
	"github.com/eatrite/backend/internal/app/domain/preference"
	"github.com/eatrite/backend/internal/app/storage"
)

// Development credentials seeded for local runs without a remote backend.
const (
	DefaultUserEmail    = "test@example.com"
	DefaultUserPassword = "secret"

	defaultUserID = "00000000-0000-0000-0000-000000000000"
)

type credentialRecord struct {
	user identity.User
	hash []byte
}

// CredentialStore is a mutex-guarded map from normalized email to credential
// record. Passwords are stored as bcrypt hashes only.
type CredentialStore struct {
	mu    sync.RWMutex
	users map[string]credentialRecord
}

var _ storage.CredentialStore = (*CredentialStore)(nil)

// NewCredentialStore creates an empty credential store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{users: make(map[string]credentialRecord)}
}

// SeedDefaultUser inserts the development user, overwriting any previous
// record under the same email.
func (s *CredentialStore) SeedDefaultUser() error {
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultUserPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[DefaultUserEmail] = credentialRecord{
		user: identity.User{
			ID:        defaultUserID,
			Email:     DefaultUserEmail,
			FullName:  "Test User",
			CreatedAt: time.Now().UTC(),
		},
		hash: hash,
	}
	return nil
}

// Authenticate verifies the supplied password against the stored hash.
func (s *CredentialStore) Authenticate(_ context.Context, email, password string) (identity.User, error) {
	s.mu.RLock()
	rec, ok := s.users[identity.NormalizeEmail(email)]
	s.mu.RUnlock()

	if !ok {
		return identity.User{}, storage.ErrNotFound
	}
	if err := bcrypt.CompareHashAndPassword(rec.hash, []byte(password)); err != nil {
		return identity.User{}, storage.ErrNotFound
	}
	return rec.user, nil
}

// Register inserts a new user with a locally generated id.
func (s *CredentialStore) Register(_ context.Context, email, password, fullName string) (identity.User, error) {
	normalized := identity.NormalizeEmail(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return identity.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[normalized]; exists {
		return identity.User{}, storage.ErrConflict
	}

	user := identity.User{
		ID:        uuid.NewString(),
		Email:     normalized,
		FullName:  fullName,
		CreatedAt: time.Now().UTC(),
	}
	s.users[normalized] = credentialRecord{user: user, hash: hash}
	return user, nil
}

// GetByID looks a user up by id.
func (s *CredentialStore) GetByID(_ context.Context, id string) (identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.users {
		if rec.user.ID == id {
			return rec.user, nil
		}
	}
	return identity.User{}, storage.ErrNotFound
}

// GetByEmail looks a user up by normalized email.
func (s *CredentialStore) GetByEmail(_ context.Context, email string) (identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.users[identity.NormalizeEmail(email)]
	if !ok {
		return identity.User{}, storage.ErrNotFound
	}
	return rec.user, nil
}

// PreferenceStore is a mutex-guarded map from user id to dietary record.
// Timestamps are client-stamped; created_at survives updates.
type PreferenceStore struct {
	mu      sync.RWMutex
	records map[string]preference.Preferences
}

var _ storage.PreferenceStore = (*PreferenceStore)(nil)

// NewPreferenceStore creates an empty preference store.
func NewPreferenceStore() *PreferenceStore {
	return &PreferenceStore{records: make(map[string]preference.Preferences)}
}

// Get returns the record for userID.
func (s *PreferenceStore) Get(_ context.Context, userID string) (preference.Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[userID]
	if !ok {
		return preference.Preferences{}, storage.ErrNotFound
	}
	return rec.Clone(), nil
}

// Create inserts the record for userID.
func (s *PreferenceStore) Create(_ context.Context, userID string, input preference.Input) (preference.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[userID]; exists {
		return preference.Preferences{}, storage.ErrConflict
	}

	now := time.Now().UTC()
	rec := preference.Preferences{
		UserID:              userID,
		Allergies:           input.Allergies,
		DietaryRestrictions: input.DietaryRestrictions,
		HealthGoals:         input.HealthGoals,
		CreatedAt:           now,
		UpdatedAt:           now,
	}.Clone()

	s.records[userID] = rec
	return rec.Clone(), nil
}

// Update replaces the editable fields, preserving created_at.
func (s *PreferenceStore) Update(_ context.Context, userID string, input preference.Input) (preference.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.records[userID]
	if !ok {
		return preference.Preferences{}, storage.ErrNotFound
	}

	rec := preference.Preferences{
		UserID:              userID,
		Allergies:           input.Allergies,
		DietaryRestrictions: input.DietaryRestrictions,
		HealthGoals:         input.HealthGoals,
		CreatedAt:           original.CreatedAt,
		UpdatedAt:           time.Now().UTC(),
	}.Clone()

	s.records[userID] = rec
	return rec.Clone(), nil
}

// Delete removes the record. Deleting an absent record is not an error.
func (s *PreferenceStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, userID)
	return nil
}

// Seed inserts a record directly, for tests.
func (s *PreferenceStore) Seed(rec preference.Preferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.UserID] = rec.Clone()
}
