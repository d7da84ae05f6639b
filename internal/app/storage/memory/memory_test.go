package memory

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/eatrite/backend/internal/app/domain/preference"
	"github.com/eatrite/backend/internal/app/storage"
)

func TestCredentialRegisterAuthenticate(t *testing.T) {
	store := NewCredentialStore()
	ctx := context.Background()

	created, err := store.Register(ctx, "Alice@Example.com", "hunter2", "Alice")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if created.ID == "" {
		t.Fatal("Register returned empty id")
	}
	if created.Email != "alice@example.com" {
		t.Fatalf("Email = %q, want normalized alice@example.com", created.Email)
	}

	user, err := store.Authenticate(ctx, "alice@example.com", "hunter2")
	if err != nil {
		t.Fatalf("Authenticate error: %v", err)
	}
	if user.ID != created.ID {
		t.Fatalf("Authenticate id = %q, want %q", user.ID, created.ID)
	}

	// Lookup is case-insensitive on email.
	if _, err := store.Authenticate(ctx, "ALICE@example.COM", "hunter2"); err != nil {
		t.Fatalf("Authenticate mixed-case error: %v", err)
	}
}

func TestCredentialWrongPassword(t *testing.T) {
	store := NewCredentialStore()
	ctx := context.Background()

	if _, err := store.Register(ctx, "bob@example.com", "right", ""); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	if _, err := store.Authenticate(ctx, "bob@example.com", "wrong"); !stderrors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Authenticate error = %v, want ErrNotFound", err)
	}
}

func TestCredentialDuplicateEmail(t *testing.T) {
	store := NewCredentialStore()
	ctx := context.Background()

	if _, err := store.Register(ctx, "carol@example.com", "pw", ""); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if _, err := store.Register(ctx, "Carol@Example.com", "pw2", ""); !stderrors.Is(err, storage.ErrConflict) {
		t.Fatalf("Register duplicate error = %v, want ErrConflict", err)
	}
}

func TestCredentialLookups(t *testing.T) {
	store := NewCredentialStore()
	ctx := context.Background()

	created, err := store.Register(ctx, "dan@example.com", "pw", "Dan")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	byID, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if byID.Email != "dan@example.com" {
		t.Fatalf("GetByID email = %q, want dan@example.com", byID.Email)
	}

	byEmail, err := store.GetByEmail(ctx, "DAN@example.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if byEmail.ID != created.ID {
		t.Fatalf("GetByEmail id = %q, want %q", byEmail.ID, created.ID)
	}

	if _, err := store.GetByID(ctx, "nope"); !stderrors.Is(err, storage.ErrNotFound) {
		t.Fatalf("GetByID missing error = %v, want ErrNotFound", err)
	}
}

func TestSeedDefaultUser(t *testing.T) {
	store := NewCredentialStore()
	if err := store.SeedDefaultUser(); err != nil {
		t.Fatalf("SeedDefaultUser error: %v", err)
	}

	user, err := store.Authenticate(context.Background(), DefaultUserEmail, DefaultUserPassword)
	if err != nil {
		t.Fatalf("Authenticate seeded user error: %v", err)
	}
	if user.FullName != "Test User" {
		t.Fatalf("FullName = %q, want Test User", user.FullName)
	}
}

func TestPreferenceLifecycle(t *testing.T) {
	store := NewPreferenceStore()
	ctx := context.Background()
	goals := "lose weight"

	input := preference.Input{
		Allergies:           []string{"peanuts"},
		DietaryRestrictions: []string{"vegan"},
		HealthGoals:         &goals,
	}

	created, err := store.Create(ctx, "user-1", input)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if created.CreatedAt.IsZero() || !created.CreatedAt.Equal(created.UpdatedAt) {
		t.Fatalf("timestamps = %v / %v, want equal and non-zero", created.CreatedAt, created.UpdatedAt)
	}

	if _, err := store.Create(ctx, "user-1", input); !stderrors.Is(err, storage.ErrConflict) {
		t.Fatalf("second Create error = %v, want ErrConflict", err)
	}

	got, err := store.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if len(got.Allergies) != 1 || got.Allergies[0] != "peanuts" {
		t.Fatalf("Allergies = %v, want [peanuts]", got.Allergies)
	}

	updated, err := store.Update(ctx, "user-1", preference.Input{Allergies: []string{"shellfish"}})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("Update CreatedAt = %v, want preserved %v", updated.CreatedAt, created.CreatedAt)
	}
	if updated.UpdatedAt.Before(created.UpdatedAt) {
		t.Fatalf("UpdatedAt = %v, want >= %v", updated.UpdatedAt, created.UpdatedAt)
	}
	if updated.HealthGoals != nil {
		t.Fatalf("HealthGoals = %v, want nil after replacing update", *updated.HealthGoals)
	}

	if err := store.Delete(ctx, "user-1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := store.Get(ctx, "user-1"); !stderrors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Get after delete error = %v, want ErrNotFound", err)
	}

	// Deleting again is still success.
	if err := store.Delete(ctx, "user-1"); err != nil {
		t.Fatalf("second Delete error: %v", err)
	}
}

func TestPreferenceUpdateMissing(t *testing.T) {
	store := NewPreferenceStore()

	_, err := store.Update(context.Background(), "ghost", preference.Input{})
	if !stderrors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Update error = %v, want ErrNotFound", err)
	}
}

func TestPreferenceCloneIsolation(t *testing.T) {
	store := NewPreferenceStore()
	ctx := context.Background()

	created, err := store.Create(ctx, "user-1", preference.Input{Allergies: []string{"milk"}})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	// Mutating the returned slice must not affect the stored record.
	created.Allergies[0] = "mutated"

	got, err := store.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Allergies[0] != "milk" {
		t.Fatalf("Allergies[0] = %q, want milk", got.Allergies[0])
	}
}
