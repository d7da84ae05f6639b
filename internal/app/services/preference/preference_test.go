package preference

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eatrite/backend/internal/app/domain/preference"
	"github.com/eatrite/backend/internal/app/storage"
	"github.com/eatrite/backend/internal/app/storage/memory"
	"github.com/eatrite/backend/internal/errors"
)

// downStore simulates an unreachable remote backend.
type downStore struct{}

func (downStore) Get(context.Context, string) (preference.Preferences, error) {
	return preference.Preferences{}, storage.ErrUnavailable
}

func (downStore) Create(context.Context, string, preference.Input) (preference.Preferences, error) {
	return preference.Preferences{}, storage.ErrUnavailable
}

func (downStore) Update(context.Context, string, preference.Input) (preference.Preferences, error) {
	return preference.Preferences{}, storage.ErrUnavailable
}

func (downStore) Delete(context.Context, string) error {
	return storage.ErrUnavailable
}

func TestLifecycleLocalOnly(t *testing.T) {
	svc := New(nil, memory.NewPreferenceStore(), nil)
	ctx := context.Background()

	_, err := svc.Get(ctx, "user-1")
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))

	created, err := svc.Create(ctx, "user-1", preference.Input{Allergies: []string{"peanuts"}})
	require.NoError(t, err)
	assert.Equal(t, "user-1", created.UserID)

	_, err = svc.Create(ctx, "user-1", preference.Input{})
	assert.True(t, errors.IsCode(err, errors.CodeConflict))

	got, err := svc.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"peanuts"}, got.Allergies)

	updated, err := svc.Update(ctx, "user-1", preference.Input{Allergies: []string{"milk"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"milk"}, updated.Allergies)
	assert.True(t, !updated.UpdatedAt.Before(created.CreatedAt))

	require.NoError(t, svc.Delete(ctx, "user-1"))
	_, err = svc.Get(ctx, "user-1")
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))

	// Idempotent delete.
	require.NoError(t, svc.Delete(ctx, "user-1"))
}

func TestUpdateWithoutCreateIsNotFound(t *testing.T) {
	svc := New(nil, memory.NewPreferenceStore(), nil)

	_, err := svc.Update(context.Background(), "user-1", preference.Input{})
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestCreateFallsBackWhenRemoteDown(t *testing.T) {
	local := memory.NewPreferenceStore()
	svc := New(downStore{}, local, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, "user-1", preference.Input{Allergies: []string{"soy"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"soy"}, created.Allergies)

	// The record landed in the fallback store.
	stored, err := local.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"soy"}, stored.Allergies)
}

func TestRemoteRecordWins(t *testing.T) {
	remote := memory.NewPreferenceStore()
	remote.Seed(preference.Preferences{UserID: "user-1", Allergies: []string{"remote"}})

	local := memory.NewPreferenceStore()
	local.Seed(preference.Preferences{UserID: "user-1", Allergies: []string{"local"}})

	svc := New(remote, local, nil)
	got, err := svc.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"remote"}, got.Allergies)
}

func TestCreateConflictsWithRemoteRecord(t *testing.T) {
	remote := memory.NewPreferenceStore()
	remote.Seed(preference.Preferences{UserID: "user-1"})

	svc := New(remote, memory.NewPreferenceStore(), nil)
	_, err := svc.Create(context.Background(), "user-1", preference.Input{})
	assert.True(t, errors.IsCode(err, errors.CodeConflict))
}

// partialStore answers reads but fails writes, modeling a backend that
// degrades mid-request.
type partialStore struct {
	inner *memory.PreferenceStore
}

func (s *partialStore) Get(ctx context.Context, userID string) (preference.Preferences, error) {
	return s.inner.Get(ctx, userID)
}

func (s *partialStore) Create(context.Context, string, preference.Input) (preference.Preferences, error) {
	return preference.Preferences{}, storage.ErrUnavailable
}

func (s *partialStore) Update(context.Context, string, preference.Input) (preference.Preferences, error) {
	return preference.Preferences{}, storage.ErrUnavailable
}

func (s *partialStore) Delete(context.Context, string) error {
	return storage.ErrUnavailable
}

func TestUpdateMigratesRemoteOnlyRecordIntoFallback(t *testing.T) {
	inner := memory.NewPreferenceStore()
	inner.Seed(preference.Preferences{UserID: "user-1", Allergies: []string{"remote"}})
	remote := &partialStore{inner: inner}

	local := memory.NewPreferenceStore()
	svc := New(remote, local, nil)

	updated, err := svc.Update(context.Background(), "user-1", preference.Input{Allergies: []string{"new"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, updated.Allergies)

	// The updated record now lives in the fallback.
	stored, err := local.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, stored.Allergies)
}

func TestDeleteSucceedsWhenRemoteDown(t *testing.T) {
	local := memory.NewPreferenceStore()
	local.Seed(preference.Preferences{UserID: "user-1"})

	svc := New(downStore{}, local, nil)
	require.NoError(t, svc.Delete(context.Background(), "user-1"))

	_, err := local.Get(context.Background(), "user-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
