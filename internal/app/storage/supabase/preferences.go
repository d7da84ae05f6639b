package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	neturl "net/url"
	"time"

	"github.com/eatrite/backend/internal/app/domain/preference"
	"github.com/eatrite/backend/internal/app/storage"
	"github.com/eatrite/backend/internal/supabase"
)

const preferencesTable = "user_preferences"

// PreferenceStore persists dietary records in the user_preferences table.
type PreferenceStore struct {
	client *supabase.Client
}

var _ storage.PreferenceStore = (*PreferenceStore)(nil)

// NewPreferenceStore wraps a Supabase client.
func NewPreferenceStore(client *supabase.Client) *PreferenceStore {
	return &PreferenceStore{client: client}
}

func userFilter(userID string) string {
	return "user_id=eq." + neturl.QueryEscape(userID)
}

// Get returns the row for userID.
func (s *PreferenceStore) Get(ctx context.Context, userID string) (preference.Preferences, error) {
	body, err := s.client.Select(ctx, preferencesTable, userFilter(userID)+"&select=*&limit=1")
	if err != nil {
		return preference.Preferences{}, storage.ErrUnavailable
	}
	return decodeSingle(body)
}

// Create inserts a row with server-stamped timestamps.
func (s *PreferenceStore) Create(ctx context.Context, userID string, input preference.Input) (preference.Preferences, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	row := map[string]interface{}{
		"user_id":              userID,
		"allergies":            emptyIfNil(input.Allergies),
		"dietary_restrictions": emptyIfNil(input.DietaryRestrictions),
		"health_goals":         input.HealthGoals,
		"created_at":           now,
		"updated_at":           now,
	}

	body, err := s.client.Insert(ctx, preferencesTable, row)
	if err != nil {
		if supabase.StatusOf(err) == http.StatusConflict {
			return preference.Preferences{}, storage.ErrConflict
		}
		return preference.Preferences{}, storage.ErrUnavailable
	}
	return decodeSingle(body)
}

// Update patches the editable fields of the row for userID.
func (s *PreferenceStore) Update(ctx context.Context, userID string, input preference.Input) (preference.Preferences, error) {
	row := map[string]interface{}{
		"allergies":            emptyIfNil(input.Allergies),
		"dietary_restrictions": emptyIfNil(input.DietaryRestrictions),
		"health_goals":         input.HealthGoals,
		"updated_at":           time.Now().UTC().Format(time.RFC3339),
	}

	body, err := s.client.Update(ctx, preferencesTable, userFilter(userID), row)
	if err != nil {
		return preference.Preferences{}, storage.ErrUnavailable
	}
	return decodeSingle(body)
}

// Delete removes the row for userID. Zero matched rows is still success.
func (s *PreferenceStore) Delete(ctx context.Context, userID string) error {
	if err := s.client.Delete(ctx, preferencesTable, userFilter(userID)); err != nil {
		return storage.ErrUnavailable
	}
	return nil
}

// decodeSingle unwraps the single-row PostgREST representation. An empty
// result set means the row is absent.
func decodeSingle(body []byte) (preference.Preferences, error) {
	var rows []preference.Preferences
	if err := json.Unmarshal(body, &rows); err != nil {
		// PostgREST may return a bare object when Prefer resolution is
		// set to a single representation.
		var row preference.Preferences
		if objErr := json.Unmarshal(body, &row); objErr == nil && row.UserID != "" {
			return row, nil
		}
		return preference.Preferences{}, fmt.Errorf("decode preferences: %w", err)
	}
	if len(rows) == 0 {
		return preference.Preferences{}, storage.ErrNotFound
	}
	return rows[0], nil
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
