// Package app wires the storage adapters and domain services together.
package app

import (
	authsvc "github.com/eatrite/backend/internal/app/services/auth"
	preferencesvc "github.com/eatrite/backend/internal/app/services/preference"
	scansvc "github.com/eatrite/backend/internal/app/services/scan"
	"github.com/eatrite/backend/internal/app/storage"
	"github.com/eatrite/backend/internal/app/storage/memory"
	supabasestore "github.com/eatrite/backend/internal/app/storage/supabase"
	"github.com/eatrite/backend/internal/config"
	"github.com/eatrite/backend/internal/logging"
	"github.com/eatrite/backend/internal/supabase"
	"github.com/eatrite/backend/internal/token"
)

// Stores encapsulates persistence dependencies. Local stores default to the
// in-memory implementation; remote stores stay nil when no backend is
// configured and every call lands on the fallback.
type Stores struct {
	RemoteCredentials storage.CredentialStore
	LocalCredentials  storage.CredentialStore
	RemotePreferences storage.PreferenceStore
	LocalPreferences  storage.PreferenceStore
}

// Application ties the domain services together.
type Application struct {
	log *logging.Logger

	Tokens      *token.Service
	Auth        *authsvc.Service
	Preferences *preferencesvc.Service
	Scans       *scansvc.Service
}

// New builds a fully initialised application with the provided stores.
func New(cfg *config.Config, stores Stores, log *logging.Logger) (*Application, error) {
	if log == nil {
		log = logging.NewDefault("app")
	}

	if stores.LocalCredentials == nil {
		creds := memory.NewCredentialStore()
		if err := creds.SeedDefaultUser(); err != nil {
			return nil, err
		}
		stores.LocalCredentials = creds
	}
	if stores.LocalPreferences == nil {
		stores.LocalPreferences = memory.NewPreferenceStore()
	}

	if stores.RemoteCredentials == nil && stores.RemotePreferences == nil && cfg.SupabaseConfigured() {
		client, err := supabase.NewClient(supabase.Config{
			URL:        cfg.SupabaseURL,
			AnonKey:    cfg.SupabaseAnonKey,
			ServiceKey: cfg.SupabaseServiceKey,
		})
		if err != nil {
			return nil, err
		}
		stores.RemoteCredentials = supabasestore.NewCredentialStore(client)
		stores.RemotePreferences = supabasestore.NewPreferenceStore(client)
		log.WithFields(map[string]interface{}{"url": cfg.SupabaseURL}).Info("supabase backend configured")
	} else if !cfg.SupabaseConfigured() {
		log.Warn("supabase not configured; running on in-memory fallback only")
	}

	tokens := token.New(cfg.SecretKey, cfg.TokenTTL())
	preferences := preferencesvc.New(stores.RemotePreferences, stores.LocalPreferences, log)

	return &Application{
		log:         log,
		Tokens:      tokens,
		Auth:        authsvc.New(stores.RemoteCredentials, stores.LocalCredentials, tokens, log),
		Preferences: preferences,
		Scans:       scansvc.New(preferences),
	}, nil
}
