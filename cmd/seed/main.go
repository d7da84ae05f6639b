// Package main seeds a demo user into the configured identity backend so a
// fresh deployment has working credentials for the mobile client.
package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/eatrite/backend/internal/app/storage"
	supabasestore "github.com/eatrite/backend/internal/app/storage/supabase"
	"github.com/eatrite/backend/internal/config"
	"github.com/eatrite/backend/internal/supabase"
)

func main() {
	var (
		envFile  = flag.String("env", ".env", "Path to .env file with Supabase credentials")
		email    = flag.String("email", "test@example.com", "Email for the seeded user")
		password = flag.String("password", "secret", "Password for the seeded user")
		fullName = flag.String("full-name", "Test User", "Full name for the seeded user")
		timeout  = flag.Duration("timeout", 15*time.Second, "Request timeout")
	)
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("no env file at %s, using process environment", *envFile)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}
	if !cfg.SupabaseConfigured() {
		log.Fatal("SUPABASE_URL and SUPABASE_SERVICE_KEY must be set; the in-memory fallback seeds itself on startup")
	}

	client, err := supabase.NewClient(supabase.Config{
		URL:        cfg.SupabaseURL,
		AnonKey:    cfg.SupabaseAnonKey,
		ServiceKey: cfg.SupabaseServiceKey,
		Timeout:    *timeout,
	})
	if err != nil {
		log.Fatalf("create supabase client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store := supabasestore.NewCredentialStore(client)
	user, err := store.Register(ctx, *email, *password, *fullName)
	switch {
	case err == nil:
		fmt.Printf("Seeded user %s (id %s)\n", user.Email, user.ID)
	case stderrors.Is(err, storage.ErrConflict):
		fmt.Printf("User %s already exists, nothing to do\n", *email)
	default:
		log.Fatalf("seed user: %v", err)
	}
}
