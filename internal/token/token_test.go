package token

import (
	"testing"
	"time"

	"github.com/eatrite/backend/internal/errors"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	svc := New("test-secret", 30*time.Minute)

	signed, err := svc.Issue("user-123", "user@example.com", 0)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	id, err := svc.Verify(signed)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if id.UserID != "user-123" {
		t.Fatalf("UserID = %q, want user-123", id.UserID)
	}
	if id.Email != "user@example.com" {
		t.Fatalf("Email = %q, want user@example.com", id.Email)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := New("secret-a", 30*time.Minute)
	verifier := New("secret-b", 30*time.Minute)

	signed, err := issuer.Issue("user-123", "", 0)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if _, err := verifier.Verify(signed); !errors.IsCode(err, errors.CodeInvalidToken) {
		t.Fatalf("Verify error = %v, want INVALID_TOKEN", err)
	}
}

func TestVerifyExpiryBoundary(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := New("test-secret", 30*time.Minute)
	svc.now = func() time.Time { return base }

	signed, err := svc.Issue("user-123", "", 0)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	// Just inside the lifetime.
	svc.now = func() time.Time { return base.Add(30*time.Minute - time.Second) }
	if _, err := svc.Verify(signed); err != nil {
		t.Fatalf("Verify before expiry error: %v", err)
	}

	// Just past it.
	svc.now = func() time.Time { return base.Add(30*time.Minute + time.Second) }
	if _, err := svc.Verify(signed); !errors.IsCode(err, errors.CodeInvalidToken) {
		t.Fatalf("Verify after expiry error = %v, want INVALID_TOKEN", err)
	}
}

func TestIssueExplicitTTLOverridesDefault(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := New("test-secret", 30*time.Minute)
	svc.now = func() time.Time { return base }

	signed, err := svc.Issue("user-123", "", time.Hour)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	svc.now = func() time.Time { return base.Add(45 * time.Minute) }
	if _, err := svc.Verify(signed); err != nil {
		t.Fatalf("Verify inside explicit TTL error: %v", err)
	}
}

func TestVerifyMissingSubject(t *testing.T) {
	svc := New("test-secret", 30*time.Minute)

	signed, err := svc.Issue("", "user@example.com", 0)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if _, err := svc.Verify(signed); !errors.IsCode(err, errors.CodeMissingSubject) {
		t.Fatalf("Verify error = %v, want MISSING_SUBJECT", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	svc := New("test-secret", 30*time.Minute)

	for _, tokenString := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := svc.Verify(tokenString); !errors.IsCode(err, errors.CodeInvalidToken) {
			t.Fatalf("Verify(%q) error = %v, want INVALID_TOKEN", tokenString, err)
		}
	}
}
