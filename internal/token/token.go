// Package token issues and verifies signed session tokens.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/eatrite/backend/internal/errors"
)

// Claims are the JWT claims carried by a session token.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the verified subject of a session token.
type Identity struct {
	UserID string
	Email  string
}

// Service issues and verifies HS256 session tokens. It is stateless; a
// token's validity is entirely determined by its signature and expiry.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// New creates a token service with the given signing secret and default TTL.
func New(secret string, ttl time.Duration) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns the default token lifetime.
func (s *Service) TTL() time.Duration { return s.ttl }

// Issue encodes the subject id and email into a signed compact token
// expiring after ttl. A non-positive ttl uses the service default.
func (s *Service) Issue(subjectID, email string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.ttl
	}
	now := s.now().UTC()

	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", errors.Internal("Failed to sign token", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded identity.
func (s *Service) Verify(tokenString string) (Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.InvalidToken(nil).WithDetails("method", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))

	if err != nil {
		return Identity{}, errors.InvalidToken(err)
	}
	if !parsed.Valid {
		return Identity{}, errors.InvalidToken(nil)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return Identity{}, errors.InvalidToken(nil).WithDetails("reason", "invalid claims type")
	}
	if claims.Subject == "" {
		return Identity{}, errors.MissingSubject()
	}

	return Identity{UserID: claims.Subject, Email: claims.Email}, nil
}
