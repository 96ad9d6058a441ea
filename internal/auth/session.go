package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tabiplan/backend/internal/domain"
)

// Sessions issues and verifies the HS256 tokens the API uses as its own
// session credential after a successful Google sign-in. Sign-out is
// stateless: the client discards the token and it ages out at exp.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// sessionClaims embeds the principal's display fields in the token so
// request handling never needs a provider round-trip.
type sessionClaims struct {
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	jwt.RegisteredClaims
}

// NewSessions constructs a session issuer/verifier.
// ttl bounds how long a sign-in lasts before the user must re-authenticate.
func NewSessions(secret string, ttl time.Duration) *Sessions {
	return &Sessions{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a session token for the principal.
func (s *Sessions) Issue(principal domain.Principal) (string, error) {
	now := s.now()
	claims := sessionClaims{
		Name:      principal.Name,
		Email:     principal.Email,
		AvatarURL: principal.AvatarURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth.Sessions.Issue: %w", err)
	}
	return token, nil
}

// Verify parses and validates a session token and returns the principal it
// carries. Expired, tampered, or otherwise invalid tokens return
// domain.ErrAuthentication.
func (s *Sessions) Verify(token string) (domain.Principal, error) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil || !parsed.Valid {
		if err == nil {
			err = errors.New("token invalid")
		}
		return domain.Principal{}, fmt.Errorf("auth.Sessions.Verify: %w: %v", domain.ErrAuthentication, err)
	}
	if claims.Subject == "" {
		return domain.Principal{}, fmt.Errorf("auth.Sessions.Verify: %w: missing subject", domain.ErrAuthentication)
	}

	return domain.Principal{
		ID:        claims.Subject,
		Name:      claims.Name,
		Email:     claims.Email,
		AvatarURL: claims.AvatarURL,
	}, nil
}
