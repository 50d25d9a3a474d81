// internal/common/auth/credential.go
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credential is a bearer access token and its expiry. A zero ExpiresAt
// means the token carries no expiry.
type Credential struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Valid reports whether the credential is usable at now with skew to spare.
func (c *Credential) Valid(now time.Time, skew time.Duration) bool {
	if c == nil || c.AccessToken == "" {
		return false
	}
	if c.ExpiresAt.IsZero() {
		return true
	}
	return now.Add(skew).Before(c.ExpiresAt)
}

// TokenSource obtains a fresh credential. It is what "re-authentication"
// means for a non-interactive client.
type TokenSource interface {
	Token(ctx context.Context) (*Credential, error)
}

// StaticSource serves a pre-issued bearer token.
type StaticSource struct {
	token string
}

func NewStaticSource(token string) *StaticSource {
	return &StaticSource{token: token}
}

func (s *StaticSource) Token(_ context.Context) (*Credential, error) {
	if s.token == "" {
		return nil, fmt.Errorf("no static token configured")
	}
	expiresAt, err := ExpiryOf(s.token)
	if err != nil {
		return nil, err
	}
	return &Credential{AccessToken: s.token, ExpiresAt: expiresAt}, nil
}

// ExpiryOf reads the exp claim of a JWT without verifying its signature;
// verification is the backend's job. Opaque tokens have no expiry.
func ExpiryOf(token string) (time.Time, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, nil
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid exp claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, nil
	}
	return exp.Time, nil
}

// SubjectOf returns the user the token was issued to: the employee_uid
// claim, else sub. Signatures are not verified.
func SubjectOf(token string) (string, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return "", fmt.Errorf("token is not a JWT: %w", err)
	}
	claims, _ := parsed.Claims.(jwt.MapClaims)
	if uid, ok := claims["employee_uid"].(string); ok && uid != "" {
		return uid, nil
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("token carries no employee_uid or sub claim")
	}
	return sub, nil
}
