// Package identity holds the visitor identity attached to chat sessions.
package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserIdentity is a visitor identification token plus the email it was
// issued for. It lives in memory only.
type UserIdentity struct {
	Token string
	Email string
}

// New returns an identity when both token and email are non-empty.
func New(token, email string) (UserIdentity, bool) {
	id := UserIdentity{Token: token, Email: email}
	return id, id.Valid()
}

// Valid reports whether both fields are set.
func (u UserIdentity) Valid() bool {
	return u.Token != "" && u.Email != ""
}

// IsZero reports whether no identity is held.
func (u UserIdentity) IsZero() bool {
	return u.Token == "" && u.Email == ""
}

// ErrNoExpiry is returned when a token carries no exp claim.
var ErrNoExpiry = errors.New("token has no expiry")

// TokenExpiry reads the exp claim of a visitor token without verifying the
// signature. Signing keys belong to the backend; this is only used to warn
// about stale tokens.
func TokenExpiry(token string) (time.Time, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return time.Time{}, fmt.Errorf("parse token: empty")
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("parse token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("parse token: %w", err)
	}
	if exp == nil {
		return time.Time{}, ErrNoExpiry
	}
	return exp.Time, nil
}

// Expired reports whether token has an exp claim at or before now. Tokens
// that cannot be parsed are not considered expired.
func Expired(token string, now time.Time) bool {
	exp, err := TokenExpiry(token)
	if err != nil {
		return false
	}
	return !exp.After(now)
}
