package domain

import (
	"time"
)

// Session is the authenticated identity and credential held by the client.
// Token and User are always set together.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Valid reports whether the session carries a usable credential.
func (s *Session) Valid() bool {
	return s != nil && s.Token != ""
}

// APISession is a bearer token issued by the backend.
type APISession struct {
	Token     string
	AccountID string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token is past its lifetime.
func (s *APISession) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
