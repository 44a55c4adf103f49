// Package identity authenticates API requests by bearer token.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ashureev/notifyhub/internal/store"
)

type contextKey int

const (
	accountIDKey contextKey = iota
	tokenKey
)

const unauthorizedBody = `{"success":false,"error":"UNAUTHORIZED","message":"Invalid or expired token"}`

// AccountIDFromContext extracts the authenticated account ID.
func AccountIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(accountIDKey).(string); ok {
		return v
	}
	return ""
}

// TokenFromContext extracts the bearer token the request was authorized with.
func TokenFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(tokenKey).(string); ok {
		return v
	}
	return ""
}

// WithAccount returns ctx carrying accountID, for handlers under test.
func WithAccount(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountIDKey, accountID)
}

// NewToken generates an opaque bearer token.
func NewToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// BearerToken returns the token of an `Authorization: Bearer` header, or "".
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// Middleware rejects requests without a known, unexpired bearer token with
// 401 and injects the account ID otherwise.
func Middleware(repo store.Repository, now func() time.Time) func(http.Handler) http.Handler {
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				unauthorized(w)
				return
			}

			sess, err := repo.GetAPISession(r.Context(), token)
			if err != nil {
				slog.Error("Failed to look up session", "error", err, "ip", IPFromRequest(r))
				http.Error(w, `{"success":false,"error":"INTERNAL_ERROR"}`, http.StatusInternalServerError)
				return
			}
			if sess == nil || sess.Expired(now()) {
				slog.Info("Rejected bearer token", "path", r.URL.Path, "known", sess != nil, "ip", IPFromRequest(r))
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), accountIDKey, sess.AccountID)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(unauthorizedBody))
}

// IPFromRequest returns a normalized remote IP for request tracing.
func IPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
