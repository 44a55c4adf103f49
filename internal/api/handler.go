// Package api provides the HTTP handlers of the reference backend.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ashureev/notifyhub/internal/mailbox"
	"github.com/ashureev/notifyhub/internal/store"
)

// DefaultSessionTTL is the lifetime of an issued bearer token.
const DefaultSessionTTL = 24 * time.Hour

// Handler provides common handler utilities.
type Handler struct {
	repo        store.Repository
	auth        mailbox.Authorizer
	source      mailbox.Source
	frontendURL string
	sessionTTL  time.Duration
	now         func() time.Time
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(repo store.Repository, auth mailbox.Authorizer, source mailbox.Source, frontendURL string, sessionTTL time.Duration) *Handler {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &Handler{
		repo:        repo,
		auth:        auth,
		source:      source,
		frontendURL: frontendURL,
		sessionTTL:  sessionTTL,
		now:         time.Now,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response in the {success, error, message} shape
// the client expects.
func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, map[string]interface{}{
		"success": false,
		"error":   code,
		"message": message,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return dec.Decode(v)
}
