package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ashureev/notifyhub/internal/domain"
	"github.com/ashureev/notifyhub/internal/store"
)

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":  "abc",
		"bearer  abc": "abc",
		"Basic abc":   "",
		"":            "",
		"Bearer":      "",
	}
	for header, want := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		if got := BearerToken(r); got != want {
			t.Errorf("BearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}

func TestNewTokenUnique(t *testing.T) {
	a, err := NewToken()
	if err != nil {
		t.Fatalf("NewToken: %v", err)
	}
	b, _ := NewToken()
	if a == b || len(a) != 64 {
		t.Fatalf("tokens %q %q", a, b)
	}
}

func TestMiddleware(t *testing.T) {
	repo, err := store.NewSQLite(t.TempDir() + "/id.db")
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()
	if err := repo.CreateAccount(ctx, &domain.Account{ID: "acct-1", Username: "ada", Email: "ada@example.com", PasswordHash: "x", CreatedAt: now}); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	for token, exp := range map[string]time.Time{"good": now.Add(time.Hour), "old": now.Add(-time.Minute)} {
		if err := repo.CreateAPISession(ctx, &domain.APISession{Token: token, AccountID: "acct-1", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: exp}); err != nil {
			t.Fatalf("CreateAPISession: %v", err)
		}
	}

	var seen string
	h := Middleware(repo, func() time.Time { return now })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = AccountIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer unknown", http.StatusUnauthorized},
		{"Bearer old", http.StatusUnauthorized},
		{"Bearer good", http.StatusNoContent},
	}
	for _, tt := range tests {
		seen = ""
		r := httptest.NewRequest(http.MethodGet, "/api/gmail/status", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != tt.want {
			t.Errorf("%q: status = %d, want %d", tt.header, w.Code, tt.want)
		}
		if tt.want == http.StatusNoContent && seen != "acct-1" {
			t.Errorf("%q: account = %q", tt.header, seen)
		}
	}
}
