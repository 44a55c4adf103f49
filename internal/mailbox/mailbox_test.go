package mailbox

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/ashureev/notifyhub/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		subject, body string
		want          domain.Priority
	}{
		{"Interview Invitation", "", domain.PriorityHigh},
		{"Weekly sync", "this is URGENT", domain.PriorityHigh},
		{"Team Meeting Reminder", "", domain.PriorityMedium},
		{"Weekly Tech Newsletter", "", domain.PriorityLow},
		{"50% Off Sale", "", domain.PriorityLow},
		{"Job offer", "newsletter", domain.PriorityHigh},
		{"hello", "how are you", domain.PriorityMedium},
	}
	for _, tt := range tests {
		if got := Classify(tt.subject, tt.body); got != tt.want {
			t.Errorf("Classify(%q, %q) = %s, want %s", tt.subject, tt.body, got, tt.want)
		}
	}
}

func TestCleanAddress(t *testing.T) {
	if got := cleanAddress(`"HR Team" <hr@techcorp.com>`); got != "hr@techcorp.com" {
		t.Errorf("got %q", got)
	}
	if got := cleanAddress(" plain@example.com "); got != "plain@example.com" {
		t.Errorf("got %q", got)
	}
}

func TestGoogleAuthorizerNotConfigured(t *testing.T) {
	a := NewGoogleAuthorizer("", "", "http://localhost/cb")
	if _, err := a.AuthCodeURL("s"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("AuthCodeURL err = %v", err)
	}
	if _, err := a.Exchange(context.Background(), "c"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Exchange err = %v", err)
	}
	if !strings.Contains(ErrNotConfigured.Error(), "client") {
		t.Fatal("not-configured error must mention the client")
	}
}

func TestGoogleAuthorizerURL(t *testing.T) {
	a := NewGoogleAuthorizer("id-1", "secret", "http://localhost:8080/api/gmail/oauth/callback")
	raw, err := a.AuthCodeURL("state-xyz")
	if err != nil {
		t.Fatalf("AuthCodeURL: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	q := u.Query()
	if q.Get("state") != "state-xyz" || q.Get("client_id") != "id-1" || q.Get("access_type") != "offline" {
		t.Fatalf("query = %v", q)
	}
}

func TestLinkTokenRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tok := &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer", Expiry: now.Add(time.Hour)}
	link := LinkFromToken("acct", tok, now)
	if link.AccountID != "acct" || !link.Usable(now) {
		t.Fatalf("link = %+v", link)
	}
	back := TokenFromLink(link)
	if back.AccessToken != "a" || back.RefreshToken != "r" || !back.Expiry.Equal(tok.Expiry) {
		t.Fatalf("token = %+v", back)
	}
}

func b64(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func TestGmailSourceFetch(t *testing.T) {
	var authHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/messages"):
			if r.URL.Query().Get("q") != "in:inbox" {
				t.Errorf("q = %q", r.URL.Query().Get("q"))
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"messages": []map[string]string{{"id": "m1"}, {"id": "m2"}, {"id": "broken"}},
			})
		case strings.HasSuffix(r.URL.Path, "/messages/m1"):
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": "m1",
				"payload": map[string]any{
					"mimeType": "multipart/alternative",
					"headers": []map[string]string{
						{"name": "From", "value": "HR <hr@techcorp.com>"},
						{"name": "Subject", "value": "Interview Invitation"},
						{"name": "Date", "value": "Mon, 02 Jan 2006 15:04:05 -0700"},
					},
					"parts": []map[string]any{
						{"mimeType": "text/html", "body": map[string]string{"data": b64("<p>html</p>")}},
						{"mimeType": "text/plain", "body": map[string]string{"data": b64("See you tomorrow")}},
					},
				},
			})
		case strings.HasSuffix(r.URL.Path, "/messages/m2"):
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":           "m2",
				"internalDate": "1700000000000",
				"payload": map[string]any{
					"mimeType": "text/plain",
					"headers":  []map[string]string{{"name": "From", "value": "deals@shopping.com"}},
					"body":     map[string]string{"data": b64("Huge sale today")},
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"not found"}}`))
		}
	}))
	defer srv.Close()

	src := NewGmailSource(&oauth2.Config{}, 10, nil)
	src.endpoint = srv.URL + "/"

	link := &domain.MailboxLink{AccountID: "acct", AccessToken: "live-token", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}
	msgs, refreshed, err := src.Fetch(context.Background(), link)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if refreshed != nil {
		t.Fatalf("unexpected token refresh: %+v", refreshed)
	}
	if authHeader != "Bearer live-token" {
		t.Fatalf("Authorization = %q", authHeader)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}

	first := msgs[0]
	if first.ID != "m1" || first.Sender != "hr@techcorp.com" || first.Body != "See you tomorrow" || first.Priority != domain.PriorityHigh {
		t.Fatalf("first = %+v", first)
	}
	if first.Timestamp.Year() != 2006 {
		t.Fatalf("timestamp = %v", first.Timestamp)
	}

	second := msgs[1]
	if second.Subject != "No Subject" || second.Priority != domain.PriorityLow {
		t.Fatalf("second = %+v", second)
	}
	if !second.Timestamp.Equal(time.UnixMilli(1700000000000)) {
		t.Fatalf("timestamp = %v", second.Timestamp)
	}
}

func TestPreviewTruncates(t *testing.T) {
	long := strings.Repeat("é", bodyPreviewLen+10)
	got := preview(long)
	if !strings.HasSuffix(got, "...") || len([]rune(got)) != bodyPreviewLen+3 {
		t.Fatalf("preview length = %d", len([]rune(got)))
	}
	if preview("short") != "short" {
		t.Fatal("short body must be unchanged")
	}
}
