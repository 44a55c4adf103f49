package oauthlink

import (
	"net/url"
	"testing"

	"github.com/ashureev/notifyhub/internal/domain"
)

func TestParseCallback(t *testing.T) {
	tests := []struct {
		query string
		want  domain.OAuthCallback
	}{
		{"", domain.OAuthCallback{Kind: domain.CallbackNone}},
		{"tab=low", domain.OAuthCallback{Kind: domain.CallbackNone}},
		{"gmail_code=X&gmail_state=Y", domain.OAuthCallback{Kind: domain.CallbackCodeExchange, Code: "X", State: "Y"}},
		{"gmail_code=X", domain.OAuthCallback{Kind: domain.CallbackCodeExchange, Code: "X"}},
		{"gmail_connected=true", domain.OAuthCallback{Kind: domain.CallbackDirectResult, Connected: true}},
		{"gmail_connected=false&message=denied", domain.OAuthCallback{Kind: domain.CallbackDirectResult, Detail: "denied"}},
		{"gmail_connected=false&error=boom", domain.OAuthCallback{Kind: domain.CallbackDirectResult, Detail: "boom"}},
		{"gmail_error=access_denied", domain.OAuthCallback{Kind: domain.CallbackError, Detail: "access_denied"}},
		// precedence
		{"gmail_connected=false&gmail_code=X&gmail_state=Y", domain.OAuthCallback{Kind: domain.CallbackCodeExchange, Code: "X", State: "Y"}},
		{"gmail_error=e&gmail_connected=true", domain.OAuthCallback{Kind: domain.CallbackDirectResult, Connected: true}},
		{"gmail_error=e&gmail_code=X", domain.OAuthCallback{Kind: domain.CallbackCodeExchange, Code: "X"}},
	}

	for _, tt := range tests {
		q, err := url.ParseQuery(tt.query)
		if err != nil {
			t.Fatalf("ParseQuery(%q): %v", tt.query, err)
		}
		if got := ParseCallback(q); got != tt.want {
			t.Errorf("ParseCallback(%q) = %+v, want %+v", tt.query, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://localhost:8080/dashboard?gmail_code=X&gmail_state=Y", "http://localhost:8080/dashboard"},
		{"http://localhost:8080/dashboard?gmail_connected=false&message=no&tab=high", "http://localhost:8080/dashboard?tab=high"},
		{"http://localhost:8080/dashboard?gmail_error=x#top", "http://localhost:8080/dashboard#top"},
		{"http://localhost:8080/", "http://localhost:8080/"},
		{"https://app.example/search?error=none&message=hello&q=x", "https://app.example/search?error=none&message=hello&q=x"},
		{"https://app.example/dashboard?gmail_code=X&message=hello", "https://app.example/dashboard?message=hello"},
	}
	for _, tt := range tests {
		u, err := url.Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		got := Normalize(u)
		if got.String() != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if HasCallbackParams(got) {
			t.Errorf("Normalize(%q) left callback params", tt.in)
		}
		if u.String() != tt.in {
			t.Errorf("Normalize mutated its input: %q", u)
		}
	}
}

func TestHasCallbackParamsIgnoresAppMessage(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://app.example/search?q=x&message=hello&error=none", false},
		{"https://app.example/dashboard?gmail_connected=true&message=ok", true},
		{"https://app.example/dashboard?gmail_state=Y", true},
	}
	for _, tt := range tests {
		u, err := url.Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if got := HasCallbackParams(u); got != tt.want {
			t.Errorf("HasCallbackParams(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
