package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	tests := []struct {
		name       string
		allowed    []string
		method     string
		origin     string
		preflight  bool
		wantStatus int
		wantOrigin string
		wantCreds  bool
	}{
		{"explicit origin", []string{"http://hub.local"}, http.MethodGet, "http://hub.local", false, http.StatusTeapot, "http://hub.local", true},
		{"unknown origin", []string{"http://hub.local"}, http.MethodGet, "http://evil.local", false, http.StatusTeapot, "", false},
		{"wildcard no creds", []string{"*"}, http.MethodGet, "http://any.local", false, http.StatusTeapot, "http://any.local", false},
		{"preflight", []string{"*"}, http.MethodOptions, "http://any.local", true, http.StatusNoContent, "http://any.local", false},
		{"plain options passes", []string{"*"}, http.MethodOptions, "", false, http.StatusTeapot, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, "/api/gmail/status", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				r.Header.Set("Access-Control-Request-Method", http.MethodGet)
			}
			w := httptest.NewRecorder()
			CORS(tt.allowed)(next).ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("allow-origin = %q, want %q", got, tt.wantOrigin)
			}
			if got := w.Header().Get("Access-Control-Allow-Credentials") == "true"; got != tt.wantCreds {
				t.Errorf("credentials = %v, want %v", got, tt.wantCreds)
			}
		})
	}
}
