// Package oauthlink drives the mail-account linking handshake: starting the
// authorization redirect and settling the callback found in a landing URL.
package oauthlink

import (
	"net/url"
	"strings"

	"github.com/ashureev/notifyhub/internal/domain"
)

// Query parameters the backend may place on the landing URL.
const (
	ParamCode      = "gmail_code"
	ParamState     = "gmail_state"
	ParamConnected = "gmail_connected"
	ParamMessage   = "message"
	ParamError     = "error"
	ParamLinkError = "gmail_error"
)

// linkParams are owned by the linking handshake wherever they appear.
var linkParams = []string{ParamCode, ParamState, ParamConnected, ParamLinkError}

// resultDetailParams only belong to the handshake next to ParamConnected.
var resultDetailParams = []string{ParamMessage, ParamError}

func callbackKeys(q url.Values) []string {
	if !q.Has(ParamConnected) {
		return linkParams
	}
	return append(append([]string(nil), linkParams...), resultDetailParams...)
}

// ParseCallback interprets q. A code to exchange wins over a status flag,
// which wins over a bare error.
func ParseCallback(q url.Values) domain.OAuthCallback {
	if q.Has(ParamCode) {
		return domain.OAuthCallback{
			Kind:  domain.CallbackCodeExchange,
			Code:  q.Get(ParamCode),
			State: q.Get(ParamState),
		}
	}
	if q.Has(ParamConnected) {
		detail := q.Get(ParamMessage)
		if detail == "" {
			detail = q.Get(ParamError)
		}
		return domain.OAuthCallback{
			Kind:      domain.CallbackDirectResult,
			Connected: strings.EqualFold(q.Get(ParamConnected), "true"),
			Detail:    detail,
		}
	}
	if q.Has(ParamLinkError) {
		return domain.OAuthCallback{Kind: domain.CallbackError, Detail: q.Get(ParamLinkError)}
	}
	return domain.OAuthCallback{Kind: domain.CallbackNone}
}

// Normalize returns u without the callback parameters. message and error
// count as callback parameters only alongside gmail_connected. Unrelated
// query parameters and the fragment are kept.
func Normalize(u *url.URL) *url.URL {
	clean := *u
	q := u.Query()
	for _, p := range callbackKeys(q) {
		q.Del(p)
	}
	clean.RawQuery = q.Encode()
	return &clean
}

// HasCallbackParams reports whether u carries any parameter Normalize strips.
func HasCallbackParams(u *url.URL) bool {
	q := u.Query()
	for _, p := range callbackKeys(q) {
		if q.Has(p) {
			return true
		}
	}
	return false
}
