package domain

import "time"

// LinkStatus is the mail-account link state reported by the backend.
type LinkStatus struct {
	Connected bool `json:"connected"`
}

// CallbackKind discriminates the shapes an OAuth landing URL can take.
type CallbackKind int

const (
	CallbackNone CallbackKind = iota
	CallbackCodeExchange
	CallbackDirectResult
	CallbackError
)

func (k CallbackKind) String() string {
	switch k {
	case CallbackCodeExchange:
		return "code_exchange"
	case CallbackDirectResult:
		return "direct_result"
	case CallbackError:
		return "error"
	default:
		return "none"
	}
}

// OAuthCallback is the single interpretation of a landing URL's callback
// parameters. Code and State are set for CallbackCodeExchange, Connected
// for CallbackDirectResult, Detail for the result and error kinds.
type OAuthCallback struct {
	Kind      CallbackKind
	Code      string
	State     string
	Connected bool
	Detail    string
}

// MailboxLink is the backend's record of a linked mail account.
type MailboxLink struct {
	AccountID    string
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Usable reports whether the link can still authorize API calls, either
// directly or by refreshing.
func (l *MailboxLink) Usable(now time.Time) bool {
	if l == nil {
		return false
	}
	if l.RefreshToken != "" {
		return true
	}
	return l.AccessToken != "" && (l.Expiry.IsZero() || now.Before(l.Expiry))
}

// OAuthState binds an authorization request to the account that started it.
type OAuthState struct {
	State     string
	AccountID string
	CreatedAt time.Time
}
