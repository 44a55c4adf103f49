// Package mailbox links accounts to Gmail and reads their inbox.
package mailbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailv1 "google.golang.org/api/gmail/v1"

	"github.com/ashureev/notifyhub/internal/domain"
)

// ErrNotConfigured is returned when the OAuth client credentials are
// missing. Its text is relayed to the client, which recognizes it by the
// word "client".
var ErrNotConfigured = errors.New("gmail oauth client credentials are not configured")

// Authorizer runs the authorization-code flow against the mail provider.
type Authorizer interface {
	// AuthCodeURL returns the provider URL the user must visit.
	AuthCodeURL(state string) (string, error)

	// Exchange trades an authorization code for tokens.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// GoogleAuthorizer is the Authorizer for Google accounts.
type GoogleAuthorizer struct {
	cfg *oauth2.Config
}

// NewGoogleAuthorizer creates an Authorizer requesting read-only Gmail
// access. Empty credentials produce an Authorizer that always fails with
// ErrNotConfigured.
func NewGoogleAuthorizer(clientID, clientSecret, redirectURL string) *GoogleAuthorizer {
	return &GoogleAuthorizer{cfg: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmailv1.GmailReadonlyScope},
	}}
}

// Config returns the underlying OAuth configuration.
func (a *GoogleAuthorizer) Config() *oauth2.Config {
	return a.cfg
}

func (a *GoogleAuthorizer) configured() bool {
	return a.cfg.ClientID != "" && a.cfg.ClientSecret != ""
}

func (a *GoogleAuthorizer) AuthCodeURL(state string) (string, error) {
	if !a.configured() {
		return "", ErrNotConfigured
	}
	return a.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

func (a *GoogleAuthorizer) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if !a.configured() {
		return nil, ErrNotConfigured
	}
	tok, err := a.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}
	return tok, nil
}

// LinkFromToken builds the stored link for accountID from tok.
func LinkFromToken(accountID string, tok *oauth2.Token, now time.Time) *domain.MailboxLink {
	return &domain.MailboxLink{
		AccountID:    accountID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// TokenFromLink is the inverse of LinkFromToken.
func TokenFromLink(link *domain.MailboxLink) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  link.AccessToken,
		RefreshToken: link.RefreshToken,
		TokenType:    link.TokenType,
		Expiry:       link.Expiry,
	}
}
