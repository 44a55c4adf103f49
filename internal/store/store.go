// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ashureev/notifyhub/internal/domain"
)

// ErrDuplicate is returned when a unique field (such as an email) is taken.
var ErrDuplicate = errors.New("duplicate record")

// KV is durable string key/value storage, the client's equivalent of
// browser local storage.
type KV interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Put writes all entries atomically.
	Put(ctx context.Context, entries map[string]string) error

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Close releases the underlying storage.
	Close() error
}

// Repository defines the reference backend's persistence.
type Repository interface {
	// CreateAccount inserts a new account. Returns ErrDuplicate if the email
	// or username is already registered.
	CreateAccount(ctx context.Context, account *domain.Account) error

	// GetAccount retrieves an account by ID, or nil if none exists.
	GetAccount(ctx context.Context, id string) (*domain.Account, error)

	// GetAccountByEmail retrieves an account by normalized email, or nil.
	GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error)

	// CreateAPISession stores a newly issued bearer token.
	CreateAPISession(ctx context.Context, session *domain.APISession) error

	// GetAPISession looks up a bearer token, or nil if unknown.
	GetAPISession(ctx context.Context, token string) (*domain.APISession, error)

	// DeleteAPISession revokes a bearer token.
	DeleteAPISession(ctx context.Context, token string) error

	// CleanupExpiredSessions removes tokens that expired before now.
	CleanupExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	// SaveOAuthState records a pending authorization request.
	SaveOAuthState(ctx context.Context, state *domain.OAuthState) error

	// CleanupOAuthStates removes pending authorization requests created
	// before cutoff.
	CleanupOAuthStates(ctx context.Context, cutoff time.Time) (int64, error)

	// ConsumeOAuthState returns and deletes a pending authorization request,
	// or nil if the state is unknown or was already used.
	ConsumeOAuthState(ctx context.Context, state string) (*domain.OAuthState, error)

	// UpsertMailboxLink creates or replaces the mail link of an account.
	UpsertMailboxLink(ctx context.Context, link *domain.MailboxLink) error

	// GetMailboxLink retrieves the mail link of an account, or nil.
	GetMailboxLink(ctx context.Context, accountID string) (*domain.MailboxLink, error)

	// DeleteMailboxLink removes the mail link of an account.
	DeleteMailboxLink(ctx context.Context, accountID string) error

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
