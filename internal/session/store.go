package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ashureev/notifyhub/internal/domain"
	"github.com/ashureev/notifyhub/internal/store"
)

// Keys of the two persisted entries. Both are present or both are absent.
const (
	TokenKey = "hub_token"
	UserKey  = "hub_user"
)

// PersistedStore mirrors the active session into durable key/value storage.
type PersistedStore struct {
	kv     store.KV
	logger *slog.Logger
}

// NewPersistedStore wraps kv.
func NewPersistedStore(kv store.KV, logger *slog.Logger) *PersistedStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PersistedStore{kv: kv, logger: logger}
}

// Save writes the token and the encoded user profile together.
func (p *PersistedStore) Save(ctx context.Context, s domain.Session) error {
	user, err := json.Marshal(s.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := p.kv.Put(ctx, map[string]string{
		TokenKey: s.Token,
		UserKey:  string(user),
	}); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// Load returns the persisted session, or nil when either entry is missing,
// the profile does not decode, or storage cannot be read.
func (p *PersistedStore) Load(ctx context.Context) *domain.Session {
	token, ok, err := p.kv.Get(ctx, TokenKey)
	if err != nil {
		p.logger.Warn("read persisted token", "error", err)
		return nil
	}
	if !ok || token == "" {
		return nil
	}

	raw, ok, err := p.kv.Get(ctx, UserKey)
	if err != nil {
		p.logger.Warn("read persisted user", "error", err)
		return nil
	}
	if !ok {
		p.logger.Debug("persisted token without user, ignoring")
		return nil
	}

	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		p.logger.Warn("persisted user record is corrupt, ignoring", "error", err)
		return nil
	}
	return &domain.Session{Token: token, User: user}
}

// Clear removes both entries.
func (p *PersistedStore) Clear(ctx context.Context) error {
	if err := p.kv.Delete(ctx, TokenKey, UserKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
