// Package session owns the client's authenticated session.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/ashureev/notifyhub/internal/domain"
	"github.com/ashureev/notifyhub/internal/shared"
)

// Backend endpoints called directly, before any token exists.
const (
	LoginPath    = "/api/auth/login"
	RegisterPath = "/api/auth/register"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Success  bool      `json:"success"`
	Token    string    `json:"token"`
	UserID   domain.ID `json:"userId"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Message  string    `json:"message"`
	Error    string    `json:"error"`
}

// ChangeFunc is called after the session changes. s is nil after a logout.
type ChangeFunc func(s *domain.Session)

// Manager holds the single in-memory Session and is the only writer of it
// and of its persisted mirror.
type Manager struct {
	mu        sync.Mutex
	current   *domain.Session
	persisted *PersistedStore

	baseURL string
	client  *http.Client
	logger  *slog.Logger

	listenersMu sync.Mutex
	listeners   []ChangeFunc
}

// NewManager creates a Manager talking to the backend at baseURL.
func NewManager(baseURL string, client *http.Client, persisted *PersistedStore, logger *slog.Logger) *Manager {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		persisted: persisted,
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    client,
		logger:    logger,
	}
}

// OnChange registers fn to run after every login or logout has been fully
// applied to memory and storage.
func (m *Manager) OnChange(fn ChangeFunc) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *Manager) emit(s *domain.Session) {
	m.listenersMu.Lock()
	listeners := append([]ChangeFunc(nil), m.listeners...)
	m.listenersMu.Unlock()
	for _, fn := range listeners {
		fn(s)
	}
}

// Bootstrap adopts the persisted session, if any, without validating it
// against the backend. A stale token surfaces on the first gateway call.
func (m *Manager) Bootstrap(ctx context.Context) *domain.Session {
	s := m.persisted.Load(ctx)

	m.mu.Lock()
	m.current = s
	m.mu.Unlock()

	if s == nil {
		m.logger.Debug("no persisted session")
		return nil
	}
	m.logger.Info("session restored", "username", s.User.Username)
	cp := *s
	return &cp
}

// Current returns a copy of the active session, or nil.
func (m *Manager) Current() *domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	cp := *m.current
	return &cp
}

// Token returns the active bearer token, or "".
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ""
	}
	return m.current.Token
}

// Login authenticates and, on success, establishes and persists the session.
// On failure the existing state is left untouched.
func (m *Manager) Login(ctx context.Context, email, password string) (domain.User, error) {
	if err := requireFields(email, password); err != nil {
		return domain.User{}, err
	}

	var resp authResponse
	status, err := m.postJSON(ctx, LoginPath, loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return domain.User{}, err
	}
	if !resp.Success || resp.Token == "" {
		m.logger.Warn("login rejected", "status", status, "code", resp.Error)
		return domain.User{}, &shared.ApplicationError{Status: status, Code: resp.Error, Message: messageOr(resp.Message, "Login failed")}
	}

	s := domain.Session{
		Token: resp.Token,
		User:  domain.User{ID: resp.UserID, Username: resp.Username, Email: resp.Email},
	}

	m.mu.Lock()
	if err := m.persisted.Save(ctx, s); err != nil {
		m.mu.Unlock()
		return domain.User{}, fmt.Errorf("login: %w", err)
	}
	m.current = &s
	m.mu.Unlock()

	m.logger.Info("logged in", "username", s.User.Username)
	m.emit(&s)
	return s.User, nil
}

// Register creates an account. It does not establish a session.
func (m *Manager) Register(ctx context.Context, username, email, password string) error {
	if err := requireFields(username, email, password); err != nil {
		return err
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}

	var resp authResponse
	status, err := m.postJSON(ctx, RegisterPath, registerRequest{Username: username, Email: email, Password: password}, &resp)
	if err != nil {
		return err
	}
	if !resp.Success {
		return &shared.ApplicationError{Status: status, Code: resp.Error, Message: messageOr(resp.Message, "Registration failed")}
	}
	m.logger.Info("registered", "username", username)
	return nil
}

// Logout clears the session and its persisted mirror. Safe to call when
// already logged out. Memory is cleared even if storage fails.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	wasActive := m.current != nil
	m.current = nil
	err := m.persisted.Clear(ctx)
	m.mu.Unlock()

	if err != nil {
		m.logger.Error("failed to clear persisted session", "error", err)
	}
	if wasActive {
		m.logger.Info("logged out")
	}
	m.emit(nil)
	return err
}

func (m *Manager) postJSON(ctx context.Context, path string, in, out any) (int, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return 0, fmt.Errorf("encode %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, &shared.TransportError{Op: "POST " + path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, &shared.TransportError{Op: "POST " + path, Err: err}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, &shared.TransportError{Op: "POST " + path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return resp.StatusCode, nil
}

func messageOr(msg, fallback string) string {
	if strings.TrimSpace(msg) == "" {
		return fallback
	}
	return msg
}
