// Package gateway attaches the session credential to backend requests and
// turns a 401 into a forced logout.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ashureev/notifyhub/internal/domain"
	"github.com/ashureev/notifyhub/internal/notify"
	"github.com/ashureev/notifyhub/internal/shared"
)

// SessionExpiredMessage is shown once per rejected request.
const SessionExpiredMessage = "Session expired. Please login again."

// Sessions is the part of the session manager the gateway depends on.
type Sessions interface {
	Token() string
	Logout(ctx context.Context) error
}

// Gateway performs authenticated JSON requests.
type Gateway struct {
	baseURL  string
	client   *http.Client
	sessions Sessions
	notifier notify.Notifier
	logger   *slog.Logger
}

// New creates a Gateway for the backend at baseURL.
func New(baseURL string, client *http.Client, sessions Sessions, notifier notify.Notifier, logger *slog.Logger) *Gateway {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   client,
		sessions: sessions,
		notifier: notifier,
		logger:   logger,
	}
}

// Get is Do with GET and no body.
func (g *Gateway) Get(ctx context.Context, path string, out any) (int, error) {
	return g.Do(ctx, http.MethodGet, path, nil, out)
}

// Post is Do with POST.
func (g *Gateway) Post(ctx context.Context, path string, in, out any) (int, error) {
	return g.Do(ctx, http.MethodPost, path, in, out)
}

// Do sends the request with the current bearer token, if any, and decodes
// the JSON response body into out regardless of status.
//
// A 401 logs the session out, emits SessionExpiredMessage and returns
// shared.ErrUnauthorized; the logout has completed before Do returns.
// Unreachable backends and non-JSON bodies yield *shared.TransportError.
func (g *Gateway) Do(ctx context.Context, method, path string, in, out any) (int, error) {
	op := method + " " + path

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("encode %s: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("build %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := g.sessions.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("backend unreachable", "op", op, "error", err)
		return 0, &shared.TransportError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, resp.Body)
		g.logger.Info("backend rejected session, logging out", "op", op)
		if err := g.sessions.Logout(ctx); err != nil {
			g.logger.Error("forced logout incomplete", "error", err)
		}
		if g.notifier != nil {
			g.notifier.Notify(domain.SeverityWarning, SessionExpiredMessage)
		}
		return resp.StatusCode, shared.ErrUnauthorized
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, &shared.TransportError{Op: op, Err: err}
	}
	if out == nil {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, &shared.TransportError{Op: op, Err: fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)}
	}
	return resp.StatusCode, nil
}
