package oauthlink

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ashureev/notifyhub/internal/domain"
	"github.com/ashureev/notifyhub/internal/notify"
	"github.com/ashureev/notifyhub/internal/shared"
)

// Backend endpoints used by the controller.
const (
	StatusPath   = "/api/gmail/status"
	ConnectPath  = "/api/gmail/connect"
	ExchangePath = "/api/gmail/exchange-code"
)

// ConfigKeyword marks a connect failure caused by missing OAuth client
// credentials on the backend.
const ConfigKeyword = "client"

// User-visible messages.
const (
	MsgLoginFirstExchange = "Please login first to complete Gmail connection"
	MsgLoginFirst         = "Please login first"
	MsgConnected          = "Gmail connected successfully!"
	MsgAlreadyConnected   = "Gmail is already connected!"
	MsgRedirecting        = "Redirecting to Google for authorization..."
	MsgNotConfigured      = "Gmail OAuth is not configured. Please check GMAIL_SETUP.md for setup instructions."
)

// Client is the authenticated request gateway.
type Client interface {
	Get(ctx context.Context, path string, out any) (int, error)
	Post(ctx context.Context, path string, in, out any) (int, error)
}

// Sessions reports whether a session is active.
type Sessions interface {
	Token() string
}

// Navigator is the presentation side of URL handling.
type Navigator interface {
	// Replace swaps the visible URL without a reload.
	Replace(cleanURL string)
	// Navigate leaves for an external URL.
	Navigate(target string)
}

// Refresher reloads the feed.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Controller implements the linking handshake.
type Controller struct {
	client   Client
	sessions Sessions
	nav      Navigator
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewController wires a Controller.
func NewController(client Client, sessions Sessions, nav Navigator, notifier notify.Notifier, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{client: client, sessions: sessions, nav: nav, notifier: notifier, logger: logger}
}

// Intercept parses the callback carried by landing and replaces the visible
// URL with its normalized form before returning. It makes no network call.
func (c *Controller) Intercept(landing *url.URL) domain.OAuthCallback {
	if landing == nil {
		return domain.OAuthCallback{Kind: domain.CallbackNone}
	}
	cb := ParseCallback(landing.Query())
	if HasCallbackParams(landing) {
		c.nav.Replace(Normalize(landing).String())
	}
	if cb.Kind != domain.CallbackNone {
		c.logger.Info("oauth callback intercepted", "kind", cb.Kind.String())
	}
	return cb
}

type exchangeRequest struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

type linkResponse struct {
	Success          bool   `json:"success"`
	Connected        bool   `json:"connected"`
	AlreadyConnected bool   `json:"alreadyConnected"`
	AuthorizationURL string `json:"authorizationUrl"`
	Message          string `json:"message"`
	Error            string `json:"error"`
}

// Resolve settles cb. It reports whether it already reloaded the feed, in
// which case the caller must not load it again.
func (c *Controller) Resolve(ctx context.Context, cb domain.OAuthCallback, feed Refresher) (bool, error) {
	switch cb.Kind {
	case domain.CallbackCodeExchange:
		return c.exchange(ctx, cb, feed)
	case domain.CallbackDirectResult:
		if cb.Connected {
			c.notify(domain.SeveritySuccess, MsgConnected)
		} else {
			c.notify(domain.SeverityError, "Gmail connection failed: "+cb.Detail)
		}
	case domain.CallbackError:
		c.notify(domain.SeverityError, "Gmail connection error: "+cb.Detail)
	}
	return false, nil
}

func (c *Controller) exchange(ctx context.Context, cb domain.OAuthCallback, feed Refresher) (bool, error) {
	if c.sessions.Token() == "" {
		c.logger.Info("discarding authorization code, no session")
		c.notify(domain.SeverityWarning, MsgLoginFirstExchange)
		return false, nil
	}

	c.logger.Info("exchanging authorization code", "state", presence(cb.State))
	var resp linkResponse
	if _, err := c.client.Post(ctx, ExchangePath, exchangeRequest{Code: cb.Code, State: cb.State}, &resp); err != nil {
		if errors.Is(err, shared.ErrUnauthorized) {
			return false, err
		}
		c.logger.Warn("code exchange failed", "error", err)
		c.notify(domain.SeverityError, "Error connecting Gmail: "+shared.UserMessage(err, err.Error()))
		return false, nil
	}
	if !resp.Success {
		c.notify(domain.SeverityError, "Failed to connect Gmail: "+resp.Message)
		return false, nil
	}

	c.notify(domain.SeveritySuccess, MsgConnected)
	return true, feed.Refresh(ctx)
}

// Connect starts linking the mail account, or refreshes the feed if it is
// already linked.
func (c *Controller) Connect(ctx context.Context, feed Refresher) error {
	if c.sessions.Token() == "" {
		c.notify(domain.SeverityError, MsgLoginFirst)
		return nil
	}

	var status domain.LinkStatus
	if _, err := c.client.Get(ctx, StatusPath, &status); err != nil {
		return c.connectFailed(err)
	}
	if status.Connected {
		c.notify(domain.SeverityInfo, MsgAlreadyConnected)
		return feed.Refresh(ctx)
	}

	var resp linkResponse
	if _, err := c.client.Get(ctx, ConnectPath, &resp); err != nil {
		return c.connectFailed(err)
	}

	switch {
	case resp.Success && resp.AuthorizationURL != "":
		c.notify(domain.SeverityInfo, MsgRedirecting)
		c.nav.Navigate(resp.AuthorizationURL)
		return nil
	case resp.AlreadyConnected:
		c.notify(domain.SeverityInfo, MsgAlreadyConnected)
		return feed.Refresh(ctx)
	case strings.Contains(strings.ToLower(resp.Message), ConfigKeyword):
		c.logger.Warn("oauth client not configured on backend", "message", resp.Message)
		c.notify(domain.SeverityInfo, MsgNotConfigured)
		return nil
	default:
		msg := resp.Message
		if msg == "" {
			msg = "Failed to initiate Gmail connection"
		}
		c.notify(domain.SeverityError, "Gmail connection error: "+msg)
		return nil
	}
}

func (c *Controller) connectFailed(err error) error {
	if errors.Is(err, shared.ErrUnauthorized) {
		return err
	}
	c.logger.Warn("gmail connect failed", "error", err)
	c.notify(domain.SeverityError, "Gmail connection error: "+shared.UserMessage(err, err.Error()))
	return nil
}

func (c *Controller) notify(s domain.Severity, msg string) {
	if c.notifier != nil {
		c.notifier.Notify(s, msg)
	}
}

func presence(s string) string {
	if s == "" {
		return "missing"
	}
	return "present"
}
