// Package hub orchestrates the session, the mailbox link and the feed for a
// presentation layer. It never touches presentation state directly; it
// drives a View.
package hub

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"

	"github.com/ashureev/notifyhub/internal/domain"
	"github.com/ashureev/notifyhub/internal/feed"
	"github.com/ashureev/notifyhub/internal/notify"
	"github.com/ashureev/notifyhub/internal/oauthlink"
	"github.com/ashureev/notifyhub/internal/session"
	"github.com/ashureev/notifyhub/internal/shared"
)

// User-visible messages.
const (
	MsgLoginOK      = "Login successful!"
	MsgRegisterOK   = "Registration successful! Please login."
	MsgLogoutOK     = "Logged out successfully"
	MsgRefreshed    = "Messages refreshed!"
	msgLoginFailed  = "Login failed"
	msgRegFailed    = "Registration failed"
	msgLogoutFailed = "Logout failed"
)

// View is implemented by the presentation layer.
type View interface {
	ShowLanding()
	ShowLogin(prefillEmail string)
	ShowDashboard(user domain.User)
	RenderFeed(snap domain.FeedSnapshot)
	SetLoading(loading bool)
}

// Controller exposes the user-facing operations.
type Controller struct {
	sessions *session.Manager
	link     *oauthlink.Controller
	feed     *feed.Service
	view     View
	notifier notify.Notifier
	logger   *slog.Logger

	loadingMu sync.Mutex
	loading   int
}

// New wires a Controller and subscribes it to session changes so that a
// forced logout returns the view to the landing screen.
func New(sessions *session.Manager, link *oauthlink.Controller, feedSvc *feed.Service, view View, notifier notify.Notifier, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		sessions: sessions,
		link:     link,
		feed:     feedSvc,
		view:     view,
		notifier: notifier,
		logger:   logger,
	}
	sessions.OnChange(func(s *domain.Session) {
		if s == nil {
			c.view.ShowLanding()
		}
	})
	return c
}

// Start handles a page load at landing. The callback in the URL is parsed
// and stripped before any request is made, and the feed is loaded at most
// once.
func (c *Controller) Start(ctx context.Context, landing *url.URL) error {
	s := c.sessions.Bootstrap(ctx)
	cb := c.link.Intercept(landing)

	if s == nil {
		c.view.ShowLanding()
		_, err := c.link.Resolve(ctx, cb, loaderFunc(c.loadFeed))
		return err
	}

	c.view.ShowDashboard(s.User)

	c.beginLoading()
	refreshed, err := c.link.Resolve(ctx, cb, loaderFunc(c.loadFeed))
	c.endLoading()
	if err != nil {
		return c.settle(err)
	}
	if refreshed {
		return nil
	}
	return c.loadFeed(ctx)
}

// Login authenticates and shows the dashboard.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	c.beginLoading()
	user, err := c.sessions.Login(ctx, email, password)
	c.endLoading()
	if err != nil {
		c.logger.Warn("login failed", "error", err)
		c.notify(domain.SeverityError, shared.UserMessage(err, msgLoginFailed))
		return err
	}

	c.notify(domain.SeveritySuccess, MsgLoginOK)
	c.view.ShowDashboard(user)
	return c.loadFeed(ctx)
}

// Register creates an account and switches to the login view with the
// email pre-filled.
func (c *Controller) Register(ctx context.Context, username, email, password string) error {
	c.beginLoading()
	err := c.sessions.Register(ctx, username, email, password)
	c.endLoading()
	if err != nil {
		c.logger.Warn("registration failed", "error", err)
		c.notify(domain.SeverityError, shared.UserMessage(err, msgRegFailed))
		return err
	}

	c.notify(domain.SeveritySuccess, MsgRegisterOK)
	c.view.ShowLogin(email)
	return nil
}

// Logout ends the session. The landing view is shown by the session
// change subscription.
func (c *Controller) Logout(ctx context.Context) error {
	if err := c.sessions.Logout(ctx); err != nil {
		c.notify(domain.SeverityError, msgLogoutFailed)
		return err
	}
	c.notify(domain.SeveritySuccess, MsgLogoutOK)
	return nil
}

// ConnectMail starts linking the mail account.
func (c *Controller) ConnectMail(ctx context.Context) error {
	c.beginLoading()
	defer c.endLoading()
	return c.settle(c.link.Connect(ctx, loaderFunc(c.loadFeed)))
}

// Refresh reloads the feed on request.
func (c *Controller) Refresh(ctx context.Context) error {
	if c.sessions.Token() == "" {
		return nil
	}
	if err := c.loadFeed(ctx); err != nil {
		return err
	}
	if c.sessions.Token() != "" {
		c.notify(domain.SeveritySuccess, MsgRefreshed)
	}
	return nil
}

func (c *Controller) loadFeed(ctx context.Context) error {
	c.beginLoading()
	defer c.endLoading()

	snap, err := c.feed.Load(ctx)
	if err != nil {
		return c.settle(err)
	}
	c.logger.Debug("feed rendered", "source", snap.Source, "total", snap.Counts.Total)
	c.view.RenderFeed(snap)
	return nil
}

// settle absorbs ErrUnauthorized: the gateway has already logged out and
// the view has already moved to the landing screen.
func (c *Controller) settle(err error) error {
	if errors.Is(err, shared.ErrUnauthorized) {
		c.logger.Info("session ended by backend")
		return nil
	}
	return err
}

func (c *Controller) beginLoading() {
	c.loadingMu.Lock()
	defer c.loadingMu.Unlock()
	c.loading++
	if c.loading == 1 {
		c.view.SetLoading(true)
	}
}

func (c *Controller) endLoading() {
	c.loadingMu.Lock()
	defer c.loadingMu.Unlock()
	if c.loading == 0 {
		return
	}
	c.loading--
	if c.loading == 0 {
		c.view.SetLoading(false)
	}
}

func (c *Controller) notify(s domain.Severity, msg string) {
	if c.notifier != nil {
		c.notifier.Notify(s, msg)
	}
}

type loaderFunc func(ctx context.Context) error

func (f loaderFunc) Refresh(ctx context.Context) error { return f(ctx) }
