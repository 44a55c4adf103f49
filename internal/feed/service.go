// Package feed loads the dashboard's notification feed, falling back to
// demo content whenever the live mailbox cannot be read.
package feed

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ashureev/notifyhub/internal/domain"
	"github.com/ashureev/notifyhub/internal/notify"
	"github.com/ashureev/notifyhub/internal/shared"
)

// Backend endpoints read by the feed.
const (
	StatusPath   = "/api/gmail/status"
	MessagesPath = "/api/gmail/messages"
)

// User-visible messages.
const (
	MsgConnectPrompt = "Connect Gmail to see your real messages"
	MsgLiveLoaded    = "Messages loaded from Gmail!"
	MsgLiveFailed    = "Error loading Gmail messages, showing demo data"
)

// Client is the authenticated request gateway.
type Client interface {
	Get(ctx context.Context, path string, out any) (int, error)
}

type messagesResponse struct {
	Success  bool             `json:"success"`
	Messages []domain.Message `json:"messages"`
	Message  string           `json:"message"`
	Error    string           `json:"error"`
}

// Service builds FeedSnapshots.
type Service struct {
	client   Client
	notifier notify.Notifier
	renderer Renderer
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a Service. A nil renderer renders everything.
func NewService(client Client, notifier notify.Notifier, renderer Renderer, logger *slog.Logger) *Service {
	if renderer == nil {
		renderer = PassThrough{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, notifier: notifier, renderer: renderer, logger: logger, now: time.Now}
}

// Load returns a renderable snapshot. The only error it returns is
// shared.ErrUnauthorized, after the gateway has ended the session; every
// other failure yields demo content.
func (s *Service) Load(ctx context.Context) (domain.FeedSnapshot, error) {
	var status domain.LinkStatus
	if _, err := s.client.Get(ctx, StatusPath, &status); err != nil {
		if errors.Is(err, shared.ErrUnauthorized) {
			return domain.FeedSnapshot{}, err
		}
		s.logger.Warn("link status unavailable, treating as not connected", "error", err)
		status.Connected = false
	}

	if !status.Connected {
		s.notify(domain.SeverityInfo, MsgConnectPrompt)
		return s.demo(), nil
	}

	msgs, err := s.fetchLive(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrUnauthorized) {
			return domain.FeedSnapshot{}, err
		}
		s.logger.Warn("live feed failed, using demo content", "error", err)
		s.notify(domain.SeverityWarning, MsgLiveFailed)
		return s.demo(), nil
	}

	snap := Build(msgs, domain.SourceLive, s.renderer)
	s.logger.Info("live feed loaded", "total", snap.Counts.Total)
	s.notify(domain.SeveritySuccess, MsgLiveLoaded)
	return snap, nil
}

func (s *Service) fetchLive(ctx context.Context) ([]domain.Message, error) {
	var resp messagesResponse
	status, err := s.client.Get(ctx, MessagesPath, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Success || resp.Messages == nil {
		msg := resp.Message
		if msg == "" {
			msg = "Failed to load Gmail messages"
		}
		return nil, &shared.ApplicationError{Status: status, Code: resp.Error, Message: msg}
	}
	return resp.Messages, nil
}

func (s *Service) demo() domain.FeedSnapshot {
	return Build(DemoMessages(s.now()), domain.SourceDemo, s.renderer)
}

func (s *Service) notify(sev domain.Severity, msg string) {
	if s.notifier != nil {
		s.notifier.Notify(sev, msg)
	}
}
