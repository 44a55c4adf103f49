package mailbox

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/oauth2"
	gmailv1 "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/ashureev/notifyhub/internal/domain"
)

// DefaultFetchLimit is how many inbox messages are read per request.
const DefaultFetchLimit = 50

const bodyPreviewLen = 200

// Source reads classified messages for a linked account. It returns the
// link again when the provider refreshed its tokens, nil otherwise.
type Source interface {
	Fetch(ctx context.Context, link *domain.MailboxLink) ([]domain.Message, *domain.MailboxLink, error)
}

// GmailSource reads the Gmail inbox.
type GmailSource struct {
	cfg      *oauth2.Config
	limit    int64
	endpoint string
	logger   *slog.Logger
}

// NewGmailSource creates a GmailSource. cfg refreshes expired tokens.
func NewGmailSource(cfg *oauth2.Config, limit int, logger *slog.Logger) *GmailSource {
	if limit <= 0 {
		limit = DefaultFetchLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GmailSource{cfg: cfg, limit: int64(limit), logger: logger}
}

// Fetch lists the newest inbox messages and classifies each. Messages that
// cannot be read individually are skipped.
func (g *GmailSource) Fetch(ctx context.Context, link *domain.MailboxLink) ([]domain.Message, *domain.MailboxLink, error) {
	tok := TokenFromLink(link)
	ts := oauth2.ReuseTokenSource(tok, g.cfg.TokenSource(ctx, tok))

	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, ts))}
	if g.endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.endpoint))
	}
	svc, err := gmailv1.NewService(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("create gmail service: %w", err)
	}

	list, err := svc.Users.Messages.List("me").Q("in:inbox").MaxResults(g.limit).Context(ctx).Do()
	if err != nil {
		return nil, nil, fmt.Errorf("list messages: %w", err)
	}

	msgs := make([]domain.Message, 0, len(list.Messages))
	for _, ref := range list.Messages {
		full, err := svc.Users.Messages.Get("me", ref.Id).Format("full").Context(ctx).Do()
		if err != nil {
			g.logger.Warn("skipping unreadable message", "message_id", ref.Id, "error", err)
			continue
		}
		msgs = append(msgs, convert(full))
	}

	var refreshed *domain.MailboxLink
	if cur, err := ts.Token(); err == nil && cur.AccessToken != link.AccessToken {
		updated := *link
		updated.AccessToken = cur.AccessToken
		updated.TokenType = cur.TokenType
		updated.Expiry = cur.Expiry
		if cur.RefreshToken != "" {
			updated.RefreshToken = cur.RefreshToken
		}
		updated.UpdatedAt = time.Now()
		refreshed = &updated
	}

	return msgs, refreshed, nil
}

func convert(m *gmailv1.Message) domain.Message {
	var from, subject, date string
	if m.Payload != nil {
		for _, h := range m.Payload.Headers {
			switch strings.ToLower(h.Name) {
			case "from":
				from = h.Value
			case "subject":
				subject = h.Value
			case "date":
				date = h.Value
			}
		}
	}

	body := extractPlainText(m.Payload)
	if subject == "" {
		subject = "No Subject"
	}

	ts := parseDate(date)
	if ts.IsZero() && m.InternalDate > 0 {
		ts = time.UnixMilli(m.InternalDate)
	}

	return domain.Message{
		ID:        domain.ID(m.Id),
		Sender:    cleanAddress(from),
		Subject:   subject,
		Body:      preview(body),
		Timestamp: ts,
		Priority:  Classify(subject, body),
	}
}

func extractPlainText(part *gmailv1.MessagePart) string {
	if part == nil {
		return ""
	}
	if strings.EqualFold(part.MimeType, "text/plain") && part.Body != nil && part.Body.Data != "" {
		return strings.TrimSpace(decodeBase64URL(part.Body.Data))
	}
	for _, sub := range part.Parts {
		if body := extractPlainText(sub); body != "" {
			return body
		}
	}
	if len(part.Parts) == 0 && part.Body != nil && part.Body.Data != "" {
		return strings.TrimSpace(decodeBase64URL(part.Body.Data))
	}
	return ""
}

func decodeBase64URL(data string) string {
	b, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		b, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			return ""
		}
	}
	return string(b)
}

func preview(body string) string {
	r := []rune(body)
	if len(r) <= bodyPreviewLen {
		return body
	}
	return string(r[:bodyPreviewLen]) + "..."
}

// cleanAddress extracts the address from `Name <addr>`.
func cleanAddress(from string) string {
	start := strings.IndexByte(from, '<')
	end := strings.IndexByte(from, '>')
	if start >= 0 && end > start {
		return from[start+1 : end]
	}
	return strings.TrimSpace(from)
}

var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
}

func parseDate(h string) time.Time {
	h = strings.TrimSpace(h)
	if h == "" {
		return time.Time{}
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, h); err == nil {
			return t
		}
	}
	return time.Time{}
}
