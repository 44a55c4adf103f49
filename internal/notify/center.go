// Package notify holds the ephemeral toast notifications shown to the user.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/notifyhub/internal/domain"
)

// DefaultTTL is how long a toast stays visible.
const DefaultTTL = 5 * time.Second

// Notifier surfaces a message to the user.
type Notifier interface {
	Notify(severity domain.Severity, message string)
}

type toast struct {
	note      domain.Notification
	expiresAt time.Time
}

// Center is a Notifier that keeps an auto-expiring multiset of toasts.
type Center struct {
	mu     sync.Mutex
	toasts []toast
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewCenter creates a Center. A non-positive ttl uses DefaultTTL.
func NewCenter(ttl time.Duration, logger *slog.Logger) *Center {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Center{ttl: ttl, now: time.Now, logger: logger}
}

// Notify adds a toast.
func (c *Center) Notify(severity domain.Severity, message string) {
	c.logger.Log(context.Background(), levelFor(severity), "notification", "severity", severity, "message", message)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneLocked()
	c.toasts = append(c.toasts, toast{
		note:      domain.Notification{Message: message, Severity: severity},
		expiresAt: c.now().Add(c.ttl),
	})
}

// Active returns the unexpired toasts in arrival order.
func (c *Center) Active() []domain.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneLocked()
	out := make([]domain.Notification, len(c.toasts))
	for i, t := range c.toasts {
		out[i] = t.note
	}
	return out
}

// Dismiss removes the toast at position i of the last Active listing.
// Out of range positions are ignored.
func (c *Center) Dismiss(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneLocked()
	if i < 0 || i >= len(c.toasts) {
		return
	}
	c.toasts = append(c.toasts[:i], c.toasts[i+1:]...)
}

func (c *Center) pruneLocked() {
	now := c.now()
	kept := c.toasts[:0]
	for _, t := range c.toasts {
		if now.Before(t.expiresAt) {
			kept = append(kept, t)
		}
	}
	c.toasts = kept
}

func levelFor(s domain.Severity) slog.Level {
	switch s {
	case domain.SeverityError:
		return slog.LevelError
	case domain.SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// Recorder is a Notifier that keeps every notification, for tests and for
// front ends that render after each action.
type Recorder struct {
	mu    sync.Mutex
	notes []domain.Notification
}

func (r *Recorder) Notify(severity domain.Severity, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, domain.Notification{Message: message, Severity: severity})
}

// All returns a copy of everything recorded so far.
func (r *Recorder) All() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Notification(nil), r.notes...)
}

// Count returns how many notifications match message exactly.
func (r *Recorder) Count(message string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, note := range r.notes {
		if note.Message == message {
			n++
		}
	}
	return n
}

// Drain returns and clears the recorded notifications.
func (r *Recorder) Drain() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.notes
	r.notes = nil
	return out
}

// Fanout delivers every notification to each of its Notifiers.
type Fanout []Notifier

func (f Fanout) Notify(severity domain.Severity, message string) {
	for _, n := range f {
		n.Notify(severity, message)
	}
}
