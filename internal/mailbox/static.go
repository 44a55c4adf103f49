package mailbox

import (
	"context"
	"sync"

	"github.com/ashureev/notifyhub/internal/domain"
)

// StaticSource serves a fixed set of messages. It backs local development
// without provider credentials and end-to-end tests.
type StaticSource struct {
	mu       sync.Mutex
	messages []domain.Message
	err      error
	calls    int
}

// NewStaticSource creates a StaticSource returning msgs.
func NewStaticSource(msgs []domain.Message) *StaticSource {
	return &StaticSource{messages: msgs}
}

// SetError makes subsequent fetches fail with err. nil restores success.
func (s *StaticSource) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Calls returns how many fetches were made.
func (s *StaticSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *StaticSource) Fetch(_ context.Context, _ *domain.MailboxLink) ([]domain.Message, *domain.MailboxLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, nil, s.err
	}
	return append([]domain.Message(nil), s.messages...), nil, nil
}
