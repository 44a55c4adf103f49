package store

import (
	"context"
	"testing"
	"time"

	"github.com/ashureev/notifyhub/internal/domain"
)

func TestSweepRemovesExpiredRecords(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	now := time.Now()

	sessions := []*domain.APISession{
		{Token: "old", AccountID: "a1", CreatedAt: now.Add(-48 * time.Hour), ExpiresAt: now.Add(-time.Hour)},
		{Token: "fresh", AccountID: "a1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)},
	}
	for _, sess := range sessions {
		if err := s.CreateAPISession(ctx, sess); err != nil {
			t.Fatalf("CreateAPISession: %v", err)
		}
	}
	states := []*domain.OAuthState{
		{State: "stale", AccountID: "a1", CreatedAt: now.Add(-2 * OAuthStateTTL)},
		{State: "pending", AccountID: "a1", CreatedAt: now},
	}
	for _, st := range states {
		if err := s.SaveOAuthState(ctx, st); err != nil {
			t.Fatalf("SaveOAuthState: %v", err)
		}
	}

	Sweep(ctx, s, now)

	if got, _ := s.GetAPISession(ctx, "old"); got != nil {
		t.Fatal("expected expired session to be removed")
	}
	if got, _ := s.GetAPISession(ctx, "fresh"); got == nil {
		t.Fatal("expected live session to survive")
	}
	if got, _ := s.ConsumeOAuthState(ctx, "stale"); got != nil {
		t.Fatal("expected stale state to be removed")
	}
	if got, _ := s.ConsumeOAuthState(ctx, "pending"); got == nil {
		t.Fatal("expected pending state to survive")
	}
}

func TestTTLWorkerStopsOnCancel(t *testing.T) {
	s := testStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	if err := s.CreateAPISession(context.Background(), &domain.APISession{
		Token: "old", AccountID: "a1", CreatedAt: time.Now().Add(-time.Hour), ExpiresAt: time.Now().Add(-time.Minute),
	}); err != nil {
		t.Fatalf("CreateAPISession: %v", err)
	}

	StartTTLWorker(ctx, s, 10*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got, _ := s.GetAPISession(context.Background(), "old"); got == nil {
			cancel()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	t.Fatal("worker did not remove the expired session")
}
