package session

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
)

func sameSession(t *testing.T, m *Manager, p *PersistedStore) {
	t.Helper()
	cur := m.Current()
	stored := p.Load(context.Background())
	if (cur == nil) != (stored == nil) {
		t.Fatalf("memory and storage disagree: current=%+v stored=%+v", cur, stored)
	}
	if cur != nil && (cur.Token != stored.Token || cur.User != stored.User) {
		t.Fatalf("memory and storage disagree: current=%+v stored=%+v", cur, stored)
	}
}

func TestConcurrentLoginLogoutLastWriteWins(t *testing.T) {
	var n atomic.Int64
	auth := &fakeAuth{login: func(w http.ResponseWriter, _ *http.Request) {
		i := n.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true, "token": fmt.Sprintf("tok-%d", i), "userId": i, "username": "ada", "email": "ada@example.com",
		})
	}}
	m, kv := newTestManager(t, auth)
	persisted := NewPersistedStore(kv, nil)
	ctx := context.Background()

	for round := 0; round < 20; round++ {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := m.Login(ctx, "ada@example.com", "Secret123"); err != nil {
				t.Errorf("Login: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			_ = m.Logout(ctx)
		}()
		wg.Wait()

		sameSession(t, m, persisted)
	}
}

func TestLoginCompletingAfterLogoutWins(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	auth := &fakeAuth{login: func(w http.ResponseWriter, _ *http.Request) {
		close(entered)
		<-release
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true, "token": "late", "userId": 1, "username": "ada", "email": "ada@example.com",
		})
	}}
	m, kv := newTestManager(t, auth)
	persisted := NewPersistedStore(kv, nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := m.Login(ctx, "ada@example.com", "Secret123")
		done <- err
	}()

	<-entered
	if err := m.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if m.Current() != nil {
		t.Fatal("expected no session after logout")
	}
	close(release)

	if err := <-done; err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got := m.Token(); got != "late" {
		t.Fatalf("Token = %q, want the later login to win", got)
	}
	sameSession(t, m, persisted)
}
