package store

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often expired records are purged.
const DefaultSweepInterval = 5 * time.Minute

// OAuthStateTTL bounds how long an authorization request may stay pending.
const OAuthStateTTL = 10 * time.Minute

// StartTTLWorker runs a background goroutine that periodically removes
// expired bearer tokens and abandoned authorization states until ctx ends.
func StartTTLWorker(ctx context.Context, repo Repository, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("TTL worker started", "interval", interval)

		for {
			select {
			case <-ticker.C:
				Sweep(ctx, repo, time.Now())
			case <-ctx.Done():
				slog.Info("TTL worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

// Sweep performs one cleanup pass as of now.
func Sweep(ctx context.Context, repo Repository, now time.Time) {
	if deleted, err := repo.CleanupExpiredSessions(ctx, now); err != nil {
		slog.Error("TTL worker failed to cleanup expired sessions", "error", err)
	} else if deleted > 0 {
		slog.Info("TTL worker removed expired sessions", "count", deleted)
	}

	if deleted, err := repo.CleanupOAuthStates(ctx, now.Add(-OAuthStateTTL)); err != nil {
		slog.Error("TTL worker failed to cleanup oauth states", "error", err)
	} else if deleted > 0 {
		slog.Info("TTL worker removed abandoned oauth states", "count", deleted)
	}
}
