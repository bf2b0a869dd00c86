package core

// janitor.go drops import sessions nobody has touched for a while.
//
// Sessions only live in memory, so an abandoned browser tab would otherwise
// hold its batch until the process exits. A session with records in flight
// is never expired.

import (
	"context"
	"log/slog"
	"time"

	"github.com/JonMunkholm/stockstage/internal/metrics"
)

// StartJanitor expires idle sessions every interval until ctx is cancelled.
func (s *Service) StartJanitor(ctx context.Context, ttl, interval time.Duration) {
	slog.Info("session janitor started",
		"ttl", ttl.String(),
		"interval", interval.String(),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session janitor stopped")
			return
		case <-ticker.C:
			if n := s.ExpireIdle(ttl); n > 0 {
				slog.Info("expired idle import sessions", "sessions_expired", n)
			}
		}
	}
}

// ExpireIdle removes sessions idle for longer than ttl and returns how many
// were removed.
func (s *Service) ExpireIdle(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	expired := 0
	for id, sess := range s.sessions {
		if !sess.idleSince().Before(cutoff) {
			continue
		}
		if !sess.close() {
			slog.Debug("skipping in-flight session", "import_id", id)
			continue
		}
		delete(s.sessions, id)
		metrics.SessionsActive.Dec()
		metrics.SessionsExpired.Inc()
		expired++
	}
	return expired
}
