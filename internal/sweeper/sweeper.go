// Package sweeper purges expired refresh-token records on a fixed daily
// schedule.
package sweeper

import (
	"context"
	"time"

	"shop-app/auth-service/internal/logging"
	"shop-app/auth-service/internal/repository"
)

type Sweeper struct {
	repo repository.RefreshTokenRepository
	hour int
	log  logging.Logger
	now  func() time.Time
}

// New creates a sweeper that fires once a day at the given hour.
func New(repo repository.RefreshTokenRepository, hour int, log logging.Logger) *Sweeper {
	return &Sweeper{repo: repo, hour: hour, log: log, now: time.Now}
}

// Run blocks until ctx is cancelled. A failed sweep is logged and
// retried on the next scheduled tick; it never surfaces to callers.
func (s *Sweeper) Run(ctx context.Context) {
	for {
		timer := time.NewTimer(time.Until(s.nextRun()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs one expiry pass.
func (s *Sweeper) Sweep(ctx context.Context) {
	deleted, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		s.log.Error("refresh token sweep failed", "error", err)
		return
	}
	s.log.Info("refresh token sweep completed", "deleted", deleted)
}

// nextRun is the next occurrence of the configured hour, always in the
// future so a sweep never double-fires within one tick.
func (s *Sweeper) nextRun() time.Time {
	now := s.now()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
