package sweeper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-app/auth-service/internal/domain"
	"shop-app/auth-service/internal/logging"
	"shop-app/auth-service/internal/repository"
)

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSweep_RemovesOnlyExpired(t *testing.T) {
	repo := repository.NewInMemoryRefreshTokenRepository()
	ctx := context.Background()
	now := time.Now()
	userID := uuid.New()

	require.NoError(t, repo.Save(ctx, &domain.RefreshToken{
		ID: uuid.NewString(), UserID: userID, Token: "expired", ExpiresAt: now.Add(-time.Minute),
	}))
	require.NoError(t, repo.Save(ctx, &domain.RefreshToken{
		ID: uuid.NewString(), UserID: userID, Token: "live", ExpiresAt: now.Add(time.Hour),
	}))

	s := New(repo, 3, discardLogger())
	s.Sweep(ctx)

	ok, err := repo.Exists(ctx, userID, "expired")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Exists(ctx, userID, "live")
	require.NoError(t, err)
	assert.True(t, ok)
}

type failingRepo struct {
	repository.RefreshTokenRepository
}

func (f *failingRepo) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, errors.New("store is down")
}

func TestSweep_FailureDoesNotPanic(t *testing.T) {
	s := New(&failingRepo{}, 3, discardLogger())
	s.Sweep(context.Background())
}

func TestNextRun_AlwaysInFuture(t *testing.T) {
	s := New(repository.NewInMemoryRefreshTokenRepository(), 3, discardLogger())

	for _, hour := range []int{0, 3, 12, 23} {
		s.hour = hour
		for _, nowHour := range []int{0, 3, 12, 23} {
			now := time.Date(2026, 9, 1, nowHour, 30, 0, 0, time.UTC)
			s.now = func() time.Time { return now }

			next := s.nextRun()
			assert.True(t, next.After(now), "hour=%d nowHour=%d", hour, nowHour)
			assert.Equal(t, hour, next.Hour())
			assert.LessOrEqual(t, next.Sub(now), 24*time.Hour)
		}
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := New(repository.NewInMemoryRefreshTokenRepository(), 3, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on context cancel")
	}
}
