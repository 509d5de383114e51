package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"shop-app/auth-service/internal/domain"
)

type memoryKey struct {
	userID uuid.UUID
	token  string
}

// InMemoryRefreshTokenRepository is a mutex-guarded map implementation
// used in tests and local development.
type InMemoryRefreshTokenRepository struct {
	mu     sync.Mutex
	tokens map[memoryKey]*domain.RefreshToken
}

func NewInMemoryRefreshTokenRepository() *InMemoryRefreshTokenRepository {
	return &InMemoryRefreshTokenRepository{tokens: make(map[memoryKey]*domain.RefreshToken)}
}

func (r *InMemoryRefreshTokenRepository) Save(_ context.Context, token *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := memoryKey{userID: token.UserID, token: token.Token}
	if _, ok := r.tokens[key]; ok {
		return nil
	}
	cp := *token
	r.tokens[key] = &cp
	return nil
}

func (r *InMemoryRefreshTokenRepository) Exists(_ context.Context, userID uuid.UUID, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.tokens[memoryKey{userID: userID, token: token}]
	return ok, nil
}

func (r *InMemoryRefreshTokenRepository) Remove(_ context.Context, userID uuid.UUID, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := memoryKey{userID: userID, token: token}
	if _, ok := r.tokens[key]; !ok {
		return false, nil
	}
	delete(r.tokens, key)
	return true, nil
}

func (r *InMemoryRefreshTokenRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for key, rec := range r.tokens {
		if !rec.ExpiresAt.After(now) {
			delete(r.tokens, key)
			deleted++
		}
	}
	return deleted, nil
}
