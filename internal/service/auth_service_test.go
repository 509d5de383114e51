package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-app/auth-service/internal/domain"
	"shop-app/auth-service/internal/logging"
	"shop-app/auth-service/internal/repository"
	userRepository "shop-app/auth-service/internal/repository/user"
	"shop-app/auth-service/internal/token"
)

type testEnv struct {
	auth    AuthService
	users   *userRepository.InMemoryUserRepository
	refresh *repository.InMemoryRefreshTokenRepository
	tokens  *token.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := userRepository.NewInMemoryUserRepository()
	refresh := repository.NewInMemoryRefreshTokenRepository()
	tokens := token.NewManager("test-access-secret", "test-refresh-secret", 15*time.Minute, 7*24*time.Hour, "shop-app/auth-service")
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	return &testEnv{
		auth:    NewAuthService(users, refresh, tokens, NewBcryptHasher(4), log),
		users:   users,
		refresh: refresh,
		tokens:  tokens,
	}
}

func (e *testEnv) register(t *testing.T, email string) *domain.UserInfo {
	t.Helper()
	info, err := e.auth.Register(context.Background(), RegisterInput{
		Email:    email,
		Password: "Secret1!",
		Name:     "Alice",
	})
	require.NoError(t, err)
	return info
}

func TestRegister_DefaultsToCustomer(t *testing.T) {
	env := newTestEnv(t)

	info := env.register(t, "alice@example.com")

	assert.Equal(t, domain.RoleCustomer, info.Role)
	assert.Equal(t, "alice@example.com", info.Email)
	assert.NotEqual(t, uuid.Nil, info.ID)
}

func TestRegister_ExplicitRole(t *testing.T) {
	env := newTestEnv(t)

	info, err := env.auth.Register(context.Background(), RegisterInput{
		Email:    "courier@example.com",
		Password: "Secret1!",
		Name:     "Bob",
		Role:     "DeliveryPerson",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleDeliveryPerson, info.Role)
}

func TestRegister_UnknownRoleIsValidationError(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Register(context.Background(), RegisterInput{
		Email:    "x@example.com",
		Password: "Secret1!",
		Name:     "X",
		Role:     "Superuser",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice@example.com")

	_, err := env.auth.Register(context.Background(), RegisterInput{
		Email:    "alice@example.com",
		Password: "Other2!",
		Name:     "Imposter",
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestLogin_Succeeds(t *testing.T) {
	env := newTestEnv(t)
	info := env.register(t, "alice@example.com")

	result, err := env.auth.Login(context.Background(), "alice@example.com", "Secret1!")
	require.NoError(t, err)

	assert.Equal(t, info.ID, result.UserID)
	assert.Equal(t, domain.RoleCustomer, result.Role)
	assert.NotEmpty(t, result.Tokens.AccessToken)
	assert.NotEmpty(t, result.Tokens.RefreshToken)

	ok, err := env.refresh.Exists(context.Background(), result.UserID, result.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.True(t, ok, "refresh token must be persisted at login")
}

func TestLogin_UnknownEmailIsNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Login(context.Background(), "nobody@example.com", "Secret1!")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLogin_WrongPasswordIsUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice@example.com")

	_, err := env.auth.Login(context.Background(), "alice@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestRefresh_RotatesSingleUse(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice@example.com")
	ctx := context.Background()

	result, err := env.auth.Login(ctx, "alice@example.com", "Secret1!")
	require.NoError(t, err)
	original := result.Tokens.RefreshToken

	pair, err := env.auth.Refresh(ctx, original)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEqual(t, original, pair.RefreshToken)

	// The original token was rotated out and cannot be redeemed again.
	_, err = env.auth.Refresh(ctx, original)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	// The replacement still works.
	_, err = env.auth.Refresh(ctx, pair.RefreshToken)
	assert.NoError(t, err)
}

func TestRefresh_GarbageTokenRejected(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Refresh(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestRefresh_StaleRoleRejected(t *testing.T) {
	env := newTestEnv(t)
	info := env.register(t, "alice@example.com")
	ctx := context.Background()

	result, err := env.auth.Login(ctx, "alice@example.com", "Secret1!")
	require.NoError(t, err)

	// Role change after issuance invalidates the outstanding token even
	// though its signature is still good.
	env.users.UpdateRole(info.ID, domain.RoleAdmin)

	_, err = env.auth.Refresh(ctx, result.Tokens.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestRefresh_ConcurrentCallsHaveOneWinner(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice@example.com")
	ctx := context.Background()

	result, err := env.auth.Login(ctx, "alice@example.com", "Secret1!")
	require.NoError(t, err)

	const callers = 8
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.auth.Refresh(ctx, result.Tokens.RefreshToken)
		}(i)
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, domain.ErrTokenInvalid)
		}
	}
	assert.Equal(t, 1, wins, "exactly one concurrent refresh must succeed")
}

func TestLogout_IsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice@example.com")
	ctx := context.Background()

	result, err := env.auth.Login(ctx, "alice@example.com", "Secret1!")
	require.NoError(t, err)

	env.auth.Logout(ctx, result.UserID, result.Tokens.RefreshToken)
	env.auth.Logout(ctx, result.UserID, result.Tokens.RefreshToken)
	env.auth.Logout(ctx, uuid.New(), "unknown-token")

	ok, err := env.refresh.Exists(ctx, result.UserID, result.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.False(t, ok)

	// A logged-out token cannot be used to refresh.
	_, err = env.auth.Refresh(ctx, result.Tokens.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestAuthenticate_HappyPath(t *testing.T) {
	env := newTestEnv(t)
	info := env.register(t, "alice@example.com")
	ctx := context.Background()

	result, err := env.auth.Login(ctx, "alice@example.com", "Secret1!")
	require.NoError(t, err)

	principal, err := env.auth.Authenticate(ctx, result.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, info.ID, principal.UserID)
	assert.Equal(t, "alice@example.com", principal.Email)
	assert.Equal(t, domain.RoleCustomer, principal.Role)
}

func TestAuthenticate_StaleRoleRejected(t *testing.T) {
	env := newTestEnv(t)
	info := env.register(t, "alice@example.com")
	ctx := context.Background()

	result, err := env.auth.Login(ctx, "alice@example.com", "Secret1!")
	require.NoError(t, err)

	env.users.UpdateRole(info.ID, domain.RoleDeliveryPerson)

	_, err = env.auth.Authenticate(ctx, result.Tokens.AccessToken)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestAuthenticate_RefreshTokenNotAcceptedAsAccess(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice@example.com")
	ctx := context.Background()

	result, err := env.auth.Login(ctx, "alice@example.com", "Secret1!")
	require.NoError(t, err)

	_, err = env.auth.Authenticate(ctx, result.Tokens.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}
