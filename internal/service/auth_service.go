package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"shop-app/auth-service/internal/domain"
	"shop-app/auth-service/internal/logging"
	"shop-app/auth-service/internal/repository"
	userRepository "shop-app/auth-service/internal/repository/user"
	"shop-app/auth-service/internal/token"
)

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     string // optional; empty means Customer
}

// Principal is the authenticated caller produced by Authenticate and
// consumed by the authorization layer. It is an explicit return value,
// never stashed on shared mutable state.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   domain.Role
}

type AuthService interface {
	// Register creates a user and its profile. No tokens are issued;
	// registration does not imply login.
	Register(ctx context.Context, input RegisterInput) (*domain.UserInfo, error)

	// Login verifies the password and issues an access/refresh pair.
	Login(ctx context.Context, email, password string) (*domain.AuthResult, error)

	// Refresh rotates a refresh token: the old token is removed and a
	// new pair is issued. Each refresh token can be redeemed once.
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)

	// Logout removes the refresh token. It never fails, even if the
	// user or token is unknown.
	Logout(ctx context.Context, userID uuid.UUID, refreshToken string)

	// Authenticate verifies an access token and re-resolves the user,
	// rejecting tokens whose email or role no longer match the stored
	// account.
	Authenticate(ctx context.Context, accessToken string) (*Principal, error)
}

type AuthServiceImpl struct {
	userRepository   userRepository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	tokens           *token.Manager
	hasher           PasswordHasher
	log              logging.Logger
}

func NewAuthService(userRepo userRepository.UserRepository, refreshTokenRepo repository.RefreshTokenRepository, tokens *token.Manager, hasher PasswordHasher, log logging.Logger) AuthService {
	return &AuthServiceImpl{
		userRepository:   userRepo,
		refreshTokenRepo: refreshTokenRepo,
		tokens:           tokens,
		hasher:           hasher,
		log:              log,
	}
}

func (s *AuthServiceImpl) Register(ctx context.Context, input RegisterInput) (*domain.UserInfo, error) {
	role := domain.RoleCustomer
	if input.Role != "" {
		parsed, err := domain.ParseRole(input.Role)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		role = parsed
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        input.Email,
		PasswordHash: hash,
		Name:         input.Name,
		Role:         role,
	}
	profile := &domain.Profile{
		ID:     uuid.New(),
		UserID: user.ID,
		Name:   input.Name,
		Email:  input.Email,
	}

	if err := s.userRepository.Create(ctx, user, profile); err != nil {
		return nil, err
	}

	s.log.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user.Info(), nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	user, err := s.userRepository.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info("user logged in", "user_id", user.ID)
	return &domain.AuthResult{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		Tokens: *pair,
	}, nil
}

func (s *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	user, err := s.userRepository.FindByID(ctx, userID)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	// Stale-claim detection: a token issued before a role or email
	// change no longer authenticates.
	if user.Role != claims.Role || user.Email != claims.Email {
		return nil, domain.ErrTokenInvalid
	}

	// The atomic remove doubles as the membership check. Of two
	// concurrent refreshes with the same token, exactly one claims the
	// record; the loser sees it already gone and is rejected, so an old
	// refresh token can never be redeemed twice.
	claimed, err := s.refreshTokenRepo.Remove(ctx, userID, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to remove refresh token: %w", err)
	}
	if !claimed {
		return nil, domain.ErrTokenInvalid
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info("refresh token rotated", "user_id", user.ID)
	return pair, nil
}

func (s *AuthServiceImpl) Logout(ctx context.Context, userID uuid.UUID, refreshToken string) {
	if _, err := s.refreshTokenRepo.Remove(ctx, userID, refreshToken); err != nil {
		// Best effort: sign-out must stay idempotent for clients.
		s.log.Warn("failed to remove refresh token on logout", "user_id", userID, "error", err)
	}
}

func (s *AuthServiceImpl) Authenticate(ctx context.Context, accessToken string) (*Principal, error) {
	claims, err := s.tokens.VerifyAccess(accessToken)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	user, err := s.userRepository.FindByID(ctx, userID)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	if user.Role != claims.Role || user.Email != claims.Email {
		return nil, domain.ErrTokenInvalid
	}

	return &Principal{UserID: user.ID, Email: user.Email, Role: user.Role}, nil
}

func (s *AuthServiceImpl) issueTokens(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	access, err := s.tokens.SignAccess(user)
	if err != nil {
		return nil, err
	}

	refresh, jti, expiresAt, err := s.tokens.SignRefresh(user)
	if err != nil {
		return nil, err
	}

	record := &domain.RefreshToken{
		ID:        jti,
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	if err := s.refreshTokenRepo.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
