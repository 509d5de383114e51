package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"shop-app/auth-service/internal/domain"
)

// UserRepository is the narrow view of the account store the auth core
// needs: create with a profile, and lookup by email or id.
type UserRepository interface {
	// Create persists the user and its profile in one transaction.
	// Returns domain.ErrConflict if the email is already taken.
	Create(ctx context.Context, user *domain.User, profile *domain.Profile) error

	// FindByEmail returns domain.ErrNotFound if no user has the email.
	// The match is exact and case-sensitive.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// FindByID returns domain.ErrNotFound if the id is unknown.
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewSQLiteUserRepository(dbFilePath string) (*GormUserRepository, error) {
	db, err := gorm.Open(sqlite.Open(dbFilePath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open user database: %w", err)
	}

	if err := db.AutoMigrate(&domain.User{}, &domain.Profile{}); err != nil {
		return nil, fmt.Errorf("failed to migrate user database: %w", err)
	}

	return &GormUserRepository{db: db}, nil
}

func (r *GormUserRepository) Create(ctx context.Context, user *domain.User, profile *domain.Profile) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrConflict
		}
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(profile).Error
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) || isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// isUniqueViolation covers the race where two registrations with the same
// email pass the in-transaction count and one hits the unique index.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// InMemoryUserRepository is used in tests.
type InMemoryUserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{users: make(map[uuid.UUID]*domain.User)}
}

func (r *InMemoryUserRepository) Create(_ context.Context, user *domain.User, _ *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return domain.ErrConflict
		}
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *InMemoryUserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *InMemoryUserRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// UpdateRole flips a user's role in place. Only the in-memory
// implementation exposes it; role administration is a separate service
// and the tests use this to simulate it.
func (r *InMemoryUserRepository) UpdateRole(id uuid.UUID, role domain.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.users[id]; ok {
		u.Role = role
	}
}
