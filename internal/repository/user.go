// internal/repository/user.go
package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/model"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	result := r.db.WithContext(ctx).Create(user)
	if result.Error != nil {
		if IsDuplicate(result.Error) {
			return fmt.Errorf("%w: email or username", domain.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create user: %w", result.Error)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	result := r.db.WithContext(ctx).First(&user, "id = ?", id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", result.Error)
	}
	return &user, nil
}

// FindByLogin looks a user up by username or email across all organizations.
// Login happens before any organization scope exists.
func (r *UserRepository) FindByLogin(ctx context.Context, usernameOrEmail string) (*model.User, error) {
	var user model.User
	result := r.db.WithContext(ctx).
		Where("username = ? OR email = ?", usernameOrEmail, usernameOrEmail).
		First(&user)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", result.Error)
	}
	return &user, nil
}

// EmailExists and UsernameExists probe global uniqueness during registration.
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", email).Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("failed to check email: %w", result.Error)
	}
	return count > 0, nil
}

func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&model.User{}).Where("username = ?", username).Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("failed to check username: %w", result.Error)
	}
	return count > 0, nil
}

func (r *UserRepository) FindByOrganization(ctx context.Context, orgID uuid.UUID) ([]*model.User, error) {
	var users []*model.User
	result := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Find(&users)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find users: %w", result.Error)
	}
	return users, nil
}

// CountActive returns the number of active users in an organization. Callers
// enforcing the capacity invariant must hold the organization's write lock
// so the count and the subsequent write observe the same state.
func (r *UserRepository) CountActive(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("organization_id = ? AND active = ?", orgID, true).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count active users: %w", result.Error)
	}
	return count, nil
}

func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	result := r.db.WithContext(ctx).Save(user)
	if result.Error != nil {
		if IsDuplicate(result.Error) {
			return fmt.Errorf("%w: email or username", domain.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	return nil
}
