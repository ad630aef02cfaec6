// internal/service/auth.go
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/repository"
)

type AuthService struct {
	repos          *repository.Registry
	guard          *OrgGuard
	passwordHasher *auth.PasswordHasher
	tokenManager   *auth.TokenManager
	validate       *validator.Validate
}

func NewAuthService(
	repos *repository.Registry,
	guard *OrgGuard,
	passwordHasher *auth.PasswordHasher,
	tokenManager *auth.TokenManager,
) *AuthService {
	return &AuthService{
		repos:          repos,
		guard:          guard,
		passwordHasher: passwordHasher,
		tokenManager:   tokenManager,
		validate:       validator.New(),
	}
}

type LoginInput struct {
	UsernameOrEmail string `json:"username_or_email" validate:"required"`
	Password        string `json:"password" validate:"required"`
}

type LoginOutput struct {
	Token           string      `json:"token"`
	User            *model.User `json:"user"`
	VisibleTopicIDs []uuid.UUID `json:"visible_topic_ids"`
}

// Login authenticates by username or email. Deactivated accounts and
// accounts in inactive organizations cannot log in.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginOutput, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	user, err := s.repos.Users.FindByLogin(ctx, input.UsernameOrEmail)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.Active {
		return nil, domain.ErrAccountInactive
	}

	if _, err := s.guard.Require(ctx, user.OrganizationID); err != nil {
		return nil, err
	}

	verified, err := s.passwordHasher.Verify(input.Password, user.PasswordHash)
	if err != nil || !verified {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokenManager.Generate(auth.Identity{
		UserID:         user.ID,
		OrganizationID: user.OrganizationID,
		Role:           user.Role,
		Email:          user.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	visible, err := s.repos.GuestAccess.TopicIDsForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &LoginOutput{
		Token:           token,
		User:            user,
		VisibleTopicIDs: visible,
	}, nil
}
