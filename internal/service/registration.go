// internal/service/registration.go
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/config"
	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/email"
	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/repository"
)

type RegistrationService struct {
	repos          *repository.Registry
	passwordHasher *auth.PasswordHasher
	tokenManager   *auth.TokenManager
	mailer         email.Mailer
	config         *config.Config
	validate       *validator.Validate
}

func NewRegistrationService(
	repos *repository.Registry,
	passwordHasher *auth.PasswordHasher,
	tokenManager *auth.TokenManager,
	mailer email.Mailer,
	cfg *config.Config,
) *RegistrationService {
	return &RegistrationService{
		repos:          repos,
		passwordHasher: passwordHasher,
		tokenManager:   tokenManager,
		mailer:         mailer,
		config:         cfg,
		validate:       validator.New(),
	}
}

type RegisterTeamInput struct {
	CompanyName string `json:"company_name" validate:"required"`
	TeamName    string `json:"team_name" validate:"required"`
	ManagerName string `json:"manager_name" validate:"required"`
	Username    string `json:"username" validate:"required,min=3"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
}

type RegisterTeamOutput struct {
	Organization *model.Organization `json:"organization"`
	User         *model.User         `json:"user"`
	Token        string              `json:"token"`
}

// RegisterTeam creates a new organization plus its TEAM_MANAGER account in
// one transaction and returns a signed token for the fresh manager.
func (s *RegistrationService) RegisterTeam(ctx context.Context, input RegisterTeamInput) (*RegisterTeamOutput, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	// Email and username are probed globally before the write; the database
	// unique indexes are the backstop for concurrent registrations.
	emailTaken, err := s.repos.Users.EmailExists(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if emailTaken {
		return nil, fmt.Errorf("%w: email is already registered", domain.ErrDuplicateEntry)
	}

	usernameTaken, err := s.repos.Users.UsernameExists(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if usernameTaken {
		return nil, fmt.Errorf("%w: username is already taken", domain.ErrDuplicateEntry)
	}

	baseSlug := Slugify(input.CompanyName, input.TeamName)
	if baseSlug == "" {
		return nil, domain.ErrSlugGenerationFailed
	}
	slug, err := s.ensureUniqueSlug(ctx, baseSlug)
	if err != nil {
		return nil, err
	}

	passwordHash, err := s.passwordHasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	var org *model.Organization
	var manager *model.User
	err = s.repos.WithTransaction(ctx, func(tx *repository.Registry) error {
		org = &model.Organization{
			Name:     input.CompanyName,
			TeamName: input.TeamName,
			Slug:     slug,
			IsActive: true,
			MaxUsers: s.config.DefaultMaxUsers,
		}
		if err := tx.Organizations.Create(ctx, org); err != nil {
			return err
		}

		manager = &model.User{
			OrganizationID: org.ID,
			Name:           input.ManagerName,
			Username:       input.Username,
			Email:          input.Email,
			PasswordHash:   passwordHash,
			Role:           model.RoleTeamManager,
			Active:         true,
		}
		return tx.Users.Create(ctx, manager)
	})
	if err != nil {
		return nil, err
	}

	token, err := s.tokenManager.Generate(auth.Identity{
		UserID:         manager.ID,
		OrganizationID: org.ID,
		Role:           manager.Role,
		Email:          manager.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	// The welcome email is best-effort; registration must not fail on it.
	if s.mailer != nil {
		if err := email.SendWelcomeEmail(s.mailer, manager.Email, manager.Name, org.TeamName, s.config.BaseURL); err != nil {
			slog.ErrorContext(ctx, "sending welcome email", "error", err, "organization", org.ID)
		}
	}

	return &RegisterTeamOutput{
		Organization: org,
		User:         manager,
		Token:        token,
	}, nil
}

// ensureUniqueSlug probes slug, slug-1, slug-2, ... until an unused value is
// found. Concurrent registrations with identical names can race here; the
// unique index on slug turns the loser into a DuplicateEntry failure, which
// is acceptable at registration volume.
func (s *RegistrationService) ensureUniqueSlug(ctx context.Context, baseSlug string) (string, error) {
	slug := baseSlug
	for counter := 1; ; counter++ {
		exists, err := s.repos.Organizations.SlugExists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", baseSlug, counter)
	}
}
