// internal/service/organization.go
package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/authz"
	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/repository"
)

type OrganizationService struct {
	repos    *repository.Registry
	guard    *OrgGuard
	validate *validator.Validate
}

func NewOrganizationService(repos *repository.Registry, guard *OrgGuard) *OrganizationService {
	return &OrganizationService{
		repos:    repos,
		guard:    guard,
		validate: validator.New(),
	}
}

// Get returns one organization. Non-admins may only read their own.
func (s *OrganizationService) Get(ctx context.Context, actor auth.Identity, orgID uuid.UUID) (*model.Organization, error) {
	if err := matchOrganization(actor, orgID); err != nil {
		return nil, err
	}
	return s.guard.Require(ctx, orgID)
}

type UpdateOrganizationInput struct {
	Name     *string `json:"name" validate:"omitempty,min=1"`
	TeamName *string `json:"team_name" validate:"omitempty,min=1"`
	MaxUsers *int    `json:"max_users" validate:"omitempty,min=1"`
}

func (s *OrganizationService) Update(ctx context.Context, actor auth.Identity, orgID uuid.UUID, input UpdateOrganizationInput) (*model.Organization, error) {
	if err := authz.Allow(actor.Role, authz.ActionOrganizationUpdate); err != nil {
		return nil, err
	}
	if err := matchOrganization(actor, orgID); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	org, err := s.guard.Require(ctx, orgID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		org.Name = *input.Name
	}
	if input.TeamName != nil {
		org.TeamName = *input.TeamName
	}
	if input.MaxUsers != nil {
		org.MaxUsers = *input.MaxUsers
	}

	if err := s.repos.Organizations.Update(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

func (s *OrganizationService) Stats(ctx context.Context, actor auth.Identity, orgID uuid.UUID) (*repository.OrganizationStats, error) {
	if err := matchOrganization(actor, orgID); err != nil {
		return nil, err
	}
	if _, err := s.guard.Require(ctx, orgID); err != nil {
		return nil, err
	}
	return s.repos.Organizations.Stats(ctx, orgID)
}

// Activate re-enables an organization. TEAM_MANAGER may reactivate their own
// organization, which is why the guard's activity check is skipped here.
func (s *OrganizationService) Activate(ctx context.Context, actor auth.Identity, orgID uuid.UUID) error {
	if err := authz.Allow(actor.Role, authz.ActionOrganizationActivate); err != nil {
		return err
	}
	if err := matchOrganization(actor, orgID); err != nil {
		return err
	}
	if _, err := s.guard.RequireAny(ctx, orgID); err != nil {
		return err
	}
	return s.repos.Organizations.SetActive(ctx, orgID, true)
}

// Deactivate is ADMIN only.
func (s *OrganizationService) Deactivate(ctx context.Context, actor auth.Identity, orgID uuid.UUID) error {
	if err := authz.Allow(actor.Role, authz.ActionOrganizationDeactivate); err != nil {
		return err
	}
	if _, err := s.guard.RequireAny(ctx, orgID); err != nil {
		return err
	}
	return s.repos.Organizations.SetActive(ctx, orgID, false)
}
