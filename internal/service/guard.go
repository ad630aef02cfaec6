// internal/service/guard.go
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/repository"
)

// OrgGuard is the single choke point between a resolved identity and any
// organization-scoped data access. Every use case loads its organization
// through here before touching repositories.
type OrgGuard struct {
	orgs *repository.OrganizationRepository
}

func NewOrgGuard(orgs *repository.OrganizationRepository) *OrgGuard {
	return &OrgGuard{orgs: orgs}
}

// Require loads the actor's organization and rejects missing or inactive
// ones. Admins operating on a foreign organization pass the id of the
// organization actually touched.
func (g *OrgGuard) Require(ctx context.Context, orgID uuid.UUID) (*model.Organization, error) {
	org, err := g.orgs.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if !org.IsActive {
		return nil, domain.ErrOrganizationInactive
	}
	return org, nil
}

// RequireAny is Require without the activity check. Only organization
// activation uses it: a team manager must be able to reactivate their own
// inactive organization.
func (g *OrgGuard) RequireAny(ctx context.Context, orgID uuid.UUID) (*model.Organization, error) {
	return g.orgs.FindByID(ctx, orgID)
}

// matchOrganization enforces the isolation contract for by-id resource
// access. A mismatch is reported as ErrCrossOrganizationAccess, which the
// handler layer renders as not-found so callers cannot confirm that a
// resource exists in another tenant. ADMIN bypasses the check.
func matchOrganization(actor auth.Identity, resourceOrgID uuid.UUID) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.OrganizationID != resourceOrgID {
		return fmt.Errorf("%w", domain.ErrCrossOrganizationAccess)
	}
	return nil
}
