// internal/service/user.go
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

type UserService struct {
	repos          *repository.Registry
	guard          *OrgGuard
	passwordHasher *auth.PasswordHasher
	locker         *orgLocker
	validate       *validator.Validate
}

func NewUserService(repos *repository.Registry, guard *OrgGuard, passwordHasher *auth.PasswordHasher) *UserService {
	return &UserService{
		repos:          repos,
		guard:          guard,
		passwordHasher: passwordHasher,
		locker:         newOrgLocker(),
		validate:       validator.New(),
	}
}

// UserWithTopics is a user plus the visible-topic view derived from the
// guest grant rows. The rows stay authoritative; this is never stored.
type UserWithTopics struct {
	*model.User
	VisibleTopicIDs []uuid.UUID `json:"visible_topic_ids"`
}

type CreateUserInput struct {
	// OrganizationID is honored for ADMIN callers only; everyone else
	// creates users in their own organization.
	OrganizationID  *uuid.UUID  `json:"organization_id"`
	Name            string      `json:"name" validate:"required"`
	Username        string      `json:"username" validate:"required,min=3"`
	Email           string      `json:"email" validate:"required,email"`
	Password        string      `json:"password" validate:"required,min=8"`
	Role            model.Role  `json:"role" validate:"required"`
	Active          *bool       `json:"active"`
	VisibleTopicIDs []uuid.UUID `json:"visible_topic_ids"`
}

// Create adds a user to an organization. Creating an active user counts
// against the organization's MaxUsers limit; the count and the insert run
// inside one transaction under the organization's write lock.
func (s *UserService) Create(ctx context.Context, actor auth.Identity, input CreateUserInput) (*UserWithTopics, error) {
	if err := authz.Allow(actor.Role, authz.ActionUserManage); err != nil {
		return nil, err
	}
	if err := authz.AllowRoleAssignment(actor.Role, input.Role); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if !input.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, input.Role)
	}
	if input.Role != model.RoleGuest && len(input.VisibleTopicIDs) > 0 {
		return nil, fmt.Errorf("%w: visible topics are only valid for guest users", domain.ErrInvalidInput)
	}

	orgID := actor.OrganizationID
	if actor.IsAdmin() && input.OrganizationID != nil {
		orgID = *input.OrganizationID
	}
	if _, err := s.guard.Require(ctx, orgID); err != nil {
		return nil, err
	}

	passwordHash, err := s.passwordHasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	active := input.Active == nil || *input.Active

	unlock := s.locker.Lock(orgID)
	defer unlock()

	user := &model.User{
		OrganizationID: orgID,
		Name:           input.Name,
		Username:       input.Username,
		Email:          input.Email,
		PasswordHash:   passwordHash,
		Role:           input.Role,
		Active:         active,
	}

	err = s.repos.WithTransaction(ctx, func(tx *repository.Registry) error {
		if active {
			if err := checkCapacity(ctx, tx, orgID); err != nil {
				return err
			}
		}
		if err := tx.Users.Create(ctx, user); err != nil {
			return err
		}
		if user.Role == model.RoleGuest && len(input.VisibleTopicIDs) > 0 {
			if err := validateGrantTopics(ctx, tx, orgID, input.VisibleTopicIDs); err != nil {
				return err
			}
			return tx.GuestAccess.CreateBatch(ctx, user.ID, input.VisibleTopicIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.withTopics(ctx, user)
}

type UpdateUserInput struct {
	Name            *string      `json:"name" validate:"omitempty,min=1"`
	Role            *model.Role  `json:"role"`
	Active          *bool        `json:"active"`
	Password        *string      `json:"password" validate:"omitempty,min=8"`
	VisibleTopicIDs *[]uuid.UUID `json:"visible_topic_ids"`
}

// Update mutates a user. Reactivation is capacity-checked; a role change
// away from GUEST removes every guest grant; a guest's visible-topic set is
// diff-applied. All of it commits or rolls back as one transaction.
func (s *UserService) Update(ctx context.Context, actor auth.Identity, userID uuid.UUID, input UpdateUserInput) (*UserWithTopics, error) {
	if err := authz.Allow(actor.Role, authz.ActionUserManage); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	user, err := s.repos.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := matchOrganization(actor, user.OrganizationID); err != nil {
		return nil, err
	}
	if _, err := s.guard.Require(ctx, user.OrganizationID); err != nil {
		return nil, err
	}

	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, *input.Role)
		}
		if *input.Role != user.Role {
			if err := authz.AllowRoleAssignment(actor.Role, *input.Role); err != nil {
				return nil, err
			}
		}
	}

	activating := input.Active != nil && *input.Active && !user.Active

	unlock := s.locker.Lock(user.OrganizationID)
	defer unlock()

	err = s.repos.WithTransaction(ctx, func(tx *repository.Registry) error {
		if activating {
			if err := checkCapacity(ctx, tx, user.OrganizationID); err != nil {
				return err
			}
		}

		previousRole := user.Role
		if input.Name != nil {
			user.Name = *input.Name
		}
		if input.Role != nil {
			user.Role = *input.Role
		}
		if input.Active != nil {
			user.Active = *input.Active
		}
		if input.Password != nil {
			hash, err := s.passwordHasher.Hash(*input.Password)
			if err != nil {
				return fmt.Errorf("hashing password: %w", err)
			}
			user.PasswordHash = hash
		}

		if err := tx.Users.Update(ctx, user); err != nil {
			return err
		}

		// Leaving GUEST wipes every grant; the join rows must never exist
		// for non-guest users.
		if previousRole == model.RoleGuest && user.Role != model.RoleGuest {
			return tx.GuestAccess.DeleteByUser(ctx, user.ID)
		}

		if user.Role == model.RoleGuest && input.VisibleTopicIDs != nil {
			return applyGrantDiff(ctx, tx, user.OrganizationID, user.ID, *input.VisibleTopicIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.withTopics(ctx, user)
}

// Profile returns the caller's own account. Every authenticated role may
// read it.
func (s *UserService) Profile(ctx context.Context, actor auth.Identity) (*UserWithTopics, error) {
	if _, err := s.guard.Require(ctx, actor.OrganizationID); err != nil {
		return nil, err
	}
	user, err := s.repos.Users.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return s.withTopics(ctx, user)
}

type UpdateProfileInput struct {
	Name     *string `json:"name" validate:"omitempty,min=1"`
	Password *string `json:"password" validate:"omitempty,min=8"`
}

// UpdateProfile lets any authenticated user change their own name and
// password. Role, activation and topic grants stay management-only, which is
// why this input deliberately carries neither.
func (s *UserService) UpdateProfile(ctx context.Context, actor auth.Identity, input UpdateProfileInput) (*UserWithTopics, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if _, err := s.guard.Require(ctx, actor.OrganizationID); err != nil {
		return nil, err
	}

	user, err := s.repos.Users.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Password != nil {
		hash, err := s.passwordHasher.Hash(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.repos.Users.Update(ctx, user); err != nil {
		return nil, err
	}
	return s.withTopics(ctx, user)
}

func (s *UserService) Get(ctx context.Context, actor auth.Identity, userID uuid.UUID) (*UserWithTopics, error) {
	if _, err := s.guard.Require(ctx, actor.OrganizationID); err != nil {
		return nil, err
	}
	user, err := s.repos.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := matchOrganization(actor, user.OrganizationID); err != nil {
		return nil, err
	}
	return s.withTopics(ctx, user)
}

func (s *UserService) List(ctx context.Context, actor auth.Identity) ([]*UserWithTopics, error) {
	if err := authz.Allow(actor.Role, authz.ActionUserManage); err != nil {
		return nil, err
	}
	if _, err := s.guard.Require(ctx, actor.OrganizationID); err != nil {
		return nil, err
	}
	users, err := s.repos.Users.FindByOrganization(ctx, actor.OrganizationID)
	if err != nil {
		return nil, err
	}

	out := make([]*UserWithTopics, 0, len(users))
	for _, user := range users {
		uwt, err := s.withTopics(ctx, user)
		if err != nil {
			return nil, err
		}
		out = append(out, uwt)
	}
	return out, nil
}

// Delete soft-deletes by clearing the Active flag. Task history stays
// attached to the user, so rows are never removed.
func (s *UserService) Delete(ctx context.Context, actor auth.Identity, userID uuid.UUID) error {
	if err := authz.Allow(actor.Role, authz.ActionUserManage); err != nil {
		return err
	}
	user, err := s.repos.Users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := matchOrganization(actor, user.OrganizationID); err != nil {
		return err
	}
	if _, err := s.guard.Require(ctx, user.OrganizationID); err != nil {
		return err
	}

	user.Active = false
	return s.repos.Users.Update(ctx, user)
}

func (s *UserService) withTopics(ctx context.Context, user *model.User) (*UserWithTopics, error) {
	visible := []uuid.UUID{}
	if user.Role == model.RoleGuest {
		ids, err := s.repos.GuestAccess.TopicIDsForUser(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if ids != nil {
			visible = ids
		}
	}
	return &UserWithTopics{User: user, VisibleTopicIDs: visible}, nil
}

// checkCapacity enforces count(active users) < MaxUsers. Callers must hold
// the organization lock and run inside the same transaction as the write
// that increases the count. The organization is re-read here so the limit
// and the count are observed under that same lock; a MaxUsers change
// committed before the lock was taken is never missed.
func checkCapacity(ctx context.Context, tx *repository.Registry, orgID uuid.UUID) error {
	org, err := tx.Organizations.FindByID(ctx, orgID)
	if err != nil {
		return err
	}
	count, err := tx.Users.CountActive(ctx, org.ID)
	if err != nil {
		return err
	}
	if count >= int64(org.MaxUsers) {
		return fmt.Errorf("%w: maximum active user limit (%d) reached", domain.ErrCapacityExceeded, org.MaxUsers)
	}
	return nil
}

// validateGrantTopics rejects grants pointing outside the organization.
func validateGrantTopics(ctx context.Context, tx *repository.Registry, orgID uuid.UUID, topicIDs []uuid.UUID) error {
	for _, topicID := range topicIDs {
		topic, err := tx.Topics.FindByID(ctx, topicID)
		if err != nil {
			return fmt.Errorf("%w: topic %s", domain.ErrInvalidTopic, topicID)
		}
		if topic.OrganizationID != orgID {
			return fmt.Errorf("%w: topic %s", domain.ErrInvalidTopic, topicID)
		}
	}
	return nil
}

// applyGrantDiff reconciles a guest's grant rows with the desired set:
// toAdd = desired - existing, toRemove = existing - desired, both applied in
// the caller's transaction.
func applyGrantDiff(ctx context.Context, tx *repository.Registry, orgID, userID uuid.UUID, desired []uuid.UUID) error {
	existing, err := tx.GuestAccess.TopicIDsForUser(ctx, userID)
	if err != nil {
		return err
	}

	existingSet := make(map[uuid.UUID]bool, len(existing))
	for _, id := range existing {
		existingSet[id] = true
	}
	desiredSet := make(map[uuid.UUID]bool, len(desired))
	for _, id := range desired {
		desiredSet[id] = true
	}

	var toAdd, toRemove []uuid.UUID
	for _, id := range desired {
		if !existingSet[id] {
			toAdd = append(toAdd, id)
		}
	}
	for _, id := range existing {
		if !desiredSet[id] {
			toRemove = append(toRemove, id)
		}
	}

	if err := validateGrantTopics(ctx, tx, orgID, toAdd); err != nil {
		return err
	}
	if err := tx.GuestAccess.DeleteByUserAndTopics(ctx, userID, toRemove); err != nil {
		return err
	}
	return tx.GuestAccess.CreateBatch(ctx, userID, toAdd)
}
