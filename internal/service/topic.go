// internal/service/topic.go
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

type TopicService struct {
	repos    *repository.Registry
	guard    *OrgGuard
	validate *validator.Validate
}

func NewTopicService(repos *repository.Registry, guard *OrgGuard) *TopicService {
	return &TopicService{
		repos:    repos,
		guard:    guard,
		validate: validator.New(),
	}
}

type CreateTopicInput struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

func (s *TopicService) Create(ctx context.Context, actor auth.Identity, input CreateTopicInput) (*model.Topic, error) {
	if err := authz.Allow(actor.Role, authz.ActionTopicManage); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if _, err := s.guard.Require(ctx, actor.OrganizationID); err != nil {
		return nil, err
	}

	topic := &model.Topic{
		OrganizationID: actor.OrganizationID,
		Title:          input.Title,
		Description:    input.Description,
		IsActive:       input.IsActive == nil || *input.IsActive,
	}
	if err := s.repos.Topics.Create(ctx, topic); err != nil {
		return nil, err
	}
	return topic, nil
}

type UpdateTopicInput struct {
	Title       *string `json:"title" validate:"omitempty,min=1"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

func (s *TopicService) Update(ctx context.Context, actor auth.Identity, topicID uuid.UUID, input UpdateTopicInput) (*model.Topic, error) {
	if err := authz.Allow(actor.Role, authz.ActionTopicManage); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	topic, err := s.loadScoped(ctx, actor, topicID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		topic.Title = *input.Title
	}
	if input.Description != nil {
		topic.Description = *input.Description
	}
	if input.IsActive != nil {
		topic.IsActive = *input.IsActive
	}

	if err := s.repos.Topics.Update(ctx, topic); err != nil {
		return nil, err
	}
	return topic, nil
}

// Delete removes a topic and, in the same transaction, detaches its tasks
// (TopicID becomes null) and removes every guest grant referencing it.
// Tasks themselves are never cascade-deleted.
func (s *TopicService) Delete(ctx context.Context, actor auth.Identity, topicID uuid.UUID) error {
	if err := authz.Allow(actor.Role, authz.ActionTopicManage); err != nil {
		return err
	}
	topic, err := s.loadScoped(ctx, actor, topicID)
	if err != nil {
		return err
	}

	return s.repos.WithTransaction(ctx, func(tx *repository.Registry) error {
		if err := tx.Tasks.DetachTopic(ctx, topic.ID); err != nil {
			return err
		}
		if err := tx.GuestAccess.DeleteByTopic(ctx, topic.ID); err != nil {
			return err
		}
		return tx.Topics.Delete(ctx, topic.ID)
	})
}

func (s *TopicService) Get(ctx context.Context, actor auth.Identity, topicID uuid.UUID) (*model.Topic, error) {
	topic, err := s.loadScoped(ctx, actor, topicID)
	if err != nil {
		return nil, err
	}
	if actor.Role == model.RoleGuest {
		granted, err := s.grantedTopic(ctx, actor.UserID, topic.ID)
		if err != nil {
			return nil, err
		}
		if !granted {
			return nil, domain.ErrNotFound
		}
	}
	return topic, nil
}

func (s *TopicService) List(ctx context.Context, actor auth.Identity) ([]*model.Topic, error) {
	if err := authz.Allow(actor.Role, authz.ActionTopicManage); err != nil {
		return nil, err
	}
	if _, err := s.guard.Require(ctx, actor.OrganizationID); err != nil {
		return nil, err
	}
	return s.repos.Topics.FindByOrganization(ctx, actor.OrganizationID)
}

// ListActive is the read every role gets. Guests see only the active topics
// they hold a grant for.
func (s *TopicService) ListActive(ctx context.Context, actor auth.Identity) ([]*model.Topic, error) {
	if _, err := s.guard.Require(ctx, actor.OrganizationID); err != nil {
		return nil, err
	}
	if actor.Role == model.RoleGuest {
		return s.repos.Topics.FindActiveGranted(ctx, actor.OrganizationID, actor.UserID)
	}
	return s.repos.Topics.FindActiveByOrganization(ctx, actor.OrganizationID)
}

func (s *TopicService) loadScoped(ctx context.Context, actor auth.Identity, topicID uuid.UUID) (*model.Topic, error) {
	topic, err := s.repos.Topics.FindByID(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if err := matchOrganization(actor, topic.OrganizationID); err != nil {
		return nil, err
	}
	if _, err := s.guard.Require(ctx, topic.OrganizationID); err != nil {
		return nil, err
	}
	return topic, nil
}

func (s *TopicService) grantedTopic(ctx context.Context, userID, topicID uuid.UUID) (bool, error) {
	ids, err := s.repos.GuestAccess.TopicIDsForUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == topicID {
			return true, nil
		}
	}
	return false, nil
}
