// internal/repository/topic.go
package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/model"
	"gorm.io/gorm"
)

type TopicRepository struct {
	db *gorm.DB
}

func NewTopicRepository(db *gorm.DB) *TopicRepository {
	return &TopicRepository{db: db}
}

func (r *TopicRepository) Create(ctx context.Context, topic *model.Topic) error {
	result := r.db.WithContext(ctx).Create(topic)
	if result.Error != nil {
		return fmt.Errorf("failed to create topic: %w", result.Error)
	}
	return nil
}

func (r *TopicRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Topic, error) {
	var topic model.Topic
	result := r.db.WithContext(ctx).First(&topic, "id = ?", id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find topic: %w", result.Error)
	}
	return &topic, nil
}

func (r *TopicRepository) FindByOrganization(ctx context.Context, orgID uuid.UUID) ([]*model.Topic, error) {
	var topics []*model.Topic
	result := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Find(&topics)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find topics: %w", result.Error)
	}
	return topics, nil
}

func (r *TopicRepository) FindActiveByOrganization(ctx context.Context, orgID uuid.UUID) ([]*model.Topic, error) {
	var topics []*model.Topic
	result := r.db.WithContext(ctx).
		Where("organization_id = ? AND is_active = ?", orgID, true).
		Order("created_at DESC").
		Find(&topics)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find active topics: %w", result.Error)
	}
	return topics, nil
}

// FindActiveGranted returns the active topics a guest user has been granted
// access to, restricted to the given organization.
func (r *TopicRepository) FindActiveGranted(ctx context.Context, orgID, userID uuid.UUID) ([]*model.Topic, error) {
	var topics []*model.Topic
	result := r.db.WithContext(ctx).
		Joins("JOIN guest_topic_accesses ON guest_topic_accesses.topic_id = topics.id").
		Where("topics.organization_id = ? AND topics.is_active = ? AND guest_topic_accesses.user_id = ?", orgID, true, userID).
		Order("topics.created_at DESC").
		Find(&topics)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find granted topics: %w", result.Error)
	}
	return topics, nil
}

func (r *TopicRepository) Update(ctx context.Context, topic *model.Topic) error {
	result := r.db.WithContext(ctx).Save(topic)
	if result.Error != nil {
		return fmt.Errorf("failed to update topic: %w", result.Error)
	}
	return nil
}

func (r *TopicRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Topic{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete topic: %w", result.Error)
	}
	return nil
}
