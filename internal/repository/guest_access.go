// internal/repository/guest_access.go
package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/model"
	"gorm.io/gorm"
)

type GuestTopicAccessRepository struct {
	db *gorm.DB
}

func NewGuestTopicAccessRepository(db *gorm.DB) *GuestTopicAccessRepository {
	return &GuestTopicAccessRepository{db: db}
}

func (r *GuestTopicAccessRepository) CreateBatch(ctx context.Context, userID uuid.UUID, topicIDs []uuid.UUID) error {
	if len(topicIDs) == 0 {
		return nil
	}
	grants := make([]model.GuestTopicAccess, 0, len(topicIDs))
	for _, topicID := range topicIDs {
		grants = append(grants, model.GuestTopicAccess{UserID: userID, TopicID: topicID})
	}
	result := r.db.WithContext(ctx).Create(&grants)
	if result.Error != nil {
		return fmt.Errorf("failed to create guest grants: %w", result.Error)
	}
	return nil
}

// TopicIDsForUser returns the granted topic ids for one user. This is the
// read side of the derived visible-topic view; the rows are authoritative.
func (r *GuestTopicAccessRepository) TopicIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var topicIDs []uuid.UUID
	result := r.db.WithContext(ctx).Model(&model.GuestTopicAccess{}).
		Where("user_id = ?", userID).
		Pluck("topic_id", &topicIDs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load guest grants: %w", result.Error)
	}
	return topicIDs, nil
}

func (r *GuestTopicAccessRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.GuestTopicAccess{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete guest grants: %w", result.Error)
	}
	return nil
}

func (r *GuestTopicAccessRepository) DeleteByUserAndTopics(ctx context.Context, userID uuid.UUID, topicIDs []uuid.UUID) error {
	if len(topicIDs) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND topic_id IN ?", userID, topicIDs).
		Delete(&model.GuestTopicAccess{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete guest grants: %w", result.Error)
	}
	return nil
}

func (r *GuestTopicAccessRepository) DeleteByTopic(ctx context.Context, topicID uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("topic_id = ?", topicID).Delete(&model.GuestTopicAccess{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete guest grants for topic: %w", result.Error)
	}
	return nil
}
