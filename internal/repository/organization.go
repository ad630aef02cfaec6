// internal/repository/organization.go
package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/model"
	"gorm.io/gorm"
)

type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) Create(ctx context.Context, org *model.Organization) error {
	result := r.db.WithContext(ctx).Create(org)
	if result.Error != nil {
		if IsDuplicate(result.Error) {
			return fmt.Errorf("%w: slug %q", domain.ErrDuplicateEntry, org.Slug)
		}
		return fmt.Errorf("failed to create organization: %w", result.Error)
	}
	return nil
}

func (r *OrganizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	var org model.Organization
	result := r.db.WithContext(ctx).First(&org, "id = ?", id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, domain.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", result.Error)
	}
	return &org, nil
}

// SlugExists probes a candidate slug during registration.
func (r *OrganizationRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&model.Organization{}).Where("slug = ?", slug).Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("failed to check slug: %w", result.Error)
	}
	return count > 0, nil
}

func (r *OrganizationRepository) Update(ctx context.Context, org *model.Organization) error {
	result := r.db.WithContext(ctx).Save(org)
	if result.Error != nil {
		return fmt.Errorf("failed to update organization: %w", result.Error)
	}
	return nil
}

// OrganizationStats aggregates per-tenant counters for the stats endpoint.
type OrganizationStats struct {
	UserCount          int64 `json:"user_count"`
	ActiveUserCount    int64 `json:"active_user_count"`
	TaskCount          int64 `json:"task_count"`
	ActiveTaskCount    int64 `json:"active_task_count"`
	CompletedTaskCount int64 `json:"completed_task_count"`
	TopicCount         int64 `json:"topic_count"`
	ActiveTopicCount   int64 `json:"active_topic_count"`
}

func (r *OrganizationRepository) Stats(ctx context.Context, orgID uuid.UUID) (*OrganizationStats, error) {
	stats := &OrganizationStats{}
	db := r.db.WithContext(ctx)

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.UserCount, db.Model(&model.User{}).Where("organization_id = ?", orgID)},
		{&stats.ActiveUserCount, db.Model(&model.User{}).Where("organization_id = ? AND active = ?", orgID, true)},
		{&stats.TaskCount, db.Model(&model.Task{}).Where("organization_id = ?", orgID)},
		{&stats.ActiveTaskCount, db.Model(&model.Task{}).Where("organization_id = ? AND status IN ?", orgID,
			[]model.TaskStatus{model.StatusTodo, model.StatusInProgress})},
		{&stats.CompletedTaskCount, db.Model(&model.Task{}).Where("organization_id = ? AND status = ?", orgID, model.StatusDone)},
		{&stats.TopicCount, db.Model(&model.Topic{}).Where("organization_id = ?", orgID)},
		{&stats.ActiveTopicCount, db.Model(&model.Topic{}).Where("organization_id = ? AND is_active = ?", orgID, true)},
	}

	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to compute organization stats: %w", err)
		}
	}
	return stats, nil
}

// SetActive flips the soft activation flag; organizations are never hard-deleted.
func (r *OrganizationRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result := r.db.WithContext(ctx).Model(&model.Organization{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return fmt.Errorf("failed to update organization activation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrOrganizationNotFound
	}
	return nil
}
