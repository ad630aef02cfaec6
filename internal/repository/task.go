// internal/repository/task.go
package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/model"
	"gorm.io/gorm"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	result := r.db.WithContext(ctx).Create(task)
	if result.Error != nil {
		return fmt.Errorf("failed to create task: %w", result.Error)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	result := r.db.WithContext(ctx).
		Preload("Topic").
		Preload("Assignee").
		First(&task, "id = ?", id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", result.Error)
	}
	return &task, nil
}

// FindActiveByOrganization lists TODO and IN_PROGRESS tasks for a whole team.
func (r *TaskRepository) FindActiveByOrganization(ctx context.Context, orgID uuid.UUID) ([]*model.Task, error) {
	var tasks []*model.Task
	result := r.db.WithContext(ctx).
		Preload("Topic").
		Preload("Assignee").
		Where("organization_id = ? AND status IN ?", orgID, []model.TaskStatus{model.StatusTodo, model.StatusInProgress}).
		Order("created_at DESC").
		Find(&tasks)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find active tasks: %w", result.Error)
	}
	return tasks, nil
}

// FindActiveByOrganizationTopics is the guest variant: only tasks attached to
// one of the granted topics are visible.
func (r *TaskRepository) FindActiveByOrganizationTopics(ctx context.Context, orgID uuid.UUID, topicIDs []uuid.UUID) ([]*model.Task, error) {
	if len(topicIDs) == 0 {
		return nil, nil
	}
	var tasks []*model.Task
	result := r.db.WithContext(ctx).
		Preload("Topic").
		Preload("Assignee").
		Where("organization_id = ? AND topic_id IN ? AND status IN ?", orgID, topicIDs,
			[]model.TaskStatus{model.StatusTodo, model.StatusInProgress}).
		Order("created_at DESC").
		Find(&tasks)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find granted tasks: %w", result.Error)
	}
	return tasks, nil
}

func (r *TaskRepository) FindActiveByAssignee(ctx context.Context, orgID, assigneeID uuid.UUID) ([]*model.Task, error) {
	var tasks []*model.Task
	result := r.db.WithContext(ctx).
		Preload("Topic").
		Preload("Assignee").
		Where("organization_id = ? AND assignee_id = ? AND status IN ?", orgID, assigneeID,
			[]model.TaskStatus{model.StatusTodo, model.StatusInProgress}).
		Order("created_at DESC").
		Find(&tasks)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find assigned tasks: %w", result.Error)
	}
	return tasks, nil
}

func (r *TaskRepository) FindCompletedByAssignee(ctx context.Context, orgID, assigneeID uuid.UUID) ([]*model.Task, error) {
	var tasks []*model.Task
	result := r.db.WithContext(ctx).
		Preload("Topic").
		Preload("Assignee").
		Where("organization_id = ? AND assignee_id = ? AND status = ?", orgID, assigneeID, model.StatusDone).
		Order("completed_at DESC").
		Find(&tasks)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find completed tasks: %w", result.Error)
	}
	return tasks, nil
}

func (r *TaskRepository) FindAllByOrganization(ctx context.Context, orgID uuid.UUID) ([]*model.Task, error) {
	var tasks []*model.Task
	result := r.db.WithContext(ctx).
		Preload("Topic").
		Preload("Assignee").
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Find(&tasks)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find tasks: %w", result.Error)
	}
	return tasks, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	result := r.db.WithContext(ctx).Save(task)
	if result.Error != nil {
		return fmt.Errorf("failed to update task: %w", result.Error)
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Task{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete task: %w", result.Error)
	}
	return nil
}

// DetachTopic nulls out TopicID on every task referencing a topic. Runs as
// part of the topic-deletion transaction; topics never cascade-delete tasks.
func (r *TaskRepository) DetachTopic(ctx context.Context, topicID uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("topic_id = ?", topicID).
		Update("topic_id", nil)
	if result.Error != nil {
		return fmt.Errorf("failed to detach tasks from topic: %w", result.Error)
	}
	return nil
}
