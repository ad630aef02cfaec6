// internal/service/task.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/authz"
	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/repository"
)

type TaskService struct {
	repos    *repository.Registry
	guard    *OrgGuard
	validate *validator.Validate
	now      func() time.Time
}

func NewTaskService(repos *repository.Registry, guard *OrgGuard) *TaskService {
	return &TaskService{
		repos:    repos,
		guard:    guard,
		validate: validator.New(),
		now:      time.Now,
	}
}

// AssigneeView carries the assignee fields a caller may see. Username is
// omitted for guests.
type AssigneeView struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Username string    `json:"username,omitempty"`
}

type TopicRef struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

// TaskView is the read shape for task lists and single-task reads. For
// guest callers every field beyond {id, title, status, priority, due date,
// assignee id+name} is stripped here, in the service layer, so the same
// rule governs what a guest can infer exists regardless of transport.
type TaskView struct {
	ID          uuid.UUID        `json:"id"`
	Title       string           `json:"title"`
	Status      model.TaskStatus `json:"status"`
	Priority    model.Priority   `json:"priority"`
	DueDate     *time.Time       `json:"due_date"`
	Assignee    *AssigneeView    `json:"assignee"`
	TopicID     *uuid.UUID       `json:"topic_id,omitempty"`
	Topic       *TopicRef        `json:"topic,omitempty"`
	Note        string           `json:"note,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	CreatedAt   *time.Time       `json:"created_at,omitempty"`
	UpdatedAt   *time.Time       `json:"updated_at,omitempty"`
}

func newTaskView(task *model.Task, guest bool) *TaskView {
	view := &TaskView{
		ID:       task.ID,
		Title:    task.Title,
		Status:   task.Status,
		Priority: task.Priority,
		DueDate:  task.DueDate,
	}
	if task.Assignee != nil {
		view.Assignee = &AssigneeView{ID: task.Assignee.ID, Name: task.Assignee.Name}
		if !guest {
			view.Assignee.Username = task.Assignee.Username
		}
	}
	if guest {
		return view
	}

	view.TopicID = task.TopicID
	view.Note = task.Note
	view.CompletedAt = task.CompletedAt
	createdAt, updatedAt := task.CreatedAt, task.UpdatedAt
	view.CreatedAt = &createdAt
	view.UpdatedAt = &updatedAt
	if task.Topic != nil {
		view.Topic = &TopicRef{ID: task.Topic.ID, Title: task.Topic.Title}
	}
	return view
}

func newTaskViews(tasks []*model.Task, guest bool) []*TaskView {
	views := make([]*TaskView, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, newTaskView(task, guest))
	}
	return views
}

type CreateTaskInput struct {
	TopicID    *uuid.UUID       `json:"topic_id"`
	Title      string           `json:"title" validate:"required"`
	Note       string           `json:"note"`
	AssigneeID *uuid.UUID       `json:"assignee_id"`
	Status     model.TaskStatus `json:"status"`
	Priority   model.Priority   `json:"priority"`
	DueDate    *time.Time       `json:"due_date"`
}

// Create makes a task in the actor's organization. Non-managers always end
// up as the assignee of their own tasks; assigning someone else requires
// manager privileges.
func (s *TaskService) Create(ctx context.Context, actor auth.Identity, input CreateTaskInput) (*TaskView, error) {
	if err := authz.Allow(actor.Role, authz.ActionTaskCreate); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if _, err := s.guard.Require(ctx, actor.OrganizationID); err != nil {
		return nil, err
	}

	assigneeID := input.AssigneeID
	if !actor.IsManager() {
		if assigneeID != nil && *assigneeID != actor.UserID {
			if err := authz.Allow(actor.Role, authz.ActionTaskManageAny); err != nil {
				return nil, err
			}
		}
		// Members create their own work.
		self := actor.UserID
		assigneeID = &self
	}

	if assigneeID != nil {
		if err := s.validateAssignee(ctx, actor.OrganizationID, *assigneeID); err != nil {
			return nil, err
		}
	}
	if input.TopicID != nil {
		if err := s.validateTopic(ctx, actor.OrganizationID, *input.TopicID); err != nil {
			return nil, err
		}
	}

	status := input.Status
	if status == "" {
		status = model.StatusTodo
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, input.Status)
	}
	priority := input.Priority
	if priority == "" {
		priority = model.PriorityNormal
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", domain.ErrInvalidInput, input.Priority)
	}

	task := &model.Task{
		OrganizationID: actor.OrganizationID,
		TopicID:        input.TopicID,
		Title:          input.Title,
		Note:           input.Note,
		AssigneeID:     assigneeID,
		Status:         status,
		Priority:       priority,
		DueDate:        input.DueDate,
	}
	if status == model.StatusDone {
		now := s.now()
		task.CompletedAt = &now
	}

	if err := s.repos.Tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	created, err := s.repos.Tasks.FindByID(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	return newTaskView(created, false), nil
}

type UpdateTaskInput struct {
	Title      *string           `json:"title" validate:"omitempty,min=1"`
	Note       *string           `json:"note"`
	TopicID    *uuid.UUID        `json:"topic_id"`
	AssigneeID *uuid.UUID        `json:"assignee_id"`
	Status     *model.TaskStatus `json:"status"`
	Priority   *model.Priority   `json:"priority"`
	DueDate    *time.Time        `json:"due_date"`
}

// Update mutates a task. Reassignment and topic moves require manager
// privileges; everything else is open to managers and the current assignee.
func (s *TaskService) Update(ctx context.Context, actor auth.Identity, taskID uuid.UUID, input UpdateTaskInput) (*TaskView, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	task, err := s.loadScoped(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeMutation(actor, task); err != nil {
		return nil, err
	}

	if input.AssigneeID != nil {
		if err := authz.Allow(actor.Role, authz.ActionTaskManageAny); err != nil {
			return nil, err
		}
		if err := s.validateAssignee(ctx, task.OrganizationID, *input.AssigneeID); err != nil {
			return nil, err
		}
		task.AssigneeID = input.AssigneeID
	}
	if input.TopicID != nil {
		if err := authz.Allow(actor.Role, authz.ActionTaskManageAny); err != nil {
			return nil, err
		}
		if err := s.validateTopic(ctx, task.OrganizationID, *input.TopicID); err != nil {
			return nil, err
		}
		task.TopicID = input.TopicID
	}

	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Note != nil {
		task.Note = *input.Note
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, fmt.Errorf("%w: unknown priority %q", domain.ErrInvalidInput, *input.Priority)
		}
		task.Priority = *input.Priority
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, *input.Status)
		}
		s.applyStatusTransition(task, *input.Status)
	}

	if err := s.repos.Tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	updated, err := s.repos.Tasks.FindByID(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	return newTaskView(updated, false), nil
}

// UpdateStatus moves a task through the lifecycle. All transitions between
// TODO, IN_PROGRESS and DONE are legal, including back out of DONE.
func (s *TaskService) UpdateStatus(ctx context.Context, actor auth.Identity, taskID uuid.UUID, status model.TaskStatus) (*TaskView, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}

	task, err := s.loadScoped(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeMutation(actor, task); err != nil {
		return nil, err
	}

	s.applyStatusTransition(task, status)

	if err := s.repos.Tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	updated, err := s.repos.Tasks.FindByID(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	return newTaskView(updated, false), nil
}

func (s *TaskService) Delete(ctx context.Context, actor auth.Identity, taskID uuid.UUID) error {
	task, err := s.loadScoped(ctx, actor, taskID)
	if err != nil {
		return err
	}
	if err := s.authorizeMutation(actor, task); err != nil {
		return err
	}
	return s.repos.Tasks.Delete(ctx, task.ID)
}

func (s *TaskService) Get(ctx context.Context, actor auth.Identity, taskID uuid.UUID) (*TaskView, error) {
	task, err := s.loadScoped(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	if actor.Role == model.RoleGuest {
		granted, err := s.taskGranted(ctx, actor.UserID, task)
		if err != nil {
			return nil, err
		}
		if !granted {
			return nil, domain.ErrNotFound
		}
		return newTaskView(task, true), nil
	}
	return newTaskView(task, false), nil
}

// ListTeam returns the team's active tasks. Guests only see tasks in topics
// they hold a grant for, in the field-restricted shape.
func (s *TaskService) ListTeam(ctx context.Context, actor auth.Identity) ([]*TaskView, error) {
	if err := authz.Allow(actor.Role, authz.ActionTaskList); err != nil {
		return nil, err
	}
	if _, err := s.guard.Require(ctx, actor.OrganizationID); err != nil {
		return nil, err
	}

	if actor.Role == model.RoleGuest {
		topicIDs, err := s.repos.GuestAccess.TopicIDsForUser(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		tasks, err := s.repos.Tasks.FindActiveByOrganizationTopics(ctx, actor.OrganizationID, topicIDs)
		if err != nil {
			return nil, err
		}
		return newTaskViews(tasks, true), nil
	}

	tasks, err := s.repos.Tasks.FindActiveByOrganization(ctx, actor.OrganizationID)
	if err != nil {
		return nil, err
	}
	return newTaskViews(tasks, false), nil
}

// ListAll is the manager view of every task in the organization.
func (s *TaskService) ListAll(ctx context.Context, actor auth.Identity) ([]*TaskView, error) {
	if err := authz.Allow(actor.Role, authz.ActionTaskManageAny); err != nil {
		return nil, err
	}
	if _, err := s.guard.Require(ctx, actor.OrganizationID); err != nil {
		return nil, err
	}
	tasks, err := s.repos.Tasks.FindAllByOrganization(ctx, actor.OrganizationID)
	if err != nil {
		return nil, err
	}
	return newTaskViews(tasks, false), nil
}

func (s *TaskService) ListMyActive(ctx context.Context, actor auth.Identity) ([]*TaskView, error) {
	if err := authz.Allow(actor.Role, authz.ActionTaskList); err != nil {
		return nil, err
	}
	if _, err := s.guard.Require(ctx, actor.OrganizationID); err != nil {
		return nil, err
	}
	tasks, err := s.repos.Tasks.FindActiveByAssignee(ctx, actor.OrganizationID, actor.UserID)
	if err != nil {
		return nil, err
	}
	return newTaskViews(tasks, false), nil
}

func (s *TaskService) ListMyCompleted(ctx context.Context, actor auth.Identity) ([]*TaskView, error) {
	if err := authz.Allow(actor.Role, authz.ActionTaskList); err != nil {
		return nil, err
	}
	if _, err := s.guard.Require(ctx, actor.OrganizationID); err != nil {
		return nil, err
	}
	tasks, err := s.repos.Tasks.FindCompletedByAssignee(ctx, actor.OrganizationID, actor.UserID)
	if err != nil {
		return nil, err
	}
	return newTaskViews(tasks, false), nil
}

// applyStatusTransition derives CompletedAt from the transition: entering
// DONE stamps it, leaving DONE clears it, staying put leaves it untouched.
func (s *TaskService) applyStatusTransition(task *model.Task, newStatus model.TaskStatus) {
	if newStatus == model.StatusDone && task.Status != model.StatusDone {
		now := s.now()
		task.CompletedAt = &now
	}
	if newStatus != model.StatusDone && task.Status == model.StatusDone {
		task.CompletedAt = nil
	}
	task.Status = newStatus
}

// authorizeMutation implements the ownership rule: managers may touch any
// task, everyone else only the tasks currently assigned to them. Guests
// never get here with a permitted role action.
func (s *TaskService) authorizeMutation(actor auth.Identity, task *model.Task) error {
	if err := authz.Allow(actor.Role, authz.ActionTaskUpdateOwnStatus); err != nil {
		return err
	}
	if actor.IsManager() {
		return nil
	}
	if task.AssigneeID != nil && *task.AssigneeID == actor.UserID {
		return nil
	}
	return fmt.Errorf("%w: you can only update your own tasks", domain.ErrForbiddenOwnership)
}

func (s *TaskService) validateAssignee(ctx context.Context, orgID, assigneeID uuid.UUID) error {
	assignee, err := s.repos.Users.FindByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: user %s", domain.ErrInvalidAssignee, assigneeID)
		}
		return err
	}
	if assignee.OrganizationID != orgID || assignee.Role == model.RoleGuest {
		return fmt.Errorf("%w: user %s", domain.ErrInvalidAssignee, assigneeID)
	}
	return nil
}

// validateTopic applies at create/move time only; status updates do not
// re-check the topic.
func (s *TaskService) validateTopic(ctx context.Context, orgID, topicID uuid.UUID) error {
	topic, err := s.repos.Topics.FindByID(ctx, topicID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: topic %s", domain.ErrInvalidTopic, topicID)
		}
		return err
	}
	if topic.OrganizationID != orgID {
		return fmt.Errorf("%w: topic %s", domain.ErrInvalidTopic, topicID)
	}
	if !topic.IsActive {
		return fmt.Errorf("%w: topic %s", domain.ErrInactiveTopic, topicID)
	}
	return nil
}

func (s *TaskService) loadScoped(ctx context.Context, actor auth.Identity, taskID uuid.UUID) (*model.Task, error) {
	task, err := s.repos.Tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := matchOrganization(actor, task.OrganizationID); err != nil {
		return nil, err
	}
	if _, err := s.guard.Require(ctx, task.OrganizationID); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) taskGranted(ctx context.Context, userID uuid.UUID, task *model.Task) (bool, error) {
	if task.TopicID == nil {
		return false, nil
	}
	ids, err := s.repos.GuestAccess.TopicIDsForUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == *task.TopicID {
			return true, nil
		}
	}
	return false, nil
}
