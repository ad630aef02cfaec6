package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/repository"
	"github.com/taskhive/taskhive/internal/service"
)

func newTaskService(repos *repository.Registry) *service.TaskService {
	return service.NewTaskService(repos, newGuard(repos))
}

func TestTaskCreateDefaults(t *testing.T) {
	repos := newTestRegistry(t)
	org := createTestOrg(t, repos, model.DefaultMaxUsers)
	member := createTestUser(t, repos, org.ID, model.RoleMember, true)
	svc := newTaskService(repos)

	t.Run("defaults to TODO and NORMAL", func(t *testing.T) {
		task, err := svc.Create(context.Background(), identityFor(member), service.CreateTaskInput{
			Title: "Write the report",
		})
		require.NoError(t, err)
		assert.Equal(t, model.StatusTodo, task.Status)
		assert.Equal(t, model.PriorityNormal, task.Priority)
		assert.Nil(t, task.CompletedAt)
	})

	t.Run("members always become the assignee of their own tasks", func(t *testing.T) {
		task, err := svc.Create(context.Background(), identityFor(member), service.CreateTaskInput{
			Title: "Self-assigned work",
		})
		require.NoError(t, err)
		require.NotNil(t, task.Assignee)
		assert.Equal(t, member.ID, task.Assignee.ID)
	})

	t.Run("member cannot assign a task to someone else", func(t *testing.T) {
		other := createTestUser(t, repos, org.ID, model.RoleMember, true)
		_, err := svc.Create(context.Background(), identityFor(member), service.CreateTaskInput{
			Title:      "Delegated work",
			AssigneeID: &other.ID,
		})
		assert.ErrorIs(t, err, domain.ErrForbiddenRole)
	})

	t.Run("manager may assign anyone in the organization", func(t *testing.T) {
		manager := createTestUser(t, repos, org.ID, model.RoleTeamManager, true)
		task, err := svc.Create(context.Background(), identityFor(manager), service.CreateTaskInput{
			Title:      "Assigned work",
			AssigneeID: &member.ID,
		})
		require.NoError(t, err)
		require.NotNil(t, task.Assignee)
		assert.Equal(t, member.ID, task.Assignee.ID)
	})

	t.Run("guest cannot create tasks", func(t *testing.T) {
		guest := createTestUser(t, repos, org.ID, model.RoleGuest, true)
		_, err := svc.Create(context.Background(), identityFor(guest), service.CreateTaskInput{
			Title: "Guest work",
		})
		assert.ErrorIs(t, err, domain.ErrForbiddenRole)
	})
}

func TestTaskAssigneeValidation(t *testing.T) {
	repos := newTestRegistry(t)
	org := createTestOrg(t, repos, model.DefaultMaxUsers)
	manager := createTestUser(t, repos, org.ID, model.RoleTeamManager, true)
	svc := newTaskService(repos)

	t.Run("guest assignee is rejected", func(t *testing.T) {
		guest := createTestUser(t, repos, org.ID, model.RoleGuest, true)
		_, err := svc.Create(context.Background(), identityFor(manager), service.CreateTaskInput{
			Title:      "Work",
			AssigneeID: &guest.ID,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidAssignee)
	})

	t.Run("assignee from another organization is rejected", func(t *testing.T) {
		other := createTestOrg(t, repos, model.DefaultMaxUsers)
		foreign := createTestUser(t, repos, other.ID, model.RoleMember, true)
		_, err := svc.Create(context.Background(), identityFor(manager), service.CreateTaskInput{
			Title:      "Work",
			AssigneeID: &foreign.ID,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidAssignee)
	})

	t.Run("unknown assignee is rejected", func(t *testing.T) {
		ghost := uuid.New()
		_, err := svc.Create(context.Background(), identityFor(manager), service.CreateTaskInput{
			Title:      "Work",
			AssigneeID: &ghost,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidAssignee)
	})
}

func TestTaskTopicValidation(t *testing.T) {
	repos := newTestRegistry(t)
	org := createTestOrg(t, repos, model.DefaultMaxUsers)
	manager := createTestUser(t, repos, org.ID, model.RoleTeamManager, true)
	svc := newTaskService(repos)

	t.Run("inactive topic is rejected", func(t *testing.T) {
		dormant := createTestTopic(t, repos, org.ID, false)
		_, err := svc.Create(context.Background(), identityFor(manager), service.CreateTaskInput{
			Title:   "Work",
			TopicID: &dormant.ID,
		})
		assert.ErrorIs(t, err, domain.ErrInactiveTopic)
	})

	t.Run("topic from another organization reads as not found", func(t *testing.T) {
		other := createTestOrg(t, repos, model.DefaultMaxUsers)
		foreign := createTestTopic(t, repos, other.ID, true)
		_, err := svc.Create(context.Background(), identityFor(manager), service.CreateTaskInput{
			Title:   "Work",
			TopicID: &foreign.ID,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidTopic)
		assert.Equal(t, "NOT_FOUND", domain.Code(err))
	})
}

func TestTaskStatusLifecycle(t *testing.T) {
	repos := newTestRegistry(t)
	org := createTestOrg(t, repos, model.DefaultMaxUsers)
	member := createTestUser(t, repos, org.ID, model.RoleMember, true)
	svc := newTaskService(repos)

	task, err := svc.Create(context.Background(), identityFor(member), service.CreateTaskInput{
		Title: "Lifecycle",
	})
	require.NoError(t, err)

	t.Run("entering DONE stamps the completion time", func(t *testing.T) {
		updated, err := svc.UpdateStatus(context.Background(), identityFor(member), task.ID, model.StatusDone)
		require.NoError(t, err)
		require.NotNil(t, updated.CompletedAt)
		assert.WithinDuration(t, time.Now(), *updated.CompletedAt, 5*time.Second)
	})

	t.Run("leaving DONE clears the completion time", func(t *testing.T) {
		updated, err := svc.UpdateStatus(context.Background(), identityFor(member), task.ID, model.StatusInProgress)
		require.NoError(t, err)
		assert.Nil(t, updated.CompletedAt)
	})

	t.Run("any transition between the three states is legal", func(t *testing.T) {
		for _, status := range []model.TaskStatus{
			model.StatusDone, model.StatusTodo, model.StatusDone, model.StatusInProgress, model.StatusTodo,
		} {
			updated, err := svc.UpdateStatus(context.Background(), identityFor(member), task.ID, status)
			require.NoError(t, err)
			assert.Equal(t, status, updated.Status)
			if status == model.StatusDone {
				assert.NotNil(t, updated.CompletedAt)
			} else {
				assert.Nil(t, updated.CompletedAt)
			}
		}
	})

	t.Run("creating a task as DONE stamps completion immediately", func(t *testing.T) {
		done, err := svc.Create(context.Background(), identityFor(member), service.CreateTaskInput{
			Title:  "Already finished",
			Status: model.StatusDone,
		})
		require.NoError(t, err)
		require.NotNil(t, done.CompletedAt)
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		_, err := svc.UpdateStatus(context.Background(), identityFor(member), task.ID, model.TaskStatus("ARCHIVED"))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestTaskOwnership(t *testing.T) {
	repos := newTestRegistry(t)
	org := createTestOrg(t, repos, model.DefaultMaxUsers)
	manager := createTestUser(t, repos, org.ID, model.RoleTeamManager, true)
	assignee := createTestUser(t, repos, org.ID, model.RoleMember, true)
	bystander := createTestUser(t, repos, org.ID, model.RoleMember, true)
	svc := newTaskService(repos)

	task, err := svc.Create(context.Background(), identityFor(manager), service.CreateTaskInput{
		Title:      "Owned work",
		AssigneeID: &assignee.ID,
	})
	require.NoError(t, err)

	t.Run("a member cannot touch another member's task", func(t *testing.T) {
		_, err := svc.UpdateStatus(context.Background(), identityFor(bystander), task.ID, model.StatusDone)
		assert.ErrorIs(t, err, domain.ErrForbiddenOwnership)
	})

	t.Run("the assignee may move their own task", func(t *testing.T) {
		updated, err := svc.UpdateStatus(context.Background(), identityFor(assignee), task.ID, model.StatusInProgress)
		require.NoError(t, err)
		assert.Equal(t, model.StatusInProgress, updated.Status)
	})

	t.Run("a manager may move anyone's task", func(t *testing.T) {
		updated, err := svc.UpdateStatus(context.Background(), identityFor(manager), task.ID, model.StatusDone)
		require.NoError(t, err)
		assert.Equal(t, model.StatusDone, updated.Status)
	})

	t.Run("reassignment needs manager privileges", func(t *testing.T) {
		_, err := svc.Update(context.Background(), identityFor(assignee), task.ID, service.UpdateTaskInput{
			AssigneeID: &bystander.ID,
		})
		assert.ErrorIs(t, err, domain.ErrForbiddenRole)
	})
}

func TestTaskCrossOrganizationMasking(t *testing.T) {
	repos := newTestRegistry(t)
	orgA := createTestOrg(t, repos, model.DefaultMaxUsers)
	orgB := createTestOrg(t, repos, model.DefaultMaxUsers)
	managerA := createTestUser(t, repos, orgA.ID, model.RoleTeamManager, true)
	memberB := createTestUser(t, repos, orgB.ID, model.RoleMember, true)
	svc := newTaskService(repos)

	task, err := svc.Create(context.Background(), identityFor(memberB), service.CreateTaskInput{
		Title: "Foreign work",
	})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), identityFor(managerA), task.ID)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", domain.Code(err))

	_, err = svc.UpdateStatus(context.Background(), identityFor(managerA), task.ID, model.StatusDone)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", domain.Code(err))
}

func TestTaskGuestViews(t *testing.T) {
	repos := newTestRegistry(t)
	org := createTestOrg(t, repos, model.DefaultMaxUsers)
	manager := createTestUser(t, repos, org.ID, model.RoleTeamManager, true)
	guest := createTestUser(t, repos, org.ID, model.RoleGuest, true)
	granted := createTestTopic(t, repos, org.ID, true)
	hidden := createTestTopic(t, repos, org.ID, true)
	require.NoError(t, repos.GuestAccess.CreateBatch(context.Background(), guest.ID, []uuid.UUID{granted.ID}))

	svc := newTaskService(repos)

	visible, err := svc.Create(context.Background(), identityFor(manager), service.CreateTaskInput{
		Title:      "Visible work",
		Note:       "internal details",
		TopicID:    &granted.ID,
		AssigneeID: &manager.ID,
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), identityFor(manager), service.CreateTaskInput{
		Title:   "Hidden work",
		TopicID: &hidden.ID,
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), identityFor(manager), service.CreateTaskInput{
		Title: "Unfiled work",
	})
	require.NoError(t, err)

	t.Run("list contains only granted topics in stripped shape", func(t *testing.T) {
		views, err := svc.ListTeam(context.Background(), identityFor(guest))
		require.NoError(t, err)
		require.Len(t, views, 1)

		view := views[0]
		assert.Equal(t, visible.ID, view.ID)
		assert.Equal(t, "Visible work", view.Title)
		assert.Empty(t, view.Note)
		assert.Nil(t, view.TopicID)
		assert.Nil(t, view.Topic)
		assert.Nil(t, view.CompletedAt)
		assert.Nil(t, view.CreatedAt)
		require.NotNil(t, view.Assignee)
		assert.Equal(t, manager.ID, view.Assignee.ID)
		assert.Equal(t, manager.Name, view.Assignee.Name)
		assert.Empty(t, view.Assignee.Username)
	})

	t.Run("guest without grants sees an empty list", func(t *testing.T) {
		bare := createTestUser(t, repos, org.ID, model.RoleGuest, true)
		views, err := svc.ListTeam(context.Background(), identityFor(bare))
		require.NoError(t, err)
		assert.Empty(t, views)
	})

	t.Run("single-task read outside the grants is not found", func(t *testing.T) {
		tasks, err := repos.Tasks.FindActiveByOrganization(context.Background(), org.ID)
		require.NoError(t, err)

		for _, task := range tasks {
			if task.ID == visible.ID {
				continue
			}
			_, err := svc.Get(context.Background(), identityFor(guest), task.ID)
			assert.ErrorIs(t, err, domain.ErrNotFound)
		}
	})
}

func TestTaskPersonalLists(t *testing.T) {
	repos := newTestRegistry(t)
	org := createTestOrg(t, repos, model.DefaultMaxUsers)
	member := createTestUser(t, repos, org.ID, model.RoleMember, true)
	svc := newTaskService(repos)

	first, err := svc.Create(context.Background(), identityFor(member), service.CreateTaskInput{Title: "First"})
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), identityFor(member), service.CreateTaskInput{Title: "Second"})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), identityFor(member), second.ID, model.StatusDone)
	require.NoError(t, err)

	t.Run("active list excludes completed work", func(t *testing.T) {
		views, err := svc.ListMyActive(context.Background(), identityFor(member))
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, first.ID, views[0].ID)
	})

	t.Run("completed list contains only finished work", func(t *testing.T) {
		views, err := svc.ListMyCompleted(context.Background(), identityFor(member))
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, second.ID, views[0].ID)
	})
}
