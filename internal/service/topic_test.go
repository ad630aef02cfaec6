package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/service"
)

func TestTopicManagement(t *testing.T) {
	repos := newTestRegistry(t)
	org := createTestOrg(t, repos, model.DefaultMaxUsers)
	manager := createTestUser(t, repos, org.ID, model.RoleTeamManager, true)
	member := createTestUser(t, repos, org.ID, model.RoleMember, true)
	svc := service.NewTopicService(repos, newGuard(repos))

	t.Run("manager creates topics", func(t *testing.T) {
		topic, err := svc.Create(context.Background(), identityFor(manager), service.CreateTopicInput{
			Title:       "Release planning",
			Description: "Everything for the next release",
		})
		require.NoError(t, err)
		assert.True(t, topic.IsActive)
		assert.Equal(t, org.ID, topic.OrganizationID)
	})

	t.Run("member cannot create topics", func(t *testing.T) {
		_, err := svc.Create(context.Background(), identityFor(member), service.CreateTopicInput{
			Title: "Shadow topic",
		})
		assert.ErrorIs(t, err, domain.ErrForbiddenRole)
	})

	t.Run("member cannot list inactive topics", func(t *testing.T) {
		_, err := svc.List(context.Background(), identityFor(member))
		assert.ErrorIs(t, err, domain.ErrForbiddenRole)
	})
}

func TestTopicDeleteCascade(t *testing.T) {
	repos := newTestRegistry(t)
	org := createTestOrg(t, repos, model.DefaultMaxUsers)
	manager := createTestUser(t, repos, org.ID, model.RoleTeamManager, true)
	guest := createTestUser(t, repos, org.ID, model.RoleGuest, true)
	topic := createTestTopic(t, repos, org.ID, true)
	require.NoError(t, repos.GuestAccess.CreateBatch(context.Background(), guest.ID, []uuid.UUID{topic.ID}))

	taskSvc := service.NewTaskService(repos, newGuard(repos))
	task, err := taskSvc.Create(context.Background(), identityFor(manager), service.CreateTaskInput{
		Title:   "Filed work",
		TopicID: &topic.ID,
	})
	require.NoError(t, err)

	svc := service.NewTopicService(repos, newGuard(repos))
	require.NoError(t, svc.Delete(context.Background(), identityFor(manager), topic.ID))

	t.Run("topic row is gone", func(t *testing.T) {
		_, err := repos.Topics.FindByID(context.Background(), topic.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("tasks survive detached from the topic", func(t *testing.T) {
		survivor, err := repos.Tasks.FindByID(context.Background(), task.ID)
		require.NoError(t, err)
		assert.Nil(t, survivor.TopicID)
	})

	t.Run("guest grants referencing the topic are removed", func(t *testing.T) {
		ids, err := repos.GuestAccess.TopicIDsForUser(context.Background(), guest.ID)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestTopicGuestVisibility(t *testing.T) {
	repos := newTestRegistry(t)
	org := createTestOrg(t, repos, model.DefaultMaxUsers)
	guest := createTestUser(t, repos, org.ID, model.RoleGuest, true)
	member := createTestUser(t, repos, org.ID, model.RoleMember, true)
	granted := createTestTopic(t, repos, org.ID, true)
	hidden := createTestTopic(t, repos, org.ID, true)
	dormant := createTestTopic(t, repos, org.ID, false)
	require.NoError(t, repos.GuestAccess.CreateBatch(context.Background(), guest.ID, []uuid.UUID{granted.ID, dormant.ID}))

	svc := service.NewTopicService(repos, newGuard(repos))

	t.Run("guest listing shows only granted active topics", func(t *testing.T) {
		topics, err := svc.ListActive(context.Background(), identityFor(guest))
		require.NoError(t, err)
		require.Len(t, topics, 1)
		assert.Equal(t, granted.ID, topics[0].ID)
	})

	t.Run("member listing shows every active topic", func(t *testing.T) {
		topics, err := svc.ListActive(context.Background(), identityFor(member))
		require.NoError(t, err)
		assert.Len(t, topics, 2)
	})

	t.Run("guest read of an ungranted topic is not found", func(t *testing.T) {
		_, err := svc.Get(context.Background(), identityFor(guest), hidden.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("guest read of a granted topic succeeds", func(t *testing.T) {
		topic, err := svc.Get(context.Background(), identityFor(guest), granted.ID)
		require.NoError(t, err)
		assert.Equal(t, granted.ID, topic.ID)
	})
}
