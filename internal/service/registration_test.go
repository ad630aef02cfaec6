package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/config"
	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/mocks"
	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/repository"
	"github.com/taskhive/taskhive/internal/service"
)

const testJWTSecret = "test-secret"

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.DefaultMaxUsers = model.DefaultMaxUsers
	cfg.BaseURL = "http://localhost:8080"
	return cfg
}

func newRegistrationService(repos *repository.Registry, mailer *mocks.MockMailer) (*service.RegistrationService, *auth.TokenManager) {
	tokenManager := auth.NewTokenManager(testJWTSecret, time.Hour)
	svc := service.NewRegistrationService(repos, newHasher(), tokenManager, mailer, testConfig())
	return svc, tokenManager
}

func TestRegisterTeam(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	input := service.RegisterTeamInput{
		CompanyName: "Acme Inc.",
		TeamName:    "Platform Team",
		ManagerName: "Morgan Lane",
		Username:    "morgan",
		Email:       "morgan@example.com",
		Password:    "password123",
	}

	t.Run("creates organization and team manager", func(t *testing.T) {
		repos := newTestRegistry(t)
		mailer := mocks.NewMockMailer(ctrl)
		mailer.EXPECT().SendEmail(gomock.Any()).Return(nil)
		svc, tokenManager := newRegistrationService(repos, mailer)

		output, err := svc.RegisterTeam(context.Background(), input)
		require.NoError(t, err)

		assert.Equal(t, "acme-inc-platform-team", output.Organization.Slug)
		assert.True(t, output.Organization.IsActive)
		assert.Equal(t, model.DefaultMaxUsers, output.Organization.MaxUsers)

		assert.Equal(t, model.RoleTeamManager, output.User.Role)
		assert.True(t, output.User.Active)
		assert.Equal(t, output.Organization.ID, output.User.OrganizationID)

		id, err := tokenManager.Resolve(output.Token)
		require.NoError(t, err)
		assert.Equal(t, output.User.ID, id.UserID)
		assert.Equal(t, output.Organization.ID, id.OrganizationID)
		assert.Equal(t, model.RoleTeamManager, id.Role)
	})

	t.Run("slug collisions get a numeric suffix", func(t *testing.T) {
		repos := newTestRegistry(t)
		mailer := mocks.NewMockMailer(ctrl)
		mailer.EXPECT().SendEmail(gomock.Any()).Return(nil).Times(2)
		svc, _ := newRegistrationService(repos, mailer)

		first, err := svc.RegisterTeam(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, "acme-inc-platform-team", first.Organization.Slug)

		clashing := input
		clashing.Username = "morgan2"
		clashing.Email = "morgan2@example.com"
		second, err := svc.RegisterTeam(context.Background(), clashing)
		require.NoError(t, err)
		assert.Equal(t, "acme-inc-platform-team-1", second.Organization.Slug)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		repos := newTestRegistry(t)
		mailer := mocks.NewMockMailer(ctrl)
		mailer.EXPECT().SendEmail(gomock.Any()).Return(nil)
		svc, _ := newRegistrationService(repos, mailer)

		_, err := svc.RegisterTeam(context.Background(), input)
		require.NoError(t, err)

		clashing := input
		clashing.Username = "other"
		_, err = svc.RegisterTeam(context.Background(), clashing)
		assert.ErrorIs(t, err, domain.ErrDuplicateEntry)
	})

	t.Run("registration survives a failing welcome email", func(t *testing.T) {
		repos := newTestRegistry(t)
		mailer := mocks.NewMockMailer(ctrl)
		mailer.EXPECT().SendEmail(gomock.Any()).Return(errors.New("sendgrid down"))
		svc, _ := newRegistrationService(repos, mailer)

		_, err := svc.RegisterTeam(context.Background(), input)
		assert.NoError(t, err)
	})

	t.Run("short password is rejected", func(t *testing.T) {
		repos := newTestRegistry(t)
		svc, _ := newRegistrationService(repos, mocks.NewMockMailer(ctrl))

		weak := input
		weak.Password = "short"
		_, err := svc.RegisterTeam(context.Background(), weak)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("names with no usable characters fail slug generation", func(t *testing.T) {
		repos := newTestRegistry(t)
		svc, _ := newRegistrationService(repos, mocks.NewMockMailer(ctrl))

		bad := input
		bad.CompanyName = "!!!"
		bad.TeamName = "???"
		_, err := svc.RegisterTeam(context.Background(), bad)
		assert.ErrorIs(t, err, domain.ErrSlugGenerationFailed)
	})
}
