package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/repository"
	"github.com/taskhive/taskhive/internal/service"
)

// newTestRegistry creates an in-memory SQLite database for testing. The
// connection pool is pinned to one connection because every pooled
// ":memory:" connection would otherwise get its own empty database.
func newTestRegistry(t *testing.T) *repository.Registry {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get database instance: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := model.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return repository.NewRegistry(db)
}

func createTestOrg(t *testing.T, repos *repository.Registry, maxUsers int) *model.Organization {
	t.Helper()

	org := &model.Organization{
		Name:     "Test Co " + uuid.NewString()[:8],
		TeamName: "Test Team",
		Slug:     "test-co-" + uuid.NewString()[:8],
		IsActive: true,
		MaxUsers: maxUsers,
	}
	if err := repos.Organizations.Create(context.Background(), org); err != nil {
		t.Fatalf("Failed to create test organization: %v", err)
	}
	return org
}

func createTestUser(t *testing.T, repos *repository.Registry, orgID uuid.UUID, role model.Role, active bool) *model.User {
	t.Helper()

	suffix := uuid.NewString()[:8]
	user := &model.User{
		OrganizationID: orgID,
		Name:           "User " + suffix,
		Username:       "user-" + suffix,
		Email:          "user-" + suffix + "@example.com",
		PasswordHash:   "unused",
		Role:           role,
		Active:         active,
	}
	if err := repos.Users.Create(context.Background(), user); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func createTestTopic(t *testing.T, repos *repository.Registry, orgID uuid.UUID, active bool) *model.Topic {
	t.Helper()

	topic := &model.Topic{
		OrganizationID: orgID,
		Title:          "Topic " + uuid.NewString()[:8],
		IsActive:       active,
	}
	if err := repos.Topics.Create(context.Background(), topic); err != nil {
		t.Fatalf("Failed to create test topic: %v", err)
	}
	return topic
}

func identityFor(user *model.User) auth.Identity {
	return auth.Identity{
		UserID:         user.ID,
		OrganizationID: user.OrganizationID,
		Role:           user.Role,
		Email:          user.Email,
	}
}

func newGuard(repos *repository.Registry) *service.OrgGuard {
	return service.NewOrgGuard(repos.Organizations)
}

func newHasher() *auth.PasswordHasher {
	return auth.NewPasswordHasher()
}
