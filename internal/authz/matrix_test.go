package authz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskhive/taskhive/internal/authz"
	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/model"
)

func TestAllow(t *testing.T) {
	tests := []struct {
		name    string
		role    model.Role
		action  authz.Action
		allowed bool
	}{
		{"admin deactivates organizations", model.RoleAdmin, authz.ActionOrganizationDeactivate, true},
		{"team manager cannot deactivate organizations", model.RoleTeamManager, authz.ActionOrganizationDeactivate, false},
		{"team manager activates organizations", model.RoleTeamManager, authz.ActionOrganizationActivate, true},
		{"team manager manages users", model.RoleTeamManager, authz.ActionUserManage, true},
		{"team manager manages topics", model.RoleTeamManager, authz.ActionTopicManage, true},
		{"team manager manages any task", model.RoleTeamManager, authz.ActionTaskManageAny, true},
		{"member creates tasks", model.RoleMember, authz.ActionTaskCreate, true},
		{"member updates own task status", model.RoleMember, authz.ActionTaskUpdateOwnStatus, true},
		{"member cannot manage users", model.RoleMember, authz.ActionUserManage, false},
		{"member cannot manage topics", model.RoleMember, authz.ActionTopicManage, false},
		{"member cannot manage any task", model.RoleMember, authz.ActionTaskManageAny, false},
		{"guest lists tasks", model.RoleGuest, authz.ActionTaskList, true},
		{"guest cannot create tasks", model.RoleGuest, authz.ActionTaskCreate, false},
		{"guest cannot update task status", model.RoleGuest, authz.ActionTaskUpdateOwnStatus, false},
		{"unknown role gets nothing", model.Role("INTERN"), authz.ActionTaskList, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := authz.Allow(tt.role, tt.action)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrForbiddenRole)
			}
		})
	}
}

func TestAllowRoleAssignment(t *testing.T) {
	tests := []struct {
		name    string
		actor   model.Role
		target  model.Role
		allowed bool
	}{
		{"admin assigns admin", model.RoleAdmin, model.RoleAdmin, true},
		{"admin assigns team manager", model.RoleAdmin, model.RoleTeamManager, true},
		{"admin assigns member", model.RoleAdmin, model.RoleMember, true},
		{"team manager assigns member", model.RoleTeamManager, model.RoleMember, true},
		{"team manager assigns guest", model.RoleTeamManager, model.RoleGuest, true},
		{"team manager cannot assign admin", model.RoleTeamManager, model.RoleAdmin, false},
		{"team manager cannot assign team manager", model.RoleTeamManager, model.RoleTeamManager, false},
		{"member assigns nobody", model.RoleMember, model.RoleGuest, false},
		{"guest assigns nobody", model.RoleGuest, model.RoleGuest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := authz.AllowRoleAssignment(tt.actor, tt.target)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrForbiddenRole)
			}
		})
	}
}
