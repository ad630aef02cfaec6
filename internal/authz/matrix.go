// internal/authz/matrix.go

// Package authz holds the static permission matrix. Role checks in the rest
// of the codebase go through this table so the anti-escalation exceptions
// are expressed exactly once.
package authz

import (
	"fmt"

	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/model"
)

type Action string

const (
	ActionOrganizationActivate   Action = "organization.activate"
	ActionOrganizationDeactivate Action = "organization.deactivate"
	ActionOrganizationUpdate     Action = "organization.update"
	ActionUserManage             Action = "user.manage"
	ActionTopicManage            Action = "topic.manage"
	ActionTaskCreate             Action = "task.create"
	ActionTaskManageAny          Action = "task.manage_any"
	ActionTaskUpdateOwnStatus    Action = "task.update_own_status"
	ActionTaskList               Action = "task.list"
)

// matrix maps role -> permitted actions. Privilege ordering is
// ADMIN > TEAM_MANAGER > MEMBER > GUEST, but it is not strictly monotonic:
// a TEAM_MANAGER may manage users yet must not create or promote anyone to
// ADMIN or TEAM_MANAGER (see AllowRoleAssignment).
var matrix = map[model.Role]map[Action]bool{
	model.RoleAdmin: {
		ActionOrganizationActivate:   true,
		ActionOrganizationDeactivate: true,
		ActionOrganizationUpdate:     true,
		ActionUserManage:             true,
		ActionTopicManage:            true,
		ActionTaskCreate:             true,
		ActionTaskManageAny:          true,
		ActionTaskUpdateOwnStatus:    true,
		ActionTaskList:               true,
	},
	model.RoleTeamManager: {
		// Activation of the manager's own organization only; the cross-org
		// check happens at the organization guard.
		ActionOrganizationActivate: true,
		ActionOrganizationUpdate:   true,
		ActionUserManage:           true,
		ActionTopicManage:          true,
		ActionTaskCreate:           true,
		ActionTaskManageAny:        true,
		ActionTaskUpdateOwnStatus:  true,
		ActionTaskList:             true,
	},
	model.RoleMember: {
		ActionTaskCreate:          true,
		ActionTaskUpdateOwnStatus: true,
		ActionTaskList:            true,
	},
	model.RoleGuest: {
		// Guests see a filtered task list and nothing else.
		ActionTaskList: true,
	},
}

// Allow checks the matrix and returns ErrForbiddenRole carrying the
// attempted action when the role is not permitted. It is a pure, synchronous
// check with no side effects.
func Allow(role model.Role, action Action) error {
	if matrix[role][action] {
		return nil
	}
	return fmt.Errorf("%w: role %s attempted %s", domain.ErrForbiddenRole, role, action)
}

// AllowRoleAssignment guards user creation and promotion. ADMIN may assign
// any role; TEAM_MANAGER may assign MEMBER and GUEST but never ADMIN or
// TEAM_MANAGER; nobody else assigns roles at all.
func AllowRoleAssignment(actor, target model.Role) error {
	switch actor {
	case model.RoleAdmin:
		return nil
	case model.RoleTeamManager:
		if target == model.RoleAdmin || target == model.RoleTeamManager {
			return fmt.Errorf("%w: role %s cannot assign role %s", domain.ErrForbiddenRole, actor, target)
		}
		return nil
	default:
		return fmt.Errorf("%w: role %s cannot assign roles", domain.ErrForbiddenRole, actor)
	}
}
