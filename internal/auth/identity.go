// internal/auth/identity.go
package auth

import (
	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/model"
)

// Identity is the resolved auth context for one request: who is calling,
// which organization they belong to, and what role they hold. It is a value
// type passed explicitly as the first argument to every use case; nothing in
// this module reads identity from global state.
type Identity struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	Role           model.Role
	Email          string
}

// IsAdmin reports whether the identity carries the cross-organization
// super-role.
func (id Identity) IsAdmin() bool {
	return id.Role == model.RoleAdmin
}

// IsManager reports whether the identity may manage resources across its
// whole organization.
func (id Identity) IsManager() bool {
	return id.Role == model.RoleAdmin || id.Role == model.RoleTeamManager
}
