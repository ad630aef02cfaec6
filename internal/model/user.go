// internal/model/user.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	// RoleAdmin is the cross-organization super-role used for platform
	// management. All other roles are scoped to a single organization.
	RoleAdmin       Role = "ADMIN"
	RoleTeamManager Role = "TEAM_MANAGER"
	RoleMember      Role = "MEMBER"
	RoleGuest       Role = "GUEST"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeamManager, RoleMember, RoleGuest:
		return true
	}
	return false
}

// User is a member of an organization. Users are soft-deleted via the
// Active flag so that task history survives removal.
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_org_username" json:"organization_id"`
	Name           string    `gorm:"type:text;not null" json:"name"`
	Username       string    `gorm:"type:text;not null;uniqueIndex:idx_org_username" json:"username"`
	Email          string    `gorm:"type:text;uniqueIndex;not null" json:"email"`
	PasswordHash   string    `gorm:"type:text;not null" json:"-"`
	Role           Role      `gorm:"type:text;not null;default:'MEMBER'" json:"role"`
	Active         bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Organization     *Organization      `gorm:"foreignKey:OrganizationID" json:"-"`
	AccessibleTopics []GuestTopicAccess `gorm:"foreignKey:UserID" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
