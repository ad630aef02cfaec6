// internal/model/organization.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultMaxUsers bounds the number of active users an organization may
// hold unless overridden at registration time.
const DefaultMaxUsers = 15

// Organization is the unit of tenant isolation. Every user, topic and task
// hangs off exactly one organization, and organizations are never hard-deleted.
type Organization struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name      string    `gorm:"type:text;not null" json:"name"`
	TeamName  string    `gorm:"type:text;not null" json:"team_name"`
	Slug      string    `gorm:"type:text;uniqueIndex;not null" json:"slug"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	MaxUsers  int       `gorm:"not null;default:15" json:"max_users"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Users  []User  `gorm:"foreignKey:OrganizationID" json:"-"`
	Topics []Topic `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
