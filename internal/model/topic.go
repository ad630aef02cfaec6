// internal/model/topic.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Topic groups tasks within an organization. Deleting a topic detaches its
// tasks (TopicID becomes null) and removes any guest grants referencing it;
// it never cascade-deletes tasks.
type Topic struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`
	Title          string    `gorm:"type:text;not null" json:"title"`
	Description    string    `gorm:"type:text" json:"description"`
	IsActive       bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (t *Topic) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
