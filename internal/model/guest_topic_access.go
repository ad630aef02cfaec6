// internal/model/guest_topic_access.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GuestTopicAccess grants a GUEST user visibility into one topic. Rows exist
// only for users whose role is GUEST; the join rows are the source of truth
// and any per-user topic list is derived from them on read.
type GuestTopicAccess struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_guest_topic" json:"user_id"`
	TopicID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_guest_topic;index" json:"topic_id"`
	CreatedAt time.Time `json:"created_at"`

	User  *User  `gorm:"foreignKey:UserID" json:"-"`
	Topic *Topic `gorm:"foreignKey:TopicID" json:"-"`
}

func (g *GuestTopicAccess) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}
