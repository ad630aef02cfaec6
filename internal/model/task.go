// internal/model/task.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusDone       TaskStatus = "DONE"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return true
	}
	return false
}

// Task is a unit of work. Invariant: CompletedAt is non-nil exactly when
// Status is DONE; the service layer derives it on every status transition.
type Task struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"organization_id"`
	TopicID        *uuid.UUID `gorm:"type:uuid;index" json:"topic_id"`
	Title          string     `gorm:"type:text;not null" json:"title"`
	Note           string     `gorm:"type:text" json:"note"`
	AssigneeID     *uuid.UUID `gorm:"type:uuid;index" json:"assignee_id"`
	Status         TaskStatus `gorm:"type:text;not null;default:'TODO'" json:"status"`
	Priority       Priority   `gorm:"type:text;not null;default:'NORMAL'" json:"priority"`
	DueDate        *time.Time `json:"due_date"`
	CompletedAt    *time.Time `json:"completed_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	Topic    *Topic `gorm:"foreignKey:TopicID" json:"topic,omitempty"`
	Assignee *User  `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
