package types

import (
	"time"

	"github.com/google/uuid"
)

// Template is a saved six-element prompt template.
type Template struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	Topic          string    `gorm:"not null;index;column:topic" json:"topic"`
	TaskObjective  string    `gorm:"column:task_objective" json:"task_objective"`
	AIRole         string    `gorm:"column:ai_role" json:"ai_role"`
	MyRole         string    `gorm:"column:my_role" json:"my_role"`
	KeyInformation string    `gorm:"column:key_information" json:"key_information"`
	BehaviorRule   string    `gorm:"column:behavior_rule" json:"behavior_rule"`
	DeliveryFormat string    `gorm:"column:delivery_format" json:"delivery_format"`
	CreatedAt      time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

func (Template) TableName() string {
	return "template"
}
