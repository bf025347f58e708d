package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// GenerationLog records one call to a remote LLM provider, for auditing and
// debugging provider configurations.
type GenerationLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;index" json:"user_id"`
	ProviderID uuid.UUID      `gorm:"type:uuid;index" json:"provider_id"`
	Element    string         `gorm:"column:element" json:"element,omitempty"`
	Prompt     string         `gorm:"column:prompt" json:"prompt"`
	Content    string         `gorm:"column:content" json:"content"`
	Success    bool           `gorm:"column:success;not null" json:"success"`
	Error      string         `gorm:"column:error" json:"error,omitempty"`
	Usage      datatypes.JSON `gorm:"column:usage" json:"usage,omitempty"`
	DurationMs int64          `gorm:"column:duration_ms" json:"duration_ms"`
	CreatedAt  time.Time      `gorm:"not null;index" json:"created_at"`
}

func (GenerationLog) TableName() string {
	return "generation_log"
}
