package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// APIProvider is a configured remote LLM endpoint. APIKind selects the wire
// protocol ("Ollama" uses the native NDJSON API unless the URL is a /v1
// OpenAI-compatible endpoint; everything else speaks OpenAI chat completions).
type APIProvider struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;index;not null" json:"user_id"`
	Name      string         `gorm:"not null;column:name" json:"name"`
	APIKey    string         `gorm:"column:api_key" json:"-"`
	APIURL    string         `gorm:"not null;column:api_url" json:"api_url"`
	APIModel  string         `gorm:"not null;column:api_model" json:"api_model"`
	APIKind   string         `gorm:"column:api_kind;default:'OpenAI'" json:"api_kind"`
	Enabled   bool           `gorm:"column:enabled;default:true;index" json:"enabled"`
	Remark    string         `gorm:"column:remark" json:"remark,omitempty"`
	Extra     datatypes.JSON `gorm:"column:extra" json:"extra,omitempty"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (APIProvider) TableName() string {
	return "api_provider"
}

// APIProviderResponse is the provider as returned to clients, with the key
// masked.
type APIProviderResponse struct {
	ID         uuid.UUID      `json:"id"`
	Name       string         `json:"name"`
	APIKeyMask string         `json:"api_key_mask"`
	APIURL     string         `json:"api_url"`
	APIModel   string         `json:"api_model"`
	APIKind    string         `json:"api_kind"`
	Enabled    bool           `json:"enabled"`
	Remark     string         `json:"remark,omitempty"`
	Extra      datatypes.JSON `json:"extra,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func (p *APIProvider) ToResponse() *APIProviderResponse {
	return &APIProviderResponse{
		ID:         p.ID,
		Name:       p.Name,
		APIKeyMask: MaskAPIKey(p.APIKey),
		APIURL:     p.APIURL,
		APIModel:   p.APIModel,
		APIKind:    p.APIKind,
		Enabled:    p.Enabled,
		Remark:     p.Remark,
		Extra:      p.Extra,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

// MaskAPIKey keeps the first and last four characters of a key and hides the
// rest. Short keys are fully hidden.
func MaskAPIKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
