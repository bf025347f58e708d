package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/promptforge/promptforge-backend/internal/llm"
	"github.com/promptforge/promptforge-backend/internal/logger"
	"github.com/promptforge/promptforge-backend/internal/repos"
	"github.com/promptforge/promptforge-backend/internal/types"
)

// ProviderInput carries the client-editable fields of a provider config.
type ProviderInput struct {
	Name     string `json:"name"`
	APIKey   string `json:"api_key"`
	APIURL   string `json:"api_url"`
	APIModel string `json:"api_model"`
	APIKind  string `json:"api_kind"`
	Enabled  *bool  `json:"enabled"`
	Remark   string `json:"remark"`
}

type ProviderService interface {
	Create(ctx context.Context, userID uuid.UUID, input ProviderInput) (*types.APIProvider, error)
	Get(ctx context.Context, userID, providerID uuid.UUID) (*types.APIProvider, error)
	List(ctx context.Context, userID uuid.UUID, enabledOnly bool) ([]*types.APIProvider, error)
	Update(ctx context.Context, userID, providerID uuid.UUID, input ProviderInput) (*types.APIProvider, error)
	Delete(ctx context.Context, userID, providerID uuid.UUID) error
	PickDefault(ctx context.Context, userID uuid.UUID) (*types.APIProvider, error)
}

type providerService struct {
	db           *gorm.DB
	log          *logger.Logger
	providerRepo repos.ProviderRepo
}

func NewProviderService(db *gorm.DB, log *logger.Logger, providerRepo repos.ProviderRepo) ProviderService {
	return &providerService{
		db:           db,
		log:          log.With("service", "ProviderService"),
		providerRepo: providerRepo,
	}
}

func (ps *providerService) Create(ctx context.Context, userID uuid.UUID, input ProviderInput) (*types.APIProvider, error) {
	if err := validateProviderInput(input); err != nil {
		return nil, err
	}

	provider := &types.APIProvider{
		ID:       uuid.New(),
		UserID:   userID,
		Name:     strings.TrimSpace(input.Name),
		APIKey:   strings.TrimSpace(input.APIKey),
		APIURL:   strings.TrimSpace(input.APIURL),
		APIModel: strings.TrimSpace(input.APIModel),
		APIKind:  normalizeKind(input.APIKind),
		Enabled:  true,
		Remark:   input.Remark,
	}
	if input.Enabled != nil {
		provider.Enabled = *input.Enabled
	}

	created, err := ps.providerRepo.Create(ctx, nil, provider)
	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}
	ps.log.Info("Provider created", "user_id", userID, "provider", created.Name)
	return created, nil
}

func (ps *providerService) Get(ctx context.Context, userID, providerID uuid.UUID) (*types.APIProvider, error) {
	return ps.providerRepo.GetByID(ctx, nil, userID, providerID)
}

func (ps *providerService) List(ctx context.Context, userID uuid.UUID, enabledOnly bool) ([]*types.APIProvider, error) {
	return ps.providerRepo.List(ctx, nil, userID, enabledOnly)
}

func (ps *providerService) Update(ctx context.Context, userID, providerID uuid.UUID, input ProviderInput) (*types.APIProvider, error) {
	provider, err := ps.providerRepo.GetByID(ctx, nil, userID, providerID)
	if err != nil {
		return nil, fmt.Errorf("provider not found")
	}

	if input.Name != "" {
		provider.Name = strings.TrimSpace(input.Name)
	}
	if input.APIKey != "" {
		provider.APIKey = strings.TrimSpace(input.APIKey)
	}
	if input.APIURL != "" {
		provider.APIURL = strings.TrimSpace(input.APIURL)
	}
	if input.APIModel != "" {
		provider.APIModel = strings.TrimSpace(input.APIModel)
	}
	if input.APIKind != "" {
		provider.APIKind = normalizeKind(input.APIKind)
	}
	if input.Enabled != nil {
		provider.Enabled = *input.Enabled
	}
	if input.Remark != "" {
		provider.Remark = input.Remark
	}

	return ps.providerRepo.Update(ctx, nil, provider)
}

func (ps *providerService) Delete(ctx context.Context, userID, providerID uuid.UUID) error {
	return ps.providerRepo.Delete(ctx, nil, userID, providerID)
}

// PickDefault selects the provider used when a request names none: the first
// enabled one in list order.
func (ps *providerService) PickDefault(ctx context.Context, userID uuid.UUID) (*types.APIProvider, error) {
	providers, err := ps.providerRepo.List(ctx, nil, userID, true)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	return llm.PickDefault(providers)
}

func validateProviderInput(input ProviderInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("provider name is required")
	}
	if strings.TrimSpace(input.APIURL) == "" {
		return fmt.Errorf("provider api_url is required")
	}
	if strings.TrimSpace(input.APIModel) == "" {
		return fmt.Errorf("provider api_model is required")
	}
	return nil
}

func normalizeKind(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "ollama":
		return "Ollama"
	case "anthropic":
		return "Anthropic"
	case "":
		return "OpenAI"
	default:
		return strings.TrimSpace(kind)
	}
}
