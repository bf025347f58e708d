package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/promptforge/promptforge-backend/internal/logger"
	"github.com/promptforge/promptforge-backend/internal/types"
)

type ProviderRepo interface {
	Create(ctx context.Context, tx *gorm.DB, provider *types.APIProvider) (*types.APIProvider, error)
	GetByID(ctx context.Context, tx *gorm.DB, userID, providerID uuid.UUID) (*types.APIProvider, error)
	List(ctx context.Context, tx *gorm.DB, userID uuid.UUID, enabledOnly bool) ([]*types.APIProvider, error)
	Update(ctx context.Context, tx *gorm.DB, provider *types.APIProvider) (*types.APIProvider, error)
	Delete(ctx context.Context, tx *gorm.DB, userID, providerID uuid.UUID) error
}

type providerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProviderRepo(db *gorm.DB, baseLog *logger.Logger) ProviderRepo {
	return &providerRepo{db: db, log: baseLog.With("repo", "ProviderRepo")}
}

func (pr *providerRepo) Create(ctx context.Context, tx *gorm.DB, provider *types.APIProvider) (*types.APIProvider, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if err := transaction.WithContext(ctx).Create(provider).Error; err != nil {
		return nil, err
	}
	return provider, nil
}

func (pr *providerRepo) GetByID(ctx context.Context, tx *gorm.DB, userID, providerID uuid.UUID) (*types.APIProvider, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var result types.APIProvider
	if err := transaction.WithContext(ctx).
		Where("id = ? AND user_id = ?", providerID, userID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

// List returns the user's providers in creation order. The order matters:
// default provider selection takes the first enabled entry.
func (pr *providerRepo) List(ctx context.Context, tx *gorm.DB, userID uuid.UUID, enabledOnly bool) ([]*types.APIProvider, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	query := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC")
	if enabledOnly {
		query = query.Where("enabled = ?", true)
	}

	var results []*types.APIProvider
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *providerRepo) Update(ctx context.Context, tx *gorm.DB, provider *types.APIProvider) (*types.APIProvider, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if err := transaction.WithContext(ctx).Save(provider).Error; err != nil {
		return nil, err
	}
	return provider, nil
}

func (pr *providerRepo) Delete(ctx context.Context, tx *gorm.DB, userID, providerID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	return transaction.WithContext(ctx).
		Where("id = ? AND user_id = ?", providerID, userID).
		Delete(&types.APIProvider{}).Error
}
