package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/promptforge/promptforge-backend/internal/logger"
	"github.com/promptforge/promptforge-backend/internal/types"
)

type TemplateRepo interface {
	Create(ctx context.Context, tx *gorm.DB, template *types.Template) (*types.Template, error)
	GetByID(ctx context.Context, tx *gorm.DB, userID, templateID uuid.UUID) (*types.Template, error)
	List(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Template, error)
	Update(ctx context.Context, tx *gorm.DB, template *types.Template) (*types.Template, error)
	Delete(ctx context.Context, tx *gorm.DB, userID, templateID uuid.UUID) error
}

type templateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTemplateRepo(db *gorm.DB, baseLog *logger.Logger) TemplateRepo {
	return &templateRepo{db: db, log: baseLog.With("repo", "TemplateRepo")}
}

func (tr *templateRepo) Create(ctx context.Context, tx *gorm.DB, template *types.Template) (*types.Template, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	if err := transaction.WithContext(ctx).Create(template).Error; err != nil {
		return nil, err
	}
	return template, nil
}

func (tr *templateRepo) GetByID(ctx context.Context, tx *gorm.DB, userID, templateID uuid.UUID) (*types.Template, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	var result types.Template
	if err := transaction.WithContext(ctx).
		Where("id = ? AND user_id = ?", templateID, userID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (tr *templateRepo) List(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Template, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	var results []*types.Template
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *templateRepo) Update(ctx context.Context, tx *gorm.DB, template *types.Template) (*types.Template, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	if err := transaction.WithContext(ctx).Save(template).Error; err != nil {
		return nil, err
	}
	return template, nil
}

func (tr *templateRepo) Delete(ctx context.Context, tx *gorm.DB, userID, templateID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	return transaction.WithContext(ctx).
		Where("id = ? AND user_id = ?", templateID, userID).
		Delete(&types.Template{}).Error
}
