package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/promptforge/promptforge-backend/internal/element"
	"github.com/promptforge/promptforge-backend/internal/logger"
	"github.com/promptforge/promptforge-backend/internal/repos"
	"github.com/promptforge/promptforge-backend/internal/types"
)

// TemplateInput carries the client-editable fields of a saved six-element
// template.
type TemplateInput struct {
	Topic          string `json:"topic"`
	TaskObjective  string `json:"task_objective"`
	AIRole         string `json:"ai_role"`
	MyRole         string `json:"my_role"`
	KeyInformation string `json:"key_information"`
	BehaviorRule   string `json:"behavior_rule"`
	DeliveryFormat string `json:"delivery_format"`
}

type TemplateService interface {
	Create(ctx context.Context, userID uuid.UUID, input TemplateInput) (*types.Template, error)
	Get(ctx context.Context, userID, templateID uuid.UUID) (*types.Template, error)
	List(ctx context.Context, userID uuid.UUID) ([]*types.Template, error)
	Update(ctx context.Context, userID, templateID uuid.UUID, input TemplateInput) (*types.Template, error)
	ApplyFields(ctx context.Context, userID, templateID uuid.UUID, fields map[element.Type]string) (*types.Template, error)
	Delete(ctx context.Context, userID, templateID uuid.UUID) error
}

type templateService struct {
	db           *gorm.DB
	log          *logger.Logger
	templateRepo repos.TemplateRepo
}

func NewTemplateService(db *gorm.DB, log *logger.Logger, templateRepo repos.TemplateRepo) TemplateService {
	return &templateService{
		db:           db,
		log:          log.With("service", "TemplateService"),
		templateRepo: templateRepo,
	}
}

func (ts *templateService) Create(ctx context.Context, userID uuid.UUID, input TemplateInput) (*types.Template, error) {
	if strings.TrimSpace(input.Topic) == "" {
		return nil, fmt.Errorf("template topic is required")
	}

	template := &types.Template{
		ID:             uuid.New(),
		UserID:         userID,
		Topic:          strings.TrimSpace(input.Topic),
		TaskObjective:  input.TaskObjective,
		AIRole:         input.AIRole,
		MyRole:         input.MyRole,
		KeyInformation: input.KeyInformation,
		BehaviorRule:   input.BehaviorRule,
		DeliveryFormat: input.DeliveryFormat,
	}
	return ts.templateRepo.Create(ctx, nil, template)
}

func (ts *templateService) Get(ctx context.Context, userID, templateID uuid.UUID) (*types.Template, error) {
	return ts.templateRepo.GetByID(ctx, nil, userID, templateID)
}

func (ts *templateService) List(ctx context.Context, userID uuid.UUID) ([]*types.Template, error) {
	return ts.templateRepo.List(ctx, nil, userID)
}

func (ts *templateService) Update(ctx context.Context, userID, templateID uuid.UUID, input TemplateInput) (*types.Template, error) {
	template, err := ts.templateRepo.GetByID(ctx, nil, userID, templateID)
	if err != nil {
		return nil, fmt.Errorf("template not found")
	}

	if input.Topic != "" {
		template.Topic = strings.TrimSpace(input.Topic)
	}
	template.TaskObjective = input.TaskObjective
	template.AIRole = input.AIRole
	template.MyRole = input.MyRole
	template.KeyInformation = input.KeyInformation
	template.BehaviorRule = input.BehaviorRule
	template.DeliveryFormat = input.DeliveryFormat

	return ts.templateRepo.Update(ctx, nil, template)
}

// ApplyFields writes confirmed batch results into a saved template, touching
// only the fields present in the map.
func (ts *templateService) ApplyFields(ctx context.Context, userID, templateID uuid.UUID, fields map[element.Type]string) (*types.Template, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to apply")
	}

	template, err := ts.templateRepo.GetByID(ctx, nil, userID, templateID)
	if err != nil {
		return nil, fmt.Errorf("template not found")
	}

	for field, content := range fields {
		switch field {
		case element.TypeTask:
			template.TaskObjective = content
		case element.TypeAIRole:
			template.AIRole = content
		case element.TypeMyRole:
			template.MyRole = content
		case element.TypeKeyInfo:
			template.KeyInformation = content
		case element.TypeBehavior:
			template.BehaviorRule = content
		case element.TypeDelivery:
			template.DeliveryFormat = content
		default:
			return nil, fmt.Errorf("unknown field %q", field)
		}
	}

	return ts.templateRepo.Update(ctx, nil, template)
}

func (ts *templateService) Delete(ctx context.Context, userID, templateID uuid.UUID) error {
	return ts.templateRepo.Delete(ctx, nil, userID, templateID)
}
