package app

import (
	"os"

	"gorm.io/gorm"

	"github.com/promptforge/promptforge-backend/internal/generation"
	"github.com/promptforge/promptforge-backend/internal/llm"
	"github.com/promptforge/promptforge-backend/internal/logger"
	"github.com/promptforge/promptforge-backend/internal/promptdoc"
	"github.com/promptforge/promptforge-backend/internal/services"
	"github.com/promptforge/promptforge-backend/internal/sse"
)

type Services struct {
	Auth     services.AuthService
	User     services.UserService
	Provider services.ProviderService
	Template services.TemplateService
	Generate services.GenerateService
	SSEBus   services.SSEBus
	Docs     *promptdoc.Store
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, hub *sse.SSEHub) (Services, error) {
	log.Info("Wiring services...")

	authService := services.NewAuthService(
		db, log,
		reposet.User, reposet.UserToken,
		cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL,
	)
	userService := services.NewUserService(db, log, reposet.User)
	providerService := services.NewProviderService(db, log, reposet.Provider)
	templateService := services.NewTemplateService(db, log, reposet.Template)

	docs := promptdoc.NewStore(cfg.DocsBaseURL, log)
	client := llm.NewClient(log)
	engine := generation.NewEngine(docs, client, log)

	var bus services.SSEBus
	if os.Getenv("REDIS_ADDR") != "" {
		var err error
		bus, err = services.NewRedisSSEBus(log)
		if err != nil {
			return Services{}, err
		}
	}

	generateService := services.NewGenerateService(
		db, log,
		engine, docs, client,
		providerService, reposet.GenerationLog,
		hub, bus,
	)

	return Services{
		Auth:     authService,
		User:     userService,
		Provider: providerService,
		Template: templateService,
		Generate: generateService,
		SSEBus:   bus,
		Docs:     docs,
	}, nil
}
