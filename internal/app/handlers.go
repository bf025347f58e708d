package app

import (
	"github.com/promptforge/promptforge-backend/internal/handlers"
	"github.com/promptforge/promptforge-backend/internal/logger"
	"github.com/promptforge/promptforge-backend/internal/sse"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	User     *handlers.UserHandler
	Provider *handlers.ProviderHandler
	Template *handlers.TemplateHandler
	Generate *handlers.GenerateHandler
	SSE      *handlers.SSEHandler
	Docs     *handlers.DocsHandler
}

func wireHandlers(log *logger.Logger, cfg Config, serviceset Services, hub *sse.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:     handlers.NewAuthHandler(serviceset.Auth),
		User:     handlers.NewUserHandler(serviceset.User),
		Provider: handlers.NewProviderHandler(serviceset.Provider),
		Template: handlers.NewTemplateHandler(serviceset.Template),
		Generate: handlers.NewGenerateHandler(log, serviceset.Generate),
		SSE:      handlers.NewSSEHandler(log, hub),
		Docs:     handlers.NewDocsHandler(log, cfg.DocsDir),
	}
}
