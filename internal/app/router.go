package app

import (
	"github.com/gin-gonic/gin"

	"github.com/promptforge/promptforge-backend/internal/server"
)

func wireRouter(cfg Config, handlerset Handlers, middlewareset Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AuthHandler:     handlerset.Auth,
		AuthMiddleware:  middlewareset.Auth,
		UserHandler:     handlerset.User,
		ProviderHandler: handlerset.Provider,
		TemplateHandler: handlerset.Template,
		GenerateHandler: handlerset.Generate,
		SSEHandler:      handlerset.SSE,
		DocsHandler:     handlerset.Docs,
		AllowOrigins:    cfg.AllowOrigins,
	})
}
