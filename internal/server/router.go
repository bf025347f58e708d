package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/promptforge/promptforge-backend/internal/handlers"
	"github.com/promptforge/promptforge-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler     *handlers.AuthHandler
	AuthMiddleware  *middleware.AuthMiddleware
	UserHandler     *handlers.UserHandler
	ProviderHandler *handlers.ProviderHandler
	TemplateHandler *handlers.TemplateHandler
	GenerateHandler *handlers.GenerateHandler
	SSEHandler      *handlers.SSEHandler
	DocsHandler     *handlers.DocsHandler
	AllowOrigins    []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)
	router.GET("/docs/:name", cfg.DocsHandler.GetDoc)

	api := router.Group("/api")
	api.POST("/register", cfg.AuthHandler.Register)
	api.POST("/login", cfg.AuthHandler.Login)
	api.POST("/refresh", cfg.AuthHandler.Refresh)

	// Protected
	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())

	protected.POST("/logout", cfg.AuthHandler.Logout)
	protected.GET("/me", cfg.UserHandler.GetMe)
	protected.PUT("/me/nickname", cfg.UserHandler.UpdateNickname)

	protected.POST("/providers", cfg.ProviderHandler.Create)
	protected.GET("/providers", cfg.ProviderHandler.List)
	protected.GET("/providers/:id", cfg.ProviderHandler.Get)
	protected.PUT("/providers/:id", cfg.ProviderHandler.Update)
	protected.DELETE("/providers/:id", cfg.ProviderHandler.Delete)

	protected.POST("/templates", cfg.TemplateHandler.Create)
	protected.GET("/templates", cfg.TemplateHandler.List)
	protected.GET("/templates/:id", cfg.TemplateHandler.Get)
	protected.PUT("/templates/:id", cfg.TemplateHandler.Update)
	protected.POST("/templates/:id/fields", cfg.TemplateHandler.ApplyFields)
	protected.DELETE("/templates/:id", cfg.TemplateHandler.Delete)

	protected.POST("/generate", cfg.GenerateHandler.Proxy)
	protected.POST("/generate/field", cfg.GenerateHandler.GenerateField)
	protected.POST("/generate/batch", cfg.GenerateHandler.GenerateBatch)
	protected.POST("/generate/invalidate-docs", cfg.GenerateHandler.InvalidateDocs)
	protected.GET("/generate/history", cfg.GenerateHandler.History)

	protected.GET("/sse/stream", cfg.SSEHandler.Stream)

	return router
}
