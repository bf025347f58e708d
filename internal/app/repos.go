package app

import (
	"gorm.io/gorm"

	"github.com/promptforge/promptforge-backend/internal/logger"
	"github.com/promptforge/promptforge-backend/internal/repos"
)

type Repos struct {
	User          repos.UserRepo
	UserToken     repos.UserTokenRepo
	Provider      repos.ProviderRepo
	Template      repos.TemplateRepo
	GenerationLog repos.GenerationLogRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:          repos.NewUserRepo(db, log),
		UserToken:     repos.NewUserTokenRepo(db, log),
		Provider:      repos.NewProviderRepo(db, log),
		Template:      repos.NewTemplateRepo(db, log),
		GenerationLog: repos.NewGenerationLogRepo(db, log),
	}
}
