package app

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/promptforge/promptforge-backend/internal/logger"
	"github.com/promptforge/promptforge-backend/internal/utils"
)

type Config struct {
	Port            string
	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	DocsDir         string
	DocsBaseURL     string
	AllowOrigins    []string
}

// fileConfig is the optional YAML config file. Environment variables win
// over file values; file values win over built-in defaults.
type fileConfig struct {
	Port            string   `yaml:"port"`
	AccessTokenTTL  int      `yaml:"access_token_ttl"`
	RefreshTokenTTL int      `yaml:"refresh_token_ttl"`
	DocsDir         string   `yaml:"docs_dir"`
	DocsBaseURL     string   `yaml:"docs_base_url"`
	AllowOrigins    []string `yaml:"allow_origins"`
}

func LoadConfig(log *logger.Logger) Config {
	fc := loadConfigFile(log)

	port := utils.GetEnv("PORT", defaultStr(fc.Port, "8080"), log)
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTLSeconds := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", defaultInt(fc.AccessTokenTTL, 3600), log)
	refreshTokenTTLSeconds := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", defaultInt(fc.RefreshTokenTTL, 86400), log)
	docsDir := utils.GetEnv("DOCS_DIR", defaultStr(fc.DocsDir, "./docs"), log)
	// The template store reads through the same HTTP surface the frontend
	// uses, so cache behavior and failure modes match what clients see.
	docsBaseURL := utils.GetEnv("DOCS_BASE_URL", defaultStr(fc.DocsBaseURL, "http://localhost:"+port+"/docs"), log)

	origins := fc.AllowOrigins
	if raw := utils.GetEnv("CORS_ALLOW_ORIGINS", "", log); raw != "" {
		origins = nil
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	return Config{
		Port:            port,
		JWTSecretKey:    jwtSecretKey,
		AccessTokenTTL:  time.Duration(accessTokenTTLSeconds) * time.Second,
		RefreshTokenTTL: time.Duration(refreshTokenTTLSeconds) * time.Second,
		DocsDir:         docsDir,
		DocsBaseURL:     docsBaseURL,
		AllowOrigins:    origins,
	}
}

func loadConfigFile(log *logger.Logger) fileConfig {
	path := utils.GetEnv("CONFIG_FILE", "config.yaml", log)

	var fc fileConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		// Missing config file is the normal case.
		return fc
	}
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		log.Warn("Ignoring malformed config file", "path", path, "error", err)
		return fileConfig{}
	}
	log.Info("Loaded config file", "path", path)
	return fc
}

func defaultStr(v, fallback string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func defaultInt(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
