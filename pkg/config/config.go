package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	DatabaseURL      string
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// X (Twitter) API credentials
	XBearerToken  string
	XClientID     string
	XClientSecret string
	XCallbackURL  string

	RateLimitMinutes int
	FetchPostLimit   int

	// AI provider
	AIProvider   string
	OpenAIAPIKey string
	OpenAIModel  string
	OpenAIBase   string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	accessExpiry := 15 * time.Minute
	if exp := os.Getenv("JWT_ACCESS_EXPIRY"); exp != "" {
		if parsed, err := time.ParseDuration(exp); err == nil {
			accessExpiry = parsed
		}
	}

	refreshExpiry := 168 * time.Hour // 7 days
	if exp := os.Getenv("JWT_REFRESH_EXPIRY"); exp != "" {
		if parsed, err := time.ParseDuration(exp); err == nil {
			refreshExpiry = parsed
		}
	}

	return &Config{
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      getEnv("DATABASE_URL", "host=localhost user=xpress password=xpress dbname=xpress port=5432 sslmode=disable"),
		JWTSecret:        getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTAccessExpiry:  accessExpiry,
		JWTRefreshExpiry: refreshExpiry,
		XBearerToken:     getEnv("X_BEARER_TOKEN", ""),
		XClientID:        getEnv("X_CLIENT_ID", ""),
		XClientSecret:    getEnv("X_CLIENT_SECRET", ""),
		XCallbackURL:     getEnv("X_CALLBACK_URL", "http://localhost:8080/api/x/oauth/callback"),
		RateLimitMinutes: getEnvInt("RATE_LIMIT_MINUTES", 15),
		FetchPostLimit:   getEnvInt("FETCH_POST_LIMIT", 5),
		AIProvider:       getEnv("AI_PROVIDER", "openai"),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBase:       getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}
