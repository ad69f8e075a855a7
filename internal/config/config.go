package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// LLM upstream (OpenAI-compatible)
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	// Frontend
	FrontendURL string

	// Auth rate limiting (requests per minute per IP)
	AuthRateLimit int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:          getEnvOrDefault("PORT", "8080"),
		Env:           getEnvOrDefault("ENV", "development"),
		DatabaseURL:   mustGetEnv("DATABASE_URL"),
		RedisURL:      mustGetEnv("REDIS_URL"),
		JWTSecret:     mustGetEnv("JWT_SECRET"),
		LLMBaseURL:    mustGetEnv("LLM_BASE_URL"),
		LLMAPIKey:     mustGetEnv("LLM_API_KEY"),
		LLMModel:      getEnvOrDefault("LLM_MODEL", "qwen/qwen3-1.7b"),
		FrontendURL:   getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
		AuthRateLimit: getEnvAsIntOrDefault("AUTH_RATE_LIMIT", 10),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
