package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all environment-sourced settings for the API process.
type Config struct {
	DatabaseURL  string
	ListenAddr   string
	JWTSecret    string
	JWTAlgorithm string
	TokenTTL     time.Duration
	OpenAIAPIKey string
}

// Load reads configuration from the environment, optionally seeded from a
// .env file. A missing .env is not an error; in production the variables
// are usually set directly.
func Load() (*Config, error) {
	_ = godotenv.Load()

	expireMinutes, err := getEnvInt("JWT_EXPIRE_MINUTES", 1440)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		ListenAddr:   getEnv("LISTEN_ADDR", ":8000"),
		JWTSecret:    getEnv("JWT_SECRET_KEY", ""),
		JWTAlgorithm: getEnv("JWT_ALGORITHM", "HS256"),
		TokenTTL:     time.Duration(expireMinutes) * time.Minute,
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("config: DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET_KEY is required")
	}

	switch cfg.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return nil, fmt.Errorf("config: unsupported JWT_ALGORITHM %q", cfg.JWTAlgorithm)
	}

	return cfg, nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be an integer: %w", key, err)
	}
	return n, nil
}
