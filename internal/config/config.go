package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port        string
	BaseURL     string
	DatabaseURL string
	RedisURL    string

	// Email transport: "api" (HTTP delivery API) or "smtp".
	EmailTransport string
	EmailFrom      string
	EmailTimeout   time.Duration

	EmailAPIURL   string
	EmailAPIToken string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	// Upper bound on concurrent sends during newsletter fan-out.
	DispatchConcurrency int
}

// Load reads configuration from the environment, with a .env file as a
// development convenience.
func Load() (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		BaseURL:             getEnv("BASE_URL", "http://localhost:8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		RedisURL:            getEnv("REDIS_URL", ""),
		EmailTransport:      getEnv("EMAIL_TRANSPORT", "api"),
		EmailFrom:           getEnv("EMAIL_FROM", ""),
		EmailTimeout:        time.Duration(getEnvInt("EMAIL_TIMEOUT_SECONDS", 10)) * time.Second,
		EmailAPIURL:         getEnv("EMAIL_API_URL", ""),
		EmailAPIToken:       getEnv("EMAIL_API_TOKEN", ""),
		SMTPHost:            getEnv("SMTP_HOST", ""),
		SMTPPort:            getEnvInt("SMTP_PORT", 587),
		SMTPUsername:        getEnv("SMTP_USERNAME", ""),
		SMTPPassword:        getEnv("SMTP_PASSWORD", ""),
		DispatchConcurrency: getEnvInt("DISPATCH_CONCURRENCY", 10),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.EmailFrom == "" {
		return nil, fmt.Errorf("EMAIL_FROM is required")
	}

	switch cfg.EmailTransport {
	case "api":
		if cfg.EmailAPIURL == "" {
			return nil, fmt.Errorf("EMAIL_API_URL is required for the api transport")
		}
	case "smtp":
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("SMTP_HOST is required for the smtp transport")
		}
	default:
		return nil, fmt.Errorf("unknown EMAIL_TRANSPORT %q", cfg.EmailTransport)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
