package basicagent

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration, loaded from the environment
// (optionally seeded from a .env file).
type Config struct {
	// Model provider: "openai" (default) or "gemini".
	ModelProvider string
	OpenAIAPIKey  string
	OpenAIModel   string
	GeminiAPIKey  string

	// External data sources.
	AirNowAPIKey string
	NWSUserAgent string

	// Persistence.
	DBType        string // "sqlite" or "postgres"
	DBConnection  string
	RetentionDays int

	// HTTP server bind address.
	Addr string
}

// LoadConfig reads configuration from the environment. A missing .env
// file is not an error; explicit environment variables always win.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ModelProvider: envOr("MODEL_PROVIDER", "openai"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   envOr("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		AirNowAPIKey:  os.Getenv("AIRNOW_API_KEY"),
		NWSUserAgent:  envOr("NWS_USER_AGENT", "basic-agent-weather (contact@example.com)"),
		DBType:        envOr("DB_TYPE", "sqlite"),
		DBConnection:  envOr("DB_CONNECTION", "chat_history.sqlite"),
		Addr:          envOr("ADDR", ":8000"),
	}

	if days := os.Getenv("RETENTION_DAYS"); days != "" {
		n, err := strconv.Atoi(days)
		if err != nil {
			return nil, fmt.Errorf("invalid RETENTION_DAYS %q: %w", days, err)
		}
		cfg.RetentionDays = n
	}

	switch cfg.ModelProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when MODEL_PROVIDER=openai")
		}
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required when MODEL_PROVIDER=gemini")
		}
	default:
		return nil, fmt.Errorf("unsupported MODEL_PROVIDER: %s", cfg.ModelProvider)
	}

	return cfg, nil
}

// RetentionMaxAge converts RetentionDays into a duration; zero disables
// retention sweeping.
func (c *Config) RetentionMaxAge() time.Duration {
	if c.RetentionDays <= 0 {
		return 0
	}
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
