package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string

	LLMProvider string
	LLMModel    string
	OpenAIKey   string
	LLMTimeout  time.Duration

	GeneralRateCap    int
	GeneralRateWindow time.Duration
	AIRateCap         int
	AIRateWindow      time.Duration
	AIDailyCap        int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	_ = godotenv.Load(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	apiKey := os.Getenv("OPENAI_API_KEY")

	if env == "production" && apiKey == "" {
		log.Printf("OPENAI_API_KEY is not set; AI-enhanced analysis is disabled")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             env,
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),

		LLMProvider: getEnv("LLM_PROVIDER", "openai"),
		LLMModel:    getEnv("LLM_MODEL", "gpt-4o-mini"),
		OpenAIKey:   apiKey,
		LLMTimeout:  getDuration("OPENAI_TIMEOUT_SECONDS", 30*time.Second),

		GeneralRateCap:    getInt("RATE_LIMIT_GENERAL_CAP", 30),
		GeneralRateWindow: getDuration("RATE_LIMIT_GENERAL_WINDOW_SECONDS", time.Minute),
		AIRateCap:         getInt("RATE_LIMIT_AI_CAP", 10),
		AIRateWindow:      getDuration("RATE_LIMIT_AI_WINDOW_SECONDS", time.Hour),
		AIDailyCap:        getInt("AI_DAILY_CAP", 100),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return time.Duration(parsed) * time.Second
		}
	}
	return def
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}
