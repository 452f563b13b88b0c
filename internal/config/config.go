package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort       string
	DatabaseDriver string
	DatabaseURL    string
	LogLevel       string
	LogMode        string
	JWTSecret      string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	ChatModel     string

	GeminiAPIKey  string
	MetadataModel string

	// Unstract LLMWhisperer credentials, kept server side only.
	OCRAPIKey  string
	OCRBaseURL string

	RedisURL       string
	AllowedOrigins []string
	HistoryLimit   int
}

var AppConfig Config

// LoadConfig populates AppConfig and exits the process when a required value is missing.
func LoadConfig() {
	if err := godotenv.Load(); err != nil { // Load .env file if it exists
		log.Println("No .env file found, relying on environment variables")
	}

	cfg, err := Load()
	if err != nil {
		log.Fatal(err)
	}
	AppConfig = cfg
}

// Load reads the configuration from the environment without touching AppConfig.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		DatabaseDriver: getEnv("DATABASE_DRIVER", "sqlite3"),
		DatabaseURL:    getEnv("DATABASE_URL", "course_tutor.db"),
		LogLevel:       getEnv("LOG_LEVEL", "INFO"),
		LogMode:        getEnv("LOG_MODE", "development"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", ""),
		ChatModel:      getEnv("CHAT_MODEL", "gpt-4o-mini"),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		MetadataModel:  getEnv("METADATA_MODEL", "gemini-1.5-flash-latest"),
		OCRAPIKey:      getEnv("UNSTRACT_API_KEY", ""),
		OCRBaseURL:     getEnv("LLMWHISPERER_BASE_URL", "https://llmwhisperer-api.unstract.com/v1"),
		RedisURL:       getEnv("REDIS_URL", ""),
		AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		HistoryLimit:   getEnvAsInt("HISTORY_LIMIT", 8),
	}

	switch cfg.DatabaseDriver {
	case "sqlite3", "postgres":
	default:
		return Config{}, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if cfg.OpenAIAPIKey == "" {
		return Config{}, fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 8
	}
	return cfg, nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
