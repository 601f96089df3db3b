// Package config loads daemon configuration from environment variables.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/yourusername/decisiond/internal/platform"
)

// Config holds all runtime configuration for decisiond.
type Config struct {
	Port       string
	WorkDir    string
	DBPath     string
	PromptsDir string

	AdminUsername string
	AdminPassword string

	// Generator providers.
	DefaultProvider     string
	OpenAIAPIKey        string
	OpenAIModel         string
	OpenAIContextTokens int
	OllamaBaseURL       string
	OllamaModel         string
	OllamaContextTokens int

	// Analysis defaults and trimming.
	DefaultMaxDepth int
	DefaultBreadth  int
	MinChunkSize    int
	PoolSize        int
	RetentionDays   int

	TelegramToken  string
	TelegramChatID int64

	SessionExpiryHours     int
	BruteForceMaxAttempts  int
	BruteForceBlockMinutes int
}

// Load reads environment variables and returns a Config.
// Uses sensible defaults for optional fields.
// Panics if required fields are empty.
func Load() *Config {
	workDir := getEnv("WORK_DIR", platform.DefaultWorkDir())

	dbPath := getEnv("DB_PATH", filepath.Join(workDir, "decisiond.db"))
	if dbPath == "" {
		panic("config: DB_PATH is required")
	}

	chatID, _ := strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64)

	return &Config{
		Port:       getEnv("PORT", "8080"),
		WorkDir:    workDir,
		DBPath:     dbPath,
		PromptsDir: getEnv("PROMPTS_DIR", filepath.Join(workDir, "prompts")),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "changeme"),

		DefaultProvider:     getEnv("DEFAULT_PROVIDER", "openai"),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-4o"),
		OpenAIContextTokens: getEnvInt("OPENAI_CONTEXT_TOKENS", 128000),
		OllamaBaseURL:       getEnv("OLLAMA_BASE_URL", ""),
		OllamaModel:         getEnv("OLLAMA_MODEL", "llama3.1"),
		OllamaContextTokens: getEnvInt("OLLAMA_CONTEXT_TOKENS", 8192),

		DefaultMaxDepth: getEnvInt("DEFAULT_MAX_DEPTH", 2),
		DefaultBreadth:  getEnvInt("DEFAULT_BREADTH", 3),
		MinChunkSize:    getEnvInt("MIN_CHUNK_SIZE", 256),
		PoolSize:        getEnvInt("POOL_SIZE", 2),
		RetentionDays:   getEnvInt("RETENTION_DAYS", 30),

		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		TelegramChatID: chatID,

		SessionExpiryHours:     getEnvInt("SESSION_EXPIRY_HOURS", 24),
		BruteForceMaxAttempts:  getEnvInt("BRUTE_FORCE_MAX_ATTEMPTS", 5),
		BruteForceBlockMinutes: getEnvInt("BRUTE_FORCE_BLOCK_MINUTES", 15),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
