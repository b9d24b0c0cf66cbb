package cerebro

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration loaded from environment variables.
// The chat endpoint is any OpenAI-compatible API (DeepSeek by default);
// embeddings go to a separate endpoint because not every chat provider
// serves them.
type Config struct {
	ChatAPIKey  string
	ChatBaseURL string
	ChatModel   string

	EmbeddingAPIKey  string
	EmbeddingBaseURL string
	EmbeddingModel   string

	DatabasePath       string
	ServiceAccountFile string
	Port               string
}

// LoadConfig reads configuration from the environment, loading a .env file
// first if one exists.
func LoadConfig() Config {
	_ = godotenv.Load()

	cfg := Config{
		ChatAPIKey:         os.Getenv("CHAT_API_KEY"),
		ChatBaseURL:        getEnv("CHAT_BASE_URL", "https://api.deepseek.com/v1"),
		ChatModel:          getEnv("CHAT_MODEL", "deepseek-chat"),
		EmbeddingAPIKey:    os.Getenv("EMBEDDING_API_KEY"),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "https://api.openai.com/v1"),
		EmbeddingModel:     getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		DatabasePath:       getEnv("DATABASE_PATH", "./cerebro.db"),
		ServiceAccountFile: getEnv("SERVICE_ACCOUNT_FILE", "service_account.json"),
		Port:               getEnv("PORT", "8180"),
	}

	if cfg.EmbeddingAPIKey == "" {
		cfg.EmbeddingAPIKey = cfg.ChatAPIKey
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}
