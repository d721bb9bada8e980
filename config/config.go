package config

import (
	"os"
	"strings"
)

// Config is built once in main and injected into every component that
// needs it. Nothing reads the environment after startup.
type Config struct {
	Port         string
	DBPath       string
	ChatProvider string // "ollama" or "gemini"
	Ollama       OllamaConfig
	Gemini       GeminiConfig
	Qdrant       QdrantConfig
	SQLServer    SQLServerConfig
}

type OllamaConfig struct {
	BaseURL    string
	EmbedModel string
	ChatModel  string
}

type GeminiConfig struct {
	APIKey string
	// Model is tried first; FallbackModels are tried in order after it.
	Model          string
	FallbackModels []string
}

type QdrantConfig struct {
	BaseURL    string
	Collection string
}

type SQLServerConfig struct {
	Server   string
	Port     string
	Database string
	Schema   string
	UserID   string
	Password string
	Encrypt  bool
}

func Load() Config {
	return Config{
		Port:         getEnv("PORT", "9090"),
		DBPath:       getEnv("DB_PATH", "./data/badger"),
		ChatProvider: getEnv("CHAT_PROVIDER", "ollama"),
		Ollama: OllamaConfig{
			BaseURL:    getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			EmbedModel: getEnv("OLLAMA_EMBED_MODEL", "nomic-embed-text"),
			ChatModel:  getEnv("OLLAMA_CHAT_MODEL", "qwen2.5-coder:7b"),
		},
		Gemini: GeminiConfig{
			APIKey:         getEnv("GEMINI_API_KEY", ""),
			Model:          getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			FallbackModels: splitList(getEnv("GEMINI_FALLBACK_MODELS", "gemini-1.5-flash,gemini-1.5-pro")),
		},
		Qdrant: QdrantConfig{
			BaseURL:    getEnv("QDRANT_URL", "http://localhost:6333"),
			Collection: getEnv("QDRANT_COLLECTION", "db_maps"),
		},
		SQLServer: SQLServerConfig{
			Server:   getEnv("SQL_SERVER", "localhost"),
			Port:     getEnv("SQL_PORT", "1433"),
			Database: getEnv("SQL_DATABASE", ""),
			Schema:   getEnv("SQL_SCHEMA", "dbo"),
			UserID:   getEnv("SQL_USER", ""),
			Password: getEnv("SQL_PASSWORD", ""),
			Encrypt:  getEnv("SQL_ENCRYPT", "true") == "true",
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
