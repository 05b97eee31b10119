package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	Ai          AIConfig
	Vectorstore VectorstoreConfig
	Upload      UploadConfig
	Cleanup     CleanupConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	JwtSecret     string
	TokenTTLHours int
}

type AIConfig struct {
	LLMProvider       string // "ollama" or "gemini"
	LLMModel          string // e.g. "llama3", "gemini-1.5-flash"
	OllamaBaseURL     string
	GeminiApiKey      string
	EmbeddingProvider string // "gemini" or "ollama"
	EmbeddingModel    string
	RetrievalK        int
	RetrieveAllLimit  int
	HistoryWindow     int
	IndexTopicName    string
}

type VectorstoreConfig struct {
	Provider   string // "pgvector" or "chromem"
	ChromemDir string
}

type UploadConfig struct {
	Dir       string
	MaxSizeMB int
}

type CleanupConfig struct {
	Schedule   string // 5-field cron expression
	MaxAgeDays int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JwtSecret:     getEnv("JWT_SECRET", ""),
			TokenTTLHours: getEnvAsInt("AUTH_TOKEN_TTL_HOURS", 168), // 7 days
		},
		Ai: AIConfig{
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			GeminiApiKey:      getEnv("GOOGLE_GEMINI_API_KEY", ""),
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			RetrievalK:        getEnvAsInt("RETRIEVAL_K", 2),
			RetrieveAllLimit:  getEnvAsInt("RETRIEVE_ALL_LIMIT", 1000),
			HistoryWindow:     getEnvAsInt("HISTORY_WINDOW", 20),
			IndexTopicName:    getEnv("INDEX_DOCUMENTS_TOPIC_NAME", "INDEX_DOCUMENTS"),
		},
		Vectorstore: VectorstoreConfig{
			Provider:   getEnv("VECTORSTORE_PROVIDER", "pgvector"),
			ChromemDir: getEnv("CHROMEM_DIR", "./data/vectorstore"),
		},
		Upload: UploadConfig{
			Dir:       getEnv("UPLOAD_DIR", "./uploads"),
			MaxSizeMB: getEnvAsInt("UPLOAD_MAX_SIZE_MB", 20),
		},
		Cleanup: CleanupConfig{
			Schedule:   getEnv("CLEANUP_SCHEDULE", "0 3 * * *"),
			MaxAgeDays: getEnvAsInt("CLEANUP_MAX_AGE_DAYS", 30),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
