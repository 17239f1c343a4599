package config

import (
	"log"
	"os"
	"strconv"

	"alrah-ai-be/pkg/rag"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	Call     CallConfig
	Profiles ProfileConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	WorkerCount        int
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	OpenAI        string
	TelegramToken string
	ExchangeTopic string // exchange-completed topic name
}

type AIConfig struct {
	LLMProvider     string // "openai" or "ollama"
	LLMModel        string
	EmbeddingModel  string
	OllamaBaseURL   string
	WhisperModel    string
	TTSModel        string
	TTSVoice        string
	QueryLanguage   string
}

// CallConfig holds credentials for the realtime voice-call transport.
type CallConfig struct {
	APIKey    string
	APISecret string
	ServerURL string
	RoomName  string
}

// ProfileConfig carries one RAG profile per front end. The original deployment
// tuned these independently (voice answers must stay short, bot answers may be
// long), so they are configuration, not constants.
type ProfileConfig struct {
	API   rag.Profile
	Bot   rag.Profile
	Voice rag.Profile
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			WorkerCount:        getEnvAsInt("DISPATCH_WORKERS", 4),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			OpenAI:        getEnv("OPENAI_API_KEY", ""),
			TelegramToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ExchangeTopic: getEnv("EXCHANGE_COMPLETED_TOPIC_NAME", "EXCHANGE_COMPLETED"),
		},
		Ai: AIConfig{
			LLMProvider:    getEnv("LLM_PROVIDER", "openai"),
			LLMModel:       getEnv("LLM_MODEL", "gpt-4o-mini"),
			EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
			OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			WhisperModel:   getEnv("WHISPER_MODEL", "whisper-1"),
			TTSModel:       getEnv("TTS_MODEL", "tts-1"),
			TTSVoice:       getEnv("TTS_VOICE", "alloy"),
			QueryLanguage:  getEnv("QUERY_LANGUAGE", "ar"),
		},
		Call: CallConfig{
			APIKey:    getEnv("CALL_API_KEY", ""),
			APISecret: getEnv("CALL_API_SECRET", ""),
			ServerURL: getEnv("CALL_SERVER_URL", "wss://your-call-server.com"),
			RoomName:  getEnv("CALL_ROOM_NAME", "alrah-ai-room"),
		},
		Profiles: ProfileConfig{
			API: rag.Profile{
				ScoreThreshold:     getEnvAsFloat("API_SCORE_THRESHOLD", 0.3),
				TopK:               getEnvAsInt("API_TOP_K", 5),
				FallbackCount:      getEnvAsInt("API_FALLBACK_COUNT", 2),
				MaxContextChars:    getEnvAsInt("API_MAX_CONTEXT_CHARS", 2000),
				MaxHistoryMessages: getEnvAsInt("API_MAX_HISTORY_MESSAGES", 6),
				PerMessageChars:    getEnvAsInt("API_PER_MESSAGE_CHARS", 200),
				MaxTokens:          getEnvAsInt("API_MAX_TOKENS", 300),
			},
			Bot: rag.Profile{
				ScoreThreshold:     getEnvAsFloat("BOT_SCORE_THRESHOLD", 0.3),
				TopK:               getEnvAsInt("BOT_TOP_K", 10),
				FallbackCount:      getEnvAsInt("BOT_FALLBACK_COUNT", 3),
				MaxContextChars:    getEnvAsInt("BOT_MAX_CONTEXT_CHARS", 4000),
				MaxHistoryMessages: getEnvAsInt("BOT_MAX_HISTORY_MESSAGES", 6),
				PerMessageChars:    getEnvAsInt("BOT_PER_MESSAGE_CHARS", 200),
				MaxTokens:          getEnvAsInt("BOT_MAX_TOKENS", 500),
			},
			Voice: rag.Profile{
				ScoreThreshold:     getEnvAsFloat("VOICE_SCORE_THRESHOLD", 0.3),
				TopK:               getEnvAsInt("VOICE_TOP_K", 3),
				FallbackCount:      getEnvAsInt("VOICE_FALLBACK_COUNT", 2),
				MaxContextChars:    getEnvAsInt("VOICE_MAX_CONTEXT_CHARS", 1000),
				MaxHistoryMessages: getEnvAsInt("VOICE_MAX_HISTORY_MESSAGES", 4),
				PerMessageChars:    getEnvAsInt("VOICE_PER_MESSAGE_CHARS", 120),
				MaxTokens:          getEnvAsInt("VOICE_MAX_TOKENS", 300),
			},
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

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
