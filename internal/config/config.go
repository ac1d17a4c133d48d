package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration, read from the environment
type Config struct {
	MongoURI  string
	MongoDB   string
	RedisAddr string
	HTTPPort  string
	JWTSecret string
	LogLevel  string

	FormsBaseURL    string
	FormsMaxRetries int
	FormCacheTTL    time.Duration
	SubmitDelay     time.Duration

	CORSAllowedOrigins string

	AI *AIConfig
}

// Load reads a .env file when present, then the environment
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		MongoURI:  getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:   getEnv("MONGO_DB", "formpilot"),
		RedisAddr: strings.TrimPrefix(getEnv("REDIS_URI", "localhost:6379"), "redis://"),
		HTTPPort:  getEnv("PORT", "8080"),
		JWTSecret: getEnv("JWT_SECRET", "change-me-in-production"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		FormsBaseURL:    strings.TrimRight(getEnv("FORMS_BASE_URL", "https://docs.google.com/forms/d/e"), "/"),
		FormsMaxRetries: getEnvInt("FORMS_MAX_RETRIES", 3),
		FormCacheTTL:    getEnvDuration("FORM_CACHE_TTL", time.Hour),
		SubmitDelay:     time.Duration(getEnvInt("SUBMIT_DELAY_MS", 1500)) * time.Millisecond,

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),

		AI: DefaultAIConfig(),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
