package config

import (
	"os"
	"time"
)

// AIConfig holds the settings of the free-text answer generator
type AIConfig struct {
	APIKey  string        `json:"-"` // Never serialize
	Model   string        `json:"model"`
	Timeout time.Duration `json:"timeout"`
	// Temperature above 1 makes repeated answers to the same question differ more
	Temperature float32 `json:"temperature"`
}

// DefaultAIConfig returns the default AI configuration
func DefaultAIConfig() *AIConfig {
	return &AIConfig{
		APIKey:      os.Getenv("GEMINI_API_KEY"),
		Model:       getEnv("GEMINI_MODEL_ANSWER", "gemini-2.0-flash"),
		Timeout:     getEnvDuration("GEMINI_TIMEOUT", 15*time.Second),
		Temperature: float32(getEnvFloat("GEMINI_TEMPERATURE", 1.2)),
	}
}

// IsEnabled returns true if the AI API is configured
func (c *AIConfig) IsEnabled() bool {
	return c.APIKey != ""
}
