package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REDIS_URI", "")
	t.Setenv("SUBMIT_DELAY_MS", "")
	t.Setenv("FORMS_BASE_URL", "")

	cfg := Load()
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 1500*time.Millisecond, cfg.SubmitDelay)
	assert.Equal(t, "https://docs.google.com/forms/d/e", cfg.FormsBaseURL)
	assert.Equal(t, time.Hour, cfg.FormCacheTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("REDIS_URI", "redis://cache:6380")
	t.Setenv("SUBMIT_DELAY_MS", "250")
	t.Setenv("FORMS_BASE_URL", "http://forms.local/")
	t.Setenv("FORM_CACHE_TTL", "5m")
	t.Setenv("FORMS_MAX_RETRIES", "not-a-number")

	cfg := Load()
	assert.Equal(t, "cache:6380", cfg.RedisAddr)
	assert.Equal(t, 250*time.Millisecond, cfg.SubmitDelay)
	assert.Equal(t, "http://forms.local", cfg.FormsBaseURL)
	assert.Equal(t, 5*time.Minute, cfg.FormCacheTTL)
	assert.Equal(t, 3, cfg.FormsMaxRetries)
}

func TestAIConfigEnabled(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	assert.False(t, DefaultAIConfig().IsEnabled())

	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("GEMINI_MODEL_ANSWER", "gemini-test")
	cfg := DefaultAIConfig()
	assert.True(t, cfg.IsEnabled())
	assert.Equal(t, "gemini-test", cfg.Model)
}
