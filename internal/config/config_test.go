package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("VEXA_BOT_TIMEOUT_SECONDS", "")
	t.Setenv("SMTP_HOST", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.App.Addr())
	assert.Equal(t, 5*time.Second, cfg.Transcription.BotTimeout())
	assert.Equal(t, 30*time.Second, cfg.Transcription.TranscriptTimeout())
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout())
	assert.Equal(t, "gpt-3.5-turbo", cfg.LLM.Model)
	assert.False(t, cfg.Mail.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("VEXA_BOT_TIMEOUT_SECONDS", "3")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("OPENAI_TEMPERATURE", "0.1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, 3*time.Second, cfg.Transcription.BotTimeout())
	assert.True(t, cfg.Mail.Enabled())
	assert.Equal(t, "smtp.example.com:2525", cfg.Mail.Addr())
	assert.InDelta(t, 0.1, cfg.LLM.Temperature, 1e-9)
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")
	_, err := Load()
	require.Error(t, err)
}

func TestSeconds_NonPositive(t *testing.T) {
	assert.Equal(t, time.Duration(0), seconds(0))
	assert.Equal(t, time.Duration(0), seconds(-4))
}
