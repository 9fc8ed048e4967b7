package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("CFG_VALUE", "custom")
	assert.Equal(t, "custom", getEnv("CFG_VALUE", "default"))

	// Empty environment value should fall back to default
	t.Setenv("CFG_EMPTY", "")
	assert.Equal(t, "fallback", getEnv("CFG_EMPTY", "fallback"))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("CFG_INT", "15")
	assert.Equal(t, 15, getEnvInt("CFG_INT", 60))

	t.Setenv("CFG_INT", "soon")
	assert.Equal(t, 60, getEnvInt("CFG_INT", 60))

	t.Setenv("CFG_INT", "-3")
	assert.Equal(t, 60, getEnvInt("CFG_INT", 60))
}

func TestLoad(t *testing.T) {
	for _, key := range []string{
		"PORT", "APP_ENV", "DATABASE_URL", "LOG_LEVEL", "SEED",
		"OPENAI_API_KEY", "OPENAI_REPORT_MODEL", "OPENAI_TIMEOUT_SECONDS", "REPORT_FONT_DIR",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NotEmpty(t, cfg.DatabaseURL)
	assert.False(t, cfg.Seed)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIReportModel)
	assert.Equal(t, 60*time.Second, cfg.OpenAITimeout)
	assert.Empty(t, cfg.ReportFontDir)

	// Custom values override defaults
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SEED", "true")
	t.Setenv("OPENAI_API_KEY", "key")
	t.Setenv("OPENAI_REPORT_MODEL", "model")
	t.Setenv("OPENAI_TIMEOUT_SECONDS", "20")
	t.Setenv("REPORT_FONT_DIR", "/opt/fonts")

	cfg = Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "postgres://example", cfg.DatabaseURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Seed)
	assert.Equal(t, "key", cfg.OpenAIAPIKey)
	assert.Equal(t, "model", cfg.OpenAIReportModel)
	assert.Equal(t, 20*time.Second, cfg.OpenAITimeout)
	assert.Equal(t, "/opt/fonts", cfg.ReportFontDir)
}
