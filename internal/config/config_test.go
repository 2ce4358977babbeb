package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"APP_PORT", "DATABASE_URL", "DB_CONNECTION_STRING", "LLM_PROVIDER", "LLM_MODEL", "GROQ_MODEL", "SCHEMA_CACHE_TTL", "OTEL_ENABLED"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, "8000", cfg.App.Port)
	assert.Equal(t, "groq", cfg.Ai.LLMProvider)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.Ai.LLMModel)
	assert.Equal(t, 10*time.Minute, cfg.Cache.SchemaTTL)
	assert.False(t, cfg.Telemetry.OtelEnabled)
	assert.False(t, cfg.IsProduction())
}

func TestLoadAliases(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_CONNECTION_STRING", "postgres://alias")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("SCHEMA_CACHE_TTL", "90s")

	cfg := Load()

	assert.Equal(t, "postgres://alias", cfg.Database.Connection)
	assert.Equal(t, "gsk_test", cfg.Ai.LLMAPIKey)
	assert.Equal(t, 90*time.Second, cfg.Cache.SchemaTTL)

	t.Setenv("DATABASE_URL", "postgres://primary")
	assert.Equal(t, "postgres://primary", Load().Database.Connection)
}
