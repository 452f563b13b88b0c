package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "sqlite3", cfg.DatabaseDriver)
	assert.Equal(t, "gpt-4o-mini", cfg.ChatModel)
	assert.Equal(t, 8, cfg.HistoryLimit)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.OCRAPIKey)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("HISTORY_LIMIT", "10")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173, https://tutor.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, 10, cfg.HistoryLimit)
	assert.Equal(t, []string{"http://localhost:5173", "https://tutor.example.com"}, cfg.AllowedOrigins)
}

func TestLoadRequiredValues(t *testing.T) {
	t.Run("missing jwt secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		t.Setenv("OPENAI_API_KEY", "sk-test")
		_, err := Load()
		assert.ErrorContains(t, err, "JWT_SECRET")
	})

	t.Run("missing openai key", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("OPENAI_API_KEY", "")
		_, err := Load()
		assert.ErrorContains(t, err, "OPENAI_API_KEY")
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("OPENAI_API_KEY", "sk-test")
		t.Setenv("DATABASE_DRIVER", "mysql")
		_, err := Load()
		assert.ErrorContains(t, err, "DATABASE_DRIVER")
	})
}
