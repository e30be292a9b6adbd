package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOverrides(t *testing.T) {
	t.Run("TG_CHAT_ID is parsed", func(t *testing.T) {
		t.Setenv("TG_TOKEN", "tg-token")
		t.Setenv("TG_CHAT_ID", "42")

		cfg := Default()
		require.NoError(t, cfg.applyEnvOverrides())

		assert.Equal(t, "tg-token", cfg.Telegram.Token)
		assert.Equal(t, int64(42), cfg.Telegram.ChatID)
		assert.True(t, cfg.TelegramEnabled())
	})

	t.Run("invalid TG_CHAT_ID fails", func(t *testing.T) {
		t.Setenv("TG_CHAT_ID", "not-a-number")

		cfg := Default()
		assert.Error(t, cfg.applyEnvOverrides())
	})

	t.Run("provider keys go to their assistants", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "oa-key")
		t.Setenv("SUPPORT_LLM_API_KEY", "sup-key")

		cfg := Default()
		require.NoError(t, cfg.applyEnvOverrides())

		assert.Equal(t, "oa-key", cfg.LLM.Fitness.APIKey)
		assert.Equal(t, "sup-key", cfg.LLM.Support.APIKey)
		assert.Equal(t, "openai", cfg.LLM.Fitness.Provider)
		assert.Equal(t, "http", cfg.LLM.Support.Provider)
	})

	t.Run("sensor flags", func(t *testing.T) {
		t.Setenv("SENSOR_LOCATION", "false")
		t.Setenv("SENSOR_STEPS", "garbage")

		cfg := Default()
		require.NoError(t, cfg.applyEnvOverrides())

		assert.False(t, cfg.Sensors.Location)
		assert.True(t, cfg.Sensors.Steps)
	})
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tribe.yaml")
	content := `
server:
  port: "9090"
database:
  path: /tmp/tribe-test.db
llm:
  support:
    provider: openai
    model: gpt-4o
    timeout: 5s
locale: es
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := Default()
	require.NoError(t, cfg.loadFile(path))

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "/tmp/tribe-test.db", cfg.Database.Path)
	assert.Equal(t, "openai", cfg.LLM.Support.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.Support.Model)
	assert.Equal(t, 5*time.Second, cfg.LLM.Support.Timeout)
	assert.Equal(t, "es", cfg.Locale)
	// untouched defaults survive
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Fitness.Model)
}

func TestLoadFileMissing(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.loadFile(filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestLocation(t *testing.T) {
	cfg := Default()
	cfg.Timezone = "Europe/Madrid"
	assert.Equal(t, "Europe/Madrid", cfg.Location().String())

	cfg.Timezone = "Not/AZone"
	assert.Equal(t, time.UTC, cfg.Location())
}
