package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tribe-fitness/internal/config"
	"tribe-fitness/internal/utils"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "tribe.db")
	cfg.Server.Port = "0"
	cfg.Server.JWTSecret = "secret"
	cfg.Timezone = "UTC"
	return cfg
}

func TestLifecycle(t *testing.T) {
	app, err := New(testConfig(t), nil)
	require.NoError(t, err)
	assert.Nil(t, app.bot, "telegram stays off without a token")
	assert.Len(t, app.cron.Entries(), 3)

	require.NoError(t, app.Start())

	app.state.LogWorkout(map[string]any{"kind": "swim", "minutes": 20})
	_, err = app.store.Redeem("protein-bar")
	require.Error(t, err)

	today := utils.DateKey(time.Now().UTC())
	workouts, err := app.services.Repository().GetWorkoutsBetween(today, today)
	require.NoError(t, err)
	require.Len(t, workouts, 1)
	assert.Equal(t, "swim", workouts[0].Kind)

	require.NoError(t, app.Stop())
	require.NoError(t, app.Stop(), "stop is idempotent")
	assert.NoError(t, app.Wait())
}

func TestUnknownProviderFails(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.Support.Provider = "carrier-pigeon"

	_, err := New(cfg, nil)
	assert.ErrorContains(t, err, "support assistant")
}

func TestUnsupportedLocaleFallsBack(t *testing.T) {
	cfg := testConfig(t)
	cfg.Locale = "xx"

	app, err := New(cfg, nil)
	require.NoError(t, err)
	defer app.Stop()
	assert.Equal(t, "en", string(app.locales.Current()))
}
