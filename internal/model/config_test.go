package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearAPIEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TODOSYNC_API_BASE", "")
	t.Setenv("TODO_API_BASE", "")
	os.Unsetenv("TODOSYNC_API_BASE")
	os.Unsetenv("TODO_API_BASE")
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	clearAPIEnv(t)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, 30, cfg.API.TimeoutSec)
	assert.Equal(t, 0, cfg.API.MaxRetries)
	assert.Equal(t, ToggleBlind, cfg.Sync.ToggleMode)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Display.ShowBody)
}

func TestLoadConfigReadsYAML(t *testing.T) {
	clearAPIEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `api:
  base_url: http://todo.internal:9000
  timeout_sec: 5
sync:
  toggle_mode: rollback
display:
  show_body: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://todo.internal:9000", cfg.API.BaseURL)
	assert.Equal(t, 5, cfg.API.TimeoutSec)
	assert.Equal(t, ToggleRollback, cfg.Sync.ToggleMode)
	assert.False(t, cfg.Display.ShowBody)
	// Unset keys keep their defaults.
	assert.True(t, cfg.Display.ShowTimestamps)
}

func TestLoadConfigEnvOverridesBaseURL(t *testing.T) {
	clearAPIEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: http://file\n"), 0o644))

	t.Setenv("TODO_API_BASE", "http://from-env:8081")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:8081", cfg.API.BaseURL)

	t.Setenv("TODOSYNC_API_BASE", "http://preferred:8082")
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://preferred:8082", cfg.API.BaseURL)
}

func TestLoadConfigRejectsUnknownToggleMode(t *testing.T) {
	clearAPIEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sync:\n  toggle_mode: eventually\n"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "toggle_mode")
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	clearAPIEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unclosed\n"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	clearAPIEnv(t)

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	want := &AppConfig{
		API:     APIConfig{BaseURL: "http://saved:1234", TimeoutSec: 12, MaxRetries: 2},
		Sync:    SyncConfig{ToggleMode: ToggleConfirmed},
		Log:     LogConfig{Level: "debug", File: "/tmp/todosync.log"},
		Display: DisplayConfig{ShowBody: false, ShowTimestamps: true},
	}
	require.NoError(t, SaveConfig(path, want))

	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
