package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PREPDECK_JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "prepdeck.db", cfg.DB.Path)
	require.Equal(t, "info", cfg.Log.Level)
	require.True(t, cfg.Auth.Enabled)
	require.Equal(t, "openai", cfg.Model.Provider)
	require.Equal(t, "gpt-4o-mini", cfg.Model.Model)
	require.Equal(t, 30, cfg.Model.TimeoutSeconds)
	require.Equal(t, 3, cfg.Assessment.DefaultItemCount)
	require.Equal(t, "http", cfg.Transport.Mode)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PREPDECK_SERVER_HOST", "127.0.0.1")
	t.Setenv("PREPDECK_SERVER_PORT", "9090")
	t.Setenv("PREPDECK_CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("PREPDECK_DB_PATH", "/tmp/test.db")
	t.Setenv("PREPDECK_LOG_LEVEL", "debug")
	t.Setenv("PREPDECK_JWT_SECRET", "test-secret")
	t.Setenv("PREPDECK_MODEL_PROVIDER", "gemini")
	t.Setenv("PREPDECK_MODEL_NAME", "gemini-1.5-flash")
	t.Setenv("PREPDECK_MODEL_TIMEOUT_SECONDS", "15")
	t.Setenv("PREPDECK_DEFAULT_ITEM_COUNT", "5")
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1", cfg.Server.Host)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	require.Equal(t, "/tmp/test.db", cfg.DB.Path)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "gemini", cfg.Model.Provider)
	require.Equal(t, "gemini-1.5-flash", cfg.Model.Model)
	require.Equal(t, 15, cfg.Model.TimeoutSeconds)
	require.Equal(t, 5, cfg.Assessment.DefaultItemCount)
	require.Equal(t, "gemini-key", cfg.Model.APIKey)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: 7070
auth:
  enabled: false
model:
  provider: gemini
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	t.Setenv("PREPDECK_CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 7070, cfg.Server.Port)
	require.False(t, cfg.Auth.Enabled)
	require.Equal(t, "gemini", cfg.Model.Provider)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7070\n"), 0o600))
	t.Setenv("PREPDECK_CONFIG_PATH", path)
	t.Setenv("PREPDECK_SERVER_PORT", "6060")
	t.Setenv("PREPDECK_JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 6060, cfg.Server.Port)
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("PREPDECK_SERVER_PORT", "not-a-number")
	t.Setenv("PREPDECK_JWT_SECRET", "test-secret")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_MissingSecretWithAuth(t *testing.T) {
	t.Setenv("PREPDECK_AUTH_ENABLED", "true")
	t.Setenv("PREPDECK_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_StdioSkipsSecretCheck(t *testing.T) {
	t.Setenv("PREPDECK_TRANSPORT_MODE", "stdio")
	t.Setenv("PREPDECK_JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "stdio", cfg.Transport.Mode)
}
