package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"entropy/local-app/src/pkg/model"
)

func usePaths(t *testing.T) string {
	dir := t.TempDir()
	oldConfig, oldEnv := configPath, envPath
	t.Cleanup(func() {
		configPath, envPath = oldConfig, oldEnv
		currentConfig = nil
	})
	SetPath(filepath.Join(dir, "data", "config.json"))
	SetEnvFile(filepath.Join(dir, ".env"))
	return dir
}

func TestConfigLoadCreatesDefault(t *testing.T) {
	usePaths(t)

	require.NoError(t, ConfigLoad())
	cfg := ConfigGet()
	require.NotNil(t, cfg)
	assert.Equal(t, "entropy.db", cfg.DatabaseFile)
	assert.Equal(t, model.DefaultTemperature, cfg.LLM.Temperature)
	assert.FileExists(t, Path())
}

func TestConfigLoadFillsMissingFields(t *testing.T) {
	usePaths(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(Path()), 0755))
	require.NoError(t, os.WriteFile(Path(), []byte(`{"database_file":"mine.db","llm":{"temperature":1.2}}`), 0644))

	require.NoError(t, ConfigLoad())
	cfg := ConfigGet()
	assert.Equal(t, "mine.db", cfg.DatabaseFile)
	assert.Equal(t, "sqlite", cfg.DatabaseType)
	assert.Equal(t, 1.2, cfg.LLM.Temperature)
	assert.Equal(t, model.ProviderOpenAI, cfg.LLM.Provider)

	data, err := os.ReadFile(Path())
	require.NoError(t, err)
	var saved model.Config
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, "./logs", saved.LogFolder)
}

func TestConfigLoadEnvOverrides(t *testing.T) {
	dir := usePaths(t)
	t.Cleanup(func() { os.Unsetenv("ENTROPY_LLM_PROVIDER") })
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ENTROPY_LLM_PROVIDER=anthropic\n"), 0644))
	t.Setenv("ENTROPY_LOG_LEVEL", "debug")
	t.Setenv("ENTROPY_LLM_TEMPERATURE", "0.2")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	require.NoError(t, ConfigLoad())
	cfg := ConfigGet()
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 0.2, cfg.LLM.Temperature)
	assert.Equal(t, model.ProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.AnthropicAPIKey)

	// keys never reach the file
	data, err := os.ReadFile(Path())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sk-test")
}

func TestConfigLoadRejectsBadTemperature(t *testing.T) {
	usePaths(t)
	t.Setenv("ENTROPY_LLM_TEMPERATURE", "3")
	assert.Error(t, ConfigLoad())
}
