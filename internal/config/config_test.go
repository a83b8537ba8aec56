package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFrom(t *testing.T, dir string) (*Config, error) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return Load()
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadFrom(t, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "Balanced", cfg.Run.Profile)
	assert.Equal(t, 1000, cfg.Run.Target)
	assert.Equal(t, 60, cfg.Run.TimeoutSecs)
	assert.Equal(t, "data-is-better-together/10k_prompts_ranked", cfg.Source.Dataset)
	assert.Equal(t, "prompts_cache.jsonl", cfg.Source.CachePath)
	assert.Equal(t, "jsonl", cfg.Sink.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ROUTERBENCH_RUN_PROFILE", "Quality")
	t.Setenv("ROUTERBENCH_RUN_TARGET", "50")
	t.Setenv("ROUTERBENCH_AZURE_ENDPOINT", "https://example.openai.azure.com")

	cfg, err := loadFrom(t, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "Quality", cfg.Run.Profile)
	assert.Equal(t, 50, cfg.Run.Target)
	assert.Equal(t, "https://example.openai.azure.com", cfg.Azure.Endpoint)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(dir+"/config.yaml", []byte(
		"run:\n  profile: Cost\nsink:\n  driver: sqlite\n  database_url: results.db\n"), 0o644))

	cfg, err := loadFrom(t, dir)
	require.NoError(t, err)

	assert.Equal(t, "Cost", cfg.Run.Profile)
	assert.Equal(t, "sqlite", cfg.Sink.Driver)
	assert.Equal(t, "results.db", cfg.Sink.DatabaseURL)
}

func TestValidateMissingSettings(t *testing.T) {
	cfg := &Config{Run: RunConfig{Target: 1000}}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "azure.endpoint")
	assert.Contains(t, err.Error(), "azure.api_key")
	assert.Contains(t, err.Error(), "azure.deployment")
}

func TestValidateComplete(t *testing.T) {
	cfg := &Config{
		Azure: AzureConfig{
			Endpoint:   "https://example.openai.azure.com",
			APIKey:     "key",
			Deployment: "model-router",
			APIVersion: "2024-12-01-preview",
		},
		Run: RunConfig{Target: 1000},
	}
	assert.NoError(t, cfg.Validate())
}

func TestValidateBadTarget(t *testing.T) {
	cfg := &Config{
		Azure: AzureConfig{
			Endpoint:   "e",
			APIKey:     "k",
			Deployment: "d",
			APIVersion: "v",
		},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run.target")
}
