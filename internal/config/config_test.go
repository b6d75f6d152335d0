package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Runs)
	assert.Equal(t, 1000, cfg.DelayBetweenRunsMs)
	assert.False(t, cfg.FailFast)
	assert.False(t, cfg.Verbose)
	assert.True(t, cfg.OutlierDetection)

	assert.False(t, cfg.Providers.Sandkasten.Enabled)
	assert.Equal(t, "http://127.0.0.1:8080", cfg.Providers.Sandkasten.Host)
	assert.Equal(t, 300, cfg.Providers.Sandkasten.TTLSeconds)

	assert.True(t, cfg.Providers.Docker.Enabled)
	assert.Equal(t, "python:3.12-slim", cfg.Providers.Docker.Image)
	assert.Equal(t, 512, cfg.Providers.Docker.MemLimitMB)

	assert.False(t, cfg.Providers.E2B.Enabled)
	assert.Equal(t, "https://api.e2b.dev", cfg.Providers.E2B.BaseURL)
	assert.Equal(t, "base", cfg.Providers.E2B.Template)
}

func TestLoadYAML(t *testing.T) {
	yamlContent := `
runs: 10
delay_between_runs_ms: 250
fail_fast: true
verbose: true
providers:
  sandkasten:
    enabled: true
    host: "http://sandbox.internal:9090"
    api_key: "sk-test"
    image: "sandbox-runtime:python"
  docker:
    enabled: false
  e2b:
    enabled: true
    api_key: "e2b-test"
    template: "code-interpreter"
`
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "sandmark.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlContent), 0644))

	cfg, err := Load(yamlPath)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Runs)
	assert.Equal(t, 250, cfg.DelayBetweenRunsMs)
	assert.True(t, cfg.FailFast)
	assert.True(t, cfg.Verbose)

	assert.True(t, cfg.Providers.Sandkasten.Enabled)
	assert.Equal(t, "http://sandbox.internal:9090", cfg.Providers.Sandkasten.Host)
	assert.Equal(t, "sk-test", cfg.Providers.Sandkasten.APIKey)
	assert.Equal(t, "sandbox-runtime:python", cfg.Providers.Sandkasten.Image)
	assert.False(t, cfg.Providers.Docker.Enabled)
	assert.True(t, cfg.Providers.E2B.Enabled)
	assert.Equal(t, "code-interpreter", cfg.Providers.E2B.Template)
}

func TestLoadYAMLMissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/sandmark.yaml")
	// Non-existent file is not an error (silently uses defaults)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Runs)
}

func TestLoadYAMLInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "bad.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("{{{{invalid yaml"), 0644))

	_, err := Load(yamlPath)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SANDMARK_RUNS", "3")
	t.Setenv("SANDMARK_DELAY_MS", "0")
	t.Setenv("SANDMARK_FAIL_FAST", "true")
	t.Setenv("SANDMARK_VERBOSE", "true")
	t.Setenv("SANDMARK_OUTLIER_DETECTION", "false")
	t.Setenv("SANDMARK_SANDKASTEN_HOST", "http://10.0.0.5:8080")
	t.Setenv("SANDMARK_SANDKASTEN_API_KEY", "env-key")
	t.Setenv("SANDMARK_DOCKER_IMAGE", "alpine:3.20")
	t.Setenv("SANDMARK_E2B_API_KEY", "e2b-env-key")
	t.Setenv("SANDMARK_E2B_BASE_URL", "https://api.e2b.example")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Runs)
	assert.Equal(t, 0, cfg.DelayBetweenRunsMs)
	assert.True(t, cfg.FailFast)
	assert.True(t, cfg.Verbose)
	assert.False(t, cfg.OutlierDetection)
	assert.Equal(t, "http://10.0.0.5:8080", cfg.Providers.Sandkasten.Host)
	assert.Equal(t, "env-key", cfg.Providers.Sandkasten.APIKey)
	assert.Equal(t, "alpine:3.20", cfg.Providers.Docker.Image)
	assert.Equal(t, "e2b-env-key", cfg.Providers.E2B.APIKey)
	assert.Equal(t, "https://api.e2b.example", cfg.Providers.E2B.BaseURL)
}

func TestEnvOverridesYAML(t *testing.T) {
	yamlContent := `
runs: 7
providers:
  sandkasten:
    api_key: "yaml-key"
`
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "sandmark.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlContent), 0644))

	t.Setenv("SANDMARK_SANDKASTEN_API_KEY", "env-key")

	cfg, err := Load(yamlPath)
	require.NoError(t, err)

	// Env should override YAML
	assert.Equal(t, "env-key", cfg.Providers.Sandkasten.APIKey)
	// YAML value should be preserved for non-overridden fields
	assert.Equal(t, 7, cfg.Runs)
}

func TestProviderEnvFallbackKeys(t *testing.T) {
	t.Setenv("SANDKASTEN_API_KEY", "daemon-key")
	t.Setenv("E2B_API_KEY", "cloud-key")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "daemon-key", cfg.Providers.Sandkasten.APIKey)
	assert.Equal(t, "cloud-key", cfg.Providers.E2B.APIKey)
}

func TestEnvOverrideInvalidValues(t *testing.T) {
	t.Setenv("SANDMARK_RUNS", "not-a-number")
	t.Setenv("SANDMARK_FAIL_FAST", "not-a-bool")

	cfg, err := Load("")
	require.NoError(t, err)

	// Invalid values should be silently ignored, keeping defaults
	assert.Equal(t, 5, cfg.Runs)
	assert.False(t, cfg.FailFast)
}
