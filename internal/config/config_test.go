package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "environment: test\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 0.3, cfg.LLM.Temperature)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 4, cfg.Server.Workers)
	assert.Equal(t, 210*time.Second, cfg.UploadBudget())
	assert.Greater(t, cfg.Server.WriteTimeout, cfg.UploadBudget())
	assert.Equal(t, "./call_auditor.db", cfg.Storage.DatabaseURL)
	assert.Equal(t, 30, cfg.Storage.RetentionDays)
	assert.Equal(t, "@hourly", cfg.Scheduler.RetentionSpec)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
llm:
  provider: gemini
  model: gemini-1.5-flash
  timeout: 15s
server:
  port: 9000
kafka:
  brokers: ["k1:9092", "k2:9092"]
`)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/calls")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gemini-1.5-flash", cfg.LLM.Model)
	assert.Equal(t, 15*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "sk-test", cfg.Transcription.APIKey)
	assert.Equal(t, "postgres://u:p@localhost/calls", cfg.Storage.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoadMockFlags(t *testing.T) {
	path := writeConfig(t, "")
	t.Setenv("USE_MOCK_LLM", "true")
	t.Setenv("USE_MOCK_TRANSCRIBE", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.True(t, cfg.Transcription.Mock)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	path := writeConfig(t, "llm:\n  provider: carrier-pigeon\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "unsupported llm provider")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsWriteTimeoutBelowUploadBudget(t *testing.T) {
	path := writeConfig(t, "server:\n  write_timeout: 120s\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "upload budget")
}

func TestUploadBudgetWithMockTranscription(t *testing.T) {
	path := writeConfig(t, "server:\n  write_timeout: 90s\n  workers: 8\ntranscription:\n  mock: true\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, cfg.UploadBudget())
	assert.Equal(t, 8, cfg.Server.Workers)
}
