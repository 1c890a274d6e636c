package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polyglotshift/internal/llm"
	"polyglotshift/internal/orchestrator"
	"polyglotshift/internal/types"
)

var allKeys = []string{
	"PORT", "APP_ENV", "GEMINI_API_KEY", "GOOGLE_API_KEY", "GEMINI_MODEL", "LOCAL_MODEL",
	"OLLAMA_BASE_URL", "GEMINI_BASE_URL", "ANALYSIS_BACKEND", "JOIN_POLICY", "TASK_TIMEOUT",
	"LLM_MAX_ATTEMPTS", "LLM_RETRY_BASE_DELAY", "LLM_HTTP_TIMEOUT", "LLM_OFFLINE", "MAX_UPLOAD_BYTES",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, int64(4<<20), cfg.MaxUploadBytes)
	assert.Equal(t, llm.DefaultCloudModel, cfg.LLM.CloudModel)
	assert.Equal(t, llm.DefaultLocalModel, cfg.LLM.LocalModel)
	assert.Equal(t, llm.DefaultLocalBaseURL, cfg.LLM.OllamaBaseURL)
	assert.Equal(t, types.Cloud{}, cfg.LLM.AnalysisBackend)
	assert.Equal(t, orchestrator.AllOrNothing, cfg.LLM.JoinPolicy)
	assert.Zero(t, cfg.LLM.TaskTimeout)
	assert.Equal(t, 1, cfg.LLM.MaxAttempts)
	assert.False(t, cfg.LLM.Offline)
	assert.Empty(t, cfg.LLM.DefaultAPIKey)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("GOOGLE_API_KEY", "google-key")
	t.Setenv("ANALYSIS_BACKEND", "deepseek")
	t.Setenv("JOIN_POLICY", "partial")
	t.Setenv("TASK_TIMEOUT", "90s")
	t.Setenv("LLM_MAX_ATTEMPTS", "3")
	t.Setenv("LLM_OFFLINE", "true")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Port)
	assert.Equal(t, "google-key", cfg.LLM.DefaultAPIKey)
	assert.Equal(t, types.Local{}, cfg.LLM.AnalysisBackend)
	assert.Equal(t, orchestrator.Partial, cfg.LLM.JoinPolicy)
	assert.Equal(t, 90*time.Second, cfg.LLM.TaskTimeout)
	assert.Equal(t, 3, cfg.LLM.MaxAttempts)
	assert.True(t, cfg.LLM.Offline)
	assert.Equal(t, int64(1024), cfg.MaxUploadBytes)
}

func TestFromEnv_GeminiKeyWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("GOOGLE_API_KEY", "google-key")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "gemini-key", cfg.LLM.DefaultAPIKey)
	assert.Equal(t, "gemini-key", cfg.LLM.RouterConfig().DefaultCredential)
}

func TestFromEnv_Invalid(t *testing.T) {
	cases := map[string]string{
		"ANALYSIS_BACKEND": "gpt",
		"JOIN_POLICY":      "whatever",
		"TASK_TIMEOUT":     "soon",
		"LLM_MAX_ATTEMPTS": "0",
		"LLM_OFFLINE":      "maybe",
		"MAX_UPLOAD_BYTES": "lots",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLLMConfig_Views(t *testing.T) {
	clearEnv(t)
	t.Setenv("TASK_TIMEOUT", "5s")
	t.Setenv("LLM_MAX_ATTEMPTS", "2")
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.LLM.OrchestratorOptions().TaskTimeout)
	assert.Equal(t, 2, cfg.LLM.FactoryOptions().MaxAttempts)
	assert.Equal(t, llm.DefaultLocalBaseURL, cfg.LLM.RouterConfig().LocalBaseURL)
}
