package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"polyglotshift/internal/llm"
	"polyglotshift/internal/orchestrator"
	"polyglotshift/internal/types"
)

const defaultMaxUploadBytes = 4 << 20

// Config is read once at startup and never mutated afterwards.
type Config struct {
	Port string
	Env  string
	LLM  LLMConfig
	// MaxUploadBytes caps the multipart body of /api/process.
	MaxUploadBytes int64
}

type LLMConfig struct {
	// DefaultAPIKey authorizes Cloud calls that carry no per-request key.
	DefaultAPIKey   string
	CloudModel      string
	LocalModel      string
	OllamaBaseURL   string
	GeminiBaseURL   string
	AnalysisBackend types.Backend
	JoinPolicy      orchestrator.JoinPolicy
	TaskTimeout     time.Duration
	MaxAttempts     int
	RetryBaseDelay  time.Duration
	HTTPTimeout     time.Duration
	Offline         bool
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the Config from the process environment only.
func FromEnv() (*Config, error) {
	env := firstNonEmpty(strings.TrimSpace(os.Getenv("APP_ENV")), "local")

	port := firstNonEmpty(strings.TrimSpace(os.Getenv("PORT")), ":8080")
	if !strings.HasPrefix(port, ":") && !strings.Contains(port, ":") {
		port = ":" + port
	}

	llmCfg, err := loadLLMConfig()
	if err != nil {
		return nil, err
	}

	maxUpload, err := envInt64("MAX_UPLOAD_BYTES", defaultMaxUploadBytes)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:           port,
		Env:            env,
		LLM:            llmCfg,
		MaxUploadBytes: maxUpload,
	}, nil
}

func loadLLMConfig() (LLMConfig, error) {
	cfg := LLMConfig{
		DefaultAPIKey: firstNonEmpty(strings.TrimSpace(os.Getenv("GEMINI_API_KEY")), strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))),
		CloudModel:    firstNonEmpty(strings.TrimSpace(os.Getenv("GEMINI_MODEL")), llm.DefaultCloudModel),
		LocalModel:    firstNonEmpty(strings.TrimSpace(os.Getenv("LOCAL_MODEL")), llm.DefaultLocalModel),
		OllamaBaseURL: firstNonEmpty(strings.TrimSpace(os.Getenv("OLLAMA_BASE_URL")), llm.DefaultLocalBaseURL),
		GeminiBaseURL: strings.TrimSpace(os.Getenv("GEMINI_BASE_URL")),
	}

	analysis := firstNonEmpty(strings.TrimSpace(os.Getenv("ANALYSIS_BACKEND")), "gemini")
	backend, err := types.ParseBackend(analysis, "")
	if err != nil {
		return cfg, fmt.Errorf("config: ANALYSIS_BACKEND: %w", err)
	}
	cfg.AnalysisBackend = backend

	policy, err := orchestrator.ParseJoinPolicy(os.Getenv("JOIN_POLICY"))
	if err != nil {
		return cfg, fmt.Errorf("config: JOIN_POLICY: %w", err)
	}
	cfg.JoinPolicy = policy

	if cfg.TaskTimeout, err = envDuration("TASK_TIMEOUT", 0); err != nil {
		return cfg, err
	}
	if cfg.RetryBaseDelay, err = envDuration("LLM_RETRY_BASE_DELAY", 300*time.Millisecond); err != nil {
		return cfg, err
	}
	if cfg.HTTPTimeout, err = envDuration("LLM_HTTP_TIMEOUT", 0); err != nil {
		return cfg, err
	}
	attempts, err := envInt64("LLM_MAX_ATTEMPTS", 1)
	if err != nil {
		return cfg, err
	}
	if attempts < 1 {
		return cfg, fmt.Errorf("config: LLM_MAX_ATTEMPTS must be >= 1, got %d", attempts)
	}
	cfg.MaxAttempts = int(attempts)
	if cfg.Offline, err = envBool("LLM_OFFLINE", false); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// RouterConfig is the routing view of the LLM settings.
func (c LLMConfig) RouterConfig() llm.RouterConfig {
	return llm.RouterConfig{
		DefaultCredential: c.DefaultAPIKey,
		CloudModel:        c.CloudModel,
		LocalModel:        c.LocalModel,
		LocalBaseURL:      c.OllamaBaseURL,
	}
}

// FactoryOptions is the client-construction view of the LLM settings.
func (c LLMConfig) FactoryOptions() llm.FactoryOptions {
	return llm.FactoryOptions{
		MaxAttempts:    c.MaxAttempts,
		RetryBaseDelay: c.RetryBaseDelay,
		HTTPTimeout:    c.HTTPTimeout,
		GeminiBaseURL:  c.GeminiBaseURL,
		Offline:        c.Offline,
	}
}

// OrchestratorOptions is the join/routing view of the LLM settings.
func (c LLMConfig) OrchestratorOptions() orchestrator.Options {
	return orchestrator.Options{
		AnalysisBackend: c.AnalysisBackend,
		Policy:          c.JoinPolicy,
		TaskTimeout:     c.TaskTimeout,
	}
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: %s must not be negative", key)
	}
	return d, nil
}

func envInt64(key string, def int64) (int64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return v, nil
}

func envBool(key string, def bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return v, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
