package llm

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	llmclient "polyglotshift/internal/llm/client"
	"polyglotshift/internal/types"
)

const (
	DefaultCloudModel   = "gemini-2.0-flash"
	DefaultLocalModel   = "deepseek-coder:33b-instruct"
	DefaultLocalBaseURL = "http://localhost:11434"
)

var ErrUnknownBackend = errors.New("llm: unknown backend")

// Provider names the client implementation an Endpoint needs.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOllama Provider = "ollama"
)

// CredentialSource records where an endpoint's credential came from.
type CredentialSource string

const (
	CredentialNone    CredentialSource = "none"
	CredentialDefault CredentialSource = "default"
	CredentialRequest CredentialSource = "request"
)

// CredentialScope is the credential that authorizes one call.
type CredentialScope struct {
	Source CredentialSource
	key    string
}

// Key returns the raw credential. Never log it; use Redacted.
func (c CredentialScope) Key() string { return c.key }

// Redacted is safe for logs: the source and the last four characters.
func (c CredentialScope) Redacted() string {
	if c.key == "" {
		return string(c.Source)
	}
	tail := c.key
	if len(tail) > 4 {
		tail = tail[len(tail)-4:]
	}
	return fmt.Sprintf("%s:…%s", c.Source, tail)
}

// Endpoint is the resolved, per-invocation configuration for one backend call.
// Each Resolve returns a fresh value; endpoints are never shared or cached.
type Endpoint struct {
	Provider   Provider
	Model      string
	BaseURL    string
	Config     llmclient.InvocationConfig
	Credential CredentialScope
}

// RouterConfig is the process-wide routing configuration. It is copied into
// the Router at construction and never changed afterwards.
type RouterConfig struct {
	DefaultCredential string
	CloudModel        string
	LocalModel        string
	LocalBaseURL      string
	CloudSafety       []llmclient.SafetySetting
	Temperature       *float32
}

// DefaultCloudSafety mirrors the thresholds the conversion prompt needs:
// source code routinely trips the dangerous-content filter.
func DefaultCloudSafety() []llmclient.SafetySetting {
	return []llmclient.SafetySetting{
		{Category: llmclient.HarmCategoryDangerousContent, Threshold: llmclient.HarmThresholdBlockNone},
		{Category: llmclient.HarmCategoryHarassment, Threshold: llmclient.HarmThresholdBlockOnlyHigh},
	}
}

// Router turns a backend selection into an Endpoint. It performs no I/O.
type Router struct {
	cfg RouterConfig
}

func NewRouter(cfg RouterConfig) *Router {
	if strings.TrimSpace(cfg.CloudModel) == "" {
		cfg.CloudModel = DefaultCloudModel
	}
	if strings.TrimSpace(cfg.LocalModel) == "" {
		cfg.LocalModel = DefaultLocalModel
	}
	if strings.TrimSpace(cfg.LocalBaseURL) == "" {
		cfg.LocalBaseURL = DefaultLocalBaseURL
	}
	if cfg.CloudSafety == nil {
		cfg.CloudSafety = DefaultCloudSafety()
	}
	cfg.CloudSafety = slices.Clone(cfg.CloudSafety)
	cfg.Temperature = copyFloat(cfg.Temperature)
	return &Router{cfg: cfg}
}

// Resolve maps a backend variant to a fresh Endpoint.
func (r *Router) Resolve(b types.Backend) (Endpoint, error) {
	switch b := b.(type) {
	case types.Cloud:
		scope := CredentialScope{Source: CredentialNone}
		switch {
		case strings.TrimSpace(b.Credential) != "":
			scope = CredentialScope{Source: CredentialRequest, key: strings.TrimSpace(b.Credential)}
		case strings.TrimSpace(r.cfg.DefaultCredential) != "":
			scope = CredentialScope{Source: CredentialDefault, key: strings.TrimSpace(r.cfg.DefaultCredential)}
		}
		return Endpoint{
			Provider: ProviderGemini,
			Model:    r.cfg.CloudModel,
			Config: llmclient.InvocationConfig{
				SafetySettings:   slices.Clone(r.cfg.CloudSafety),
				StructuredOutput: true,
				Temperature:      copyFloat(r.cfg.Temperature),
			},
			Credential: scope,
		}, nil
	case types.Local:
		return Endpoint{
			Provider: ProviderOllama,
			Model:    r.cfg.LocalModel,
			BaseURL:  r.cfg.LocalBaseURL,
			Config: llmclient.InvocationConfig{
				StructuredOutput: true,
				Temperature:      copyFloat(r.cfg.Temperature),
			},
			Credential: CredentialScope{Source: CredentialNone},
		}, nil
	default:
		return Endpoint{}, fmt.Errorf("%w: %T", ErrUnknownBackend, b)
	}
}

func copyFloat(p *float32) *float32 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
