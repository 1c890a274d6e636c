package llm

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	llmclient "polyglotshift/internal/llm/client"
)

// ClientFactory builds a backend client scoped to exactly one Endpoint.
type ClientFactory func(ctx context.Context, ep Endpoint) (llmclient.LLMClient, error)

// FactoryOptions configure the clients built by NewClientFactory.
type FactoryOptions struct {
	Logger         *log.Logger
	MaxAttempts    int
	RetryBaseDelay time.Duration
	// HTTPTimeout bounds one HTTP exchange; 0 leaves it to the caller's context.
	HTTPTimeout   time.Duration
	GeminiBaseURL string
	// Offline swaps every backend for FakeClient.
	Offline bool
}

// NewClientFactory returns the production factory. Every call creates a new
// client so a per-request credential never leaks into another invocation.
func NewClientFactory(opts FactoryOptions) ClientFactory {
	mws := []Middleware{
		WithHooks(),
		WithLogging(opts.Logger),
		Retry(opts.MaxAttempts, opts.RetryBaseDelay),
	}
	return func(ctx context.Context, ep Endpoint) (llmclient.LLMClient, error) {
		if opts.Offline {
			return Wrap(NewFakeClient(), mws...), nil
		}
		var inner llmclient.LLMClient
		switch ep.Provider {
		case ProviderGemini:
			var hc *http.Client
			if opts.HTTPTimeout > 0 {
				hc = &http.Client{Timeout: opts.HTTPTimeout}
			}
			cli, err := llmclient.NewGeminiClient(ctx, ep.Credential.Key(), ep.Model, llmclient.GeminiOptions{
				BaseURL:    opts.GeminiBaseURL,
				HTTPClient: hc,
			})
			if err != nil {
				return nil, err
			}
			inner = cli
		case ProviderOllama:
			inner = llmclient.NewOllamaClient(ep.BaseURL, ep.Model, opts.HTTPTimeout)
		default:
			return nil, fmt.Errorf("%w: provider %q", ErrUnknownBackend, ep.Provider)
		}
		return Wrap(inner, mws...), nil
	}
}
