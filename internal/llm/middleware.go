package llm

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/invopop/jsonschema"

	llmclient "polyglotshift/internal/llm/client"
)

// Middleware decorates an LLMClient to inject cross-cutting concerns
// (retries, logging, hooks).
type Middleware func(llmclient.LLMClient) llmclient.LLMClient

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner llmclient.LLMClient, mws ...Middleware) llmclient.LLMClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		out = mws[i](out)
	}
	return out
}

// -------- Logging & Hooks --------

// WithLogging logs request size, latency and errors. Provide a custom logger
// or nil to use log.Default(). Prompts and credentials are never logged.
func WithLogging(logger *log.Logger) Middleware {
	if logger == nil {
		logger = log.Default()
	}
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next llmclient.LLMClient
	log  *log.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }

func (l *logging) GenerateJSON(ctx context.Context, prompt string, cfg llmclient.InvocationConfig, schema *jsonschema.Schema) (json.RawMessage, error) {
	phase := PhaseFrom(ctx)
	l.log.Printf("LLM request (%s via %s): %d bytes", phase, l.next.Name(), len(prompt))
	start := time.Now()
	raw, err := l.next.GenerateJSON(ctx, prompt, cfg, schema)
	if err != nil {
		l.log.Printf("LLM error (%s) after %s: %v", phase, time.Since(start).Round(time.Millisecond), err)
		return nil, err
	}
	l.log.Printf("LLM response (%s) in %s: %d bytes", phase, time.Since(start).Round(time.Millisecond), len(raw))
	return raw, nil
}

// WithHooks calls HookFrom(ctx).Before/After around GenerateJSON.
// If no hook is present in the context, it is a no-op.
func WithHooks() Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &hooked{next: next}
	}
}

type hooked struct{ next llmclient.LLMClient }

func (h *hooked) Name() string { return h.next.Name() }
func (h *hooked) Close() error { return h.next.Close() }

func (h *hooked) GenerateJSON(ctx context.Context, prompt string, cfg llmclient.InvocationConfig, schema *jsonschema.Schema) (json.RawMessage, error) {
	hook := HookFrom(ctx)
	if hook != nil {
		hook.Before(ctx, PhaseFrom(ctx), prompt)
	}
	raw, err := h.next.GenerateJSON(ctx, prompt, cfg, schema)
	if hook != nil {
		hook.After(ctx, PhaseFrom(ctx), raw, err)
	}
	return raw, err
}
