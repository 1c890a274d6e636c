package executor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"polyglotshift/internal/llm"
	llmclient "polyglotshift/internal/llm/client"
	"polyglotshift/internal/task"
)

// FailureKind classifies why one task invocation failed.
type FailureKind string

const (
	BackendUnavailable FailureKind = "backend_unavailable"
	InvalidOutput      FailureKind = "invalid_output"
	CredentialError    FailureKind = "credential"
)

// Failure is a task failure carried as a value.
type Failure struct {
	Kind   FailureKind
	Reason string
	// Provider is the backend that failed; empty when routing itself failed.
	Provider llm.Provider
	Err      error
}

func (f *Failure) Error() string { return fmt.Sprintf("%s: %s", f.Kind, f.Reason) }
func (f *Failure) Unwrap() error { return f.Err }

// Result holds either the typed output or a Failure, never both.
type Result[T any] struct {
	Output  T
	Failure *Failure
}

func (r Result[T]) OK() bool { return r.Failure == nil }

// Executor runs one contract against one resolved endpoint per call. It keeps
// no per-call state and is safe for concurrent use.
type Executor struct {
	factory llm.ClientFactory
	timeout time.Duration
	log     *log.Logger
}

// New returns an Executor. timeout bounds each invocation; 0 means unbounded.
func New(factory llm.ClientFactory, timeout time.Duration, logger *log.Logger) *Executor {
	if logger == nil {
		logger = log.Default()
	}
	return &Executor{factory: factory, timeout: timeout, log: logger}
}

// Execute renders the prompt, performs exactly one backend call and decodes
// the answer. Errors never escape: they come back as Result.Failure.
func Execute[In, Out any](ctx context.Context, e *Executor, c task.Contract[In, Out], in In, ep llm.Endpoint) Result[Out] {
	start := time.Now()
	res := run(ctx, e, c, in, ep)
	outcome := "ok"
	if res.Failure != nil {
		res.Failure.Provider = ep.Provider
		outcome = string(res.Failure.Kind)
	}
	e.log.Printf("executor: task=%s provider=%s model=%s credential=%s took=%s outcome=%s",
		c.Name(), ep.Provider, ep.Model, ep.Credential.Redacted(), time.Since(start).Round(time.Millisecond), outcome)
	return res
}

func run[In, Out any](ctx context.Context, e *Executor, c task.Contract[In, Out], in In, ep llm.Endpoint) Result[Out] {
	prompt := c.Render(in)

	ctx = llm.WithPhase(ctx, c.Name())
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cli, err := e.factory(ctx, ep)
	if err != nil {
		return Result[Out]{Failure: classify(err)}
	}
	defer cli.Close()

	schema := c.Schema()
	if !ep.Config.StructuredOutput {
		schema = nil
	}
	raw, err := cli.GenerateJSON(ctx, prompt, ep.Config, schema)
	if err != nil {
		return Result[Out]{Failure: classify(err)}
	}
	out, err := c.Decode(raw)
	if err != nil {
		return Result[Out]{Failure: &Failure{Kind: InvalidOutput, Reason: err.Error(), Err: err}}
	}
	return Result[Out]{Output: out}
}

func classify(err error) *Failure {
	switch {
	case errors.Is(err, llmclient.ErrCredential):
		return &Failure{Kind: CredentialError, Reason: strings.TrimSpace(err.Error()), Err: err}
	case errors.Is(err, llmclient.ErrInvalidJSON), errors.Is(err, task.ErrInvalidOutput):
		return &Failure{Kind: InvalidOutput, Reason: err.Error(), Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &Failure{Kind: BackendUnavailable, Reason: "backend did not answer in time", Err: err}
	default:
		return &Failure{Kind: BackendUnavailable, Reason: err.Error(), Err: err}
	}
}
