package orchestrator

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"polyglotshift/internal/executor"
	"polyglotshift/internal/llm"
	"polyglotshift/internal/task"
	"polyglotshift/internal/types"
)

// Options is the per-process orchestration configuration.
type Options struct {
	// AnalysisBackend serves summarize, analyze_structure and generate_diagrams.
	// Translation always uses the backend from the request. Nil means Cloud
	// with the router's default credential.
	AnalysisBackend types.Backend
	Policy          JoinPolicy
	// TaskTimeout bounds each task invocation; 0 waits indefinitely.
	TaskTimeout time.Duration
}

// Orchestrator validates a request, runs the four tasks concurrently and
// joins their results. It holds only immutable configuration.
type Orchestrator struct {
	router *llm.Router
	exec   *executor.Executor
	opts   Options
	log    *log.Logger
}

func New(router *llm.Router, factory llm.ClientFactory, opts Options, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	if opts.AnalysisBackend == nil {
		opts.AnalysisBackend = types.Cloud{}
	}
	if opts.Policy == "" {
		opts.Policy = AllOrNothing
	}
	return &Orchestrator{
		router: router,
		exec:   executor.New(factory, opts.TaskTimeout, logger),
		opts:   opts,
		log:    logger,
	}
}

// Process runs one request to completion.
func (o *Orchestrator) Process(ctx context.Context, raw types.RawRequest) types.Response {
	return o.ProcessWithObserver(ctx, raw, nil)
}

// ProcessWithObserver is Process with progress callbacks.
func (o *Orchestrator) ProcessWithObserver(ctx context.Context, raw types.RawRequest, obs Observer) types.Response {
	if obs == nil {
		obs = nopObserver{}
	}

	obs.OnState(StateValidating)
	req, err := types.ParseRequest(raw)
	if err != nil {
		o.log.Printf("orchestrator: rejected request: %v", err)
		return types.Response{Error: err.Error(), ErrorKind: types.ErrorKindValidation}
	}

	obs.OnState(StateRunning)
	o.log.Printf("orchestrator: running dialect=%s backend=%s analysis=%s bytes=%d",
		req.Dialect, req.Backend.WireName(), o.opts.AnalysisBackend.WireName(), len(req.Code))

	// Tasks outlive a disconnected caller; only TaskTimeout bounds them.
	runCtx := llm.WithHook(context.WithoutCancel(ctx), observerHook{obs: obs})
	code := task.CodeInput{Code: req.Code, Language: req.Dialect}
	translate := task.TranslateInput{Code: req.Code, SourceLanguage: req.Dialect, Backend: req.Backend}

	var (
		summary   executor.Result[task.SummaryOutput]
		python    executor.Result[task.TranslationOutput]
		structure executor.Result[task.StructureOutput]
		diagrams  executor.Result[task.DiagramsOutput]
	)
	var g errgroup.Group
	g.Go(func() error {
		summary = runTask(runCtx, o, obs, task.Summarize, code, o.opts.AnalysisBackend)
		return nil
	})
	g.Go(func() error {
		python = runTask(runCtx, o, obs, task.Translate, translate, translate.Backend)
		return nil
	})
	g.Go(func() error {
		structure = runTask(runCtx, o, obs, task.AnalyzeStructure, code, o.opts.AnalysisBackend)
		return nil
	})
	g.Go(func() error {
		diagrams = runTask(runCtx, o, obs, task.GenerateDiagrams, code, o.opts.AnalysisBackend)
		return nil
	})
	_ = g.Wait()
	obs.OnState(StateJoined)

	resp := o.join(req, summary, python, structure, diagrams)
	if resp.Failed() {
		o.log.Printf("orchestrator: joined with error kind=%s: %s", resp.ErrorKind, resp.Error)
	} else {
		o.log.Printf("orchestrator: joined ok file=%s", resp.SuggestedFileName)
	}
	return resp
}

func runTask[In, Out any](ctx context.Context, o *Orchestrator, obs Observer, c task.Contract[In, Out], in In, backend types.Backend) executor.Result[Out] {
	obs.OnTaskStart(c.Name())
	var res executor.Result[Out]
	ep, err := o.router.Resolve(backend)
	if err != nil {
		res.Failure = &executor.Failure{Kind: executor.BackendUnavailable, Reason: err.Error(), Err: err}
	} else {
		res = executor.Execute(ctx, o.exec, c, in, ep)
	}
	obs.OnTaskDone(c.Name(), res.Failure)
	return res
}
