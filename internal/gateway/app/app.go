package app

import (
	"context"
	"log"
	"net/http"

	"polyglotshift/internal/config"
	"polyglotshift/internal/gateway/handler"
	"polyglotshift/internal/gateway/handler/rpc"
	"polyglotshift/internal/gateway/server"
	"polyglotshift/internal/llm"
	"polyglotshift/internal/orchestrator"
)

type App struct {
	server  *server.Server
	handler http.Handler
}

// NewWithConfig wires every component from an explicit Config.
func NewWithConfig(cfg *config.Config, logger *log.Logger) *App {
	if logger == nil {
		logger = log.Default()
	}
	orch := NewOrchestrator(cfg, logger)

	// Dependencies
	processHandler := handler.NewProcessHandler(orch, cfg.MaxUploadBytes, logger)
	conversionHandler := rpc.NewConversionHandler(orch)

	// Routing & Server
	mux := server.NewMux(processHandler, conversionHandler, logger)
	srv := server.New(cfg.Port, mux, logger)

	if cfg.LLM.Offline {
		logger.Printf("LLM_OFFLINE is set: every task answers with canned output")
	}
	if cfg.LLM.DefaultAPIKey == "" {
		logger.Printf("no default Gemini API key: cloud tasks need a per-request apiKey")
	}

	return &App{
		server:  srv,
		handler: mux,
	}
}

// NewOrchestrator builds the router, client factory and orchestrator from cfg.
func NewOrchestrator(cfg *config.Config, logger *log.Logger) *orchestrator.Orchestrator {
	router := llm.NewRouter(cfg.LLM.RouterConfig())
	factoryOpts := cfg.LLM.FactoryOptions()
	factoryOpts.Logger = logger
	factory := llm.NewClientFactory(factoryOpts)
	return orchestrator.New(router, factory, cfg.LLM.OrchestratorOptions(), logger)
}

// Handler exposes the routed handler, mainly for tests.
func (a *App) Handler() http.Handler { return a.handler }

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}
