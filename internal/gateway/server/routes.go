package server

import (
	"log"
	"net/http"

	"polyglotshift/internal/gateway/handler"
	"polyglotshift/internal/gateway/handler/rpc"
	"polyglotshift/internal/gateway/middleware"
)

func NewMux(
	processHandler *handler.ProcessHandler,
	conversionHandler *rpc.ConversionHandler,
	logger *log.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// RPC Handlers
	mux.Handle(rpc.NewConversionServiceHandler(conversionHandler))

	// HTTP + websocket
	mux.HandleFunc("/api/process", processHandler.HandleProcess)
	mux.HandleFunc("/ws/process", processHandler.HandleProcessStream)
	mux.HandleFunc("/api/schemas", processHandler.HandleSchemas)
	mux.HandleFunc("/healthz", processHandler.HandleHealth)

	// Middleware
	return middleware.CORS(middleware.AccessLog(logger, mux))
}
