package rpc

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"

	"polyglotshift/internal/types"
)

const (
	ConversionServiceName = "polyglotshift.v1.ConversionService"
	ProcessProcedure      = "/" + ConversionServiceName + "/Process"
)

type processor interface {
	Process(ctx context.Context, raw types.RawRequest) types.Response
}

// ConversionHandler exposes the orchestrator as a unary connect procedure.
type ConversionHandler struct {
	proc processor
}

func NewConversionHandler(proc processor) *ConversionHandler {
	return &ConversionHandler{proc: proc}
}

// Process rejects invalid requests with CodeInvalidArgument. Task failures
// are part of the response body, as on the HTTP endpoint.
func (h *ConversionHandler) Process(ctx context.Context, req *connect.Request[types.RawRequest]) (*connect.Response[types.Response], error) {
	resp := h.proc.Process(ctx, *req.Msg)
	if resp.ErrorKind == types.ErrorKindValidation {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New(resp.Error))
	}
	return connect.NewResponse(&resp), nil
}

// NewConversionServiceHandler returns the mount path and handler for the service.
func NewConversionServiceHandler(h *ConversionHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)
	process := connect.NewUnaryHandler(ProcessProcedure, h.Process, opts...)
	return "/" + ConversionServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case ProcessProcedure:
			process.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// NewConversionClient dials the service with the matching JSON codec.
func NewConversionClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *connect.Client[types.RawRequest, types.Response] {
	opts = append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
	return connect.NewClient[types.RawRequest, types.Response](httpClient, baseURL+ProcessProcedure, opts...)
}
