package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strings"

	"polyglotshift/internal/orchestrator"
	"polyglotshift/internal/types"
	"polyglotshift/internal/util/jsonutil"
)

// Processor runs one conversion request. *orchestrator.Orchestrator implements it.
type Processor interface {
	Process(ctx context.Context, raw types.RawRequest) types.Response
	ProcessWithObserver(ctx context.Context, raw types.RawRequest, obs orchestrator.Observer) types.Response
}

var _ Processor = (*orchestrator.Orchestrator)(nil)

var errTooLarge = errors.New("upload exceeds the size limit")

// ProcessHandler serves the plain HTTP and websocket conversion endpoints.
type ProcessHandler struct {
	proc      Processor
	maxUpload int64
	log       *log.Logger
}

func NewProcessHandler(proc Processor, maxUpload int64, logger *log.Logger) *ProcessHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &ProcessHandler{proc: proc, maxUpload: maxUpload, log: logger}
}

// HandleProcess accepts a multipart form (file, sourceLanguage, modelType,
// apiKey) or a JSON RawRequest. Task failures are reported in the body with
// status 200; only unreadable submissions get a 4xx.
func (h *ProcessHandler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	raw, err := h.readRequest(w, r)
	if err != nil {
		status := http.StatusBadRequest
		var mbe *http.MaxBytesError
		if errors.Is(err, errTooLarge) || errors.As(err, &mbe) {
			status = http.StatusRequestEntityTooLarge
		}
		http.Error(w, err.Error(), status)
		return
	}
	resp := h.proc.Process(r.Context(), raw)
	writeJSON(w, http.StatusOK, resp)
}

func (h *ProcessHandler) readRequest(w http.ResponseWriter, r *http.Request) (types.RawRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	// Multipart framing adds a little on top of the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+64<<10)

	switch mediaType {
	case "application/json":
		var raw types.RawRequest
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return raw, fmt.Errorf("invalid json body: %w", err)
		}
		if int64(len(raw.Code)) > h.maxUpload {
			return raw, errTooLarge
		}
		return raw, nil
	case "multipart/form-data":
		return h.readMultipart(r)
	default:
		return types.RawRequest{}, fmt.Errorf("unsupported content type %q", mediaType)
	}
}

func (h *ProcessHandler) readMultipart(r *http.Request) (types.RawRequest, error) {
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		return types.RawRequest{}, fmt.Errorf("invalid multipart form: %w", err)
	}
	raw := types.RawRequest{
		SourceLanguage: r.FormValue("sourceLanguage"),
		ModelType:      r.FormValue("modelType"),
		APIKey:         r.FormValue("apiKey"),
		Code:           r.FormValue("code"),
		FileName:       r.FormValue("fileName"),
	}
	file, hdr, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return raw, nil
	case err != nil:
		return raw, fmt.Errorf("read file: %w", err)
	}
	defer file.Close()

	b, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		return raw, fmt.Errorf("read file: %w", err)
	}
	if int64(len(b)) > h.maxUpload {
		return raw, errTooLarge
	}
	raw.Code = string(b)
	if strings.TrimSpace(raw.FileName) == "" {
		raw.FileName = hdr.Filename
	}
	return raw, nil
}

// HandleHealth reports liveness. It never calls a model backend.
func (h *ProcessHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := jsonutil.MarshalNoEscape(v)
	if err != nil {
		http.Error(w, "encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
