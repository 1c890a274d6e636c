package handler

import (
	"bytes"
	"context"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polyglotshift/internal/orchestrator"
	"polyglotshift/internal/types"
)

type captureProcessor struct {
	got   types.RawRequest
	calls int
}

func (c *captureProcessor) Process(ctx context.Context, raw types.RawRequest) types.Response {
	return c.ProcessWithObserver(ctx, raw, nil)
}

func (c *captureProcessor) ProcessWithObserver(_ context.Context, raw types.RawRequest, _ orchestrator.Observer) types.Response {
	c.calls++
	c.got = raw
	return types.Response{Summary: "ok"}
}

func newTestHandler(maxUpload int64) (*ProcessHandler, *captureProcessor) {
	proc := &captureProcessor{}
	return NewProcessHandler(proc, maxUpload, log.New(io.Discard, "", 0)), proc
}

func TestHandleProcess_MultipartFields(t *testing.T) {
	h, proc := newTestHandler(1 << 20)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("sourceLanguage", "C"))
	require.NoError(t, mw.WriteField("modelType", "gemini"))
	require.NoError(t, mw.WriteField("apiKey", "k"))
	fw, err := mw.CreateFormFile("file", "src/main.c")
	require.NoError(t, err)
	_, _ = io.WriteString(fw, "int main(){}")
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/process", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	h.HandleProcess(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, proc.calls)
	assert.Equal(t, types.RawRequest{
		Code:           "int main(){}",
		SourceLanguage: "C",
		ModelType:      "gemini",
		APIKey:         "k",
		FileName:       "main.c",
	}, proc.got)
	assert.JSONEq(t, `{"summary":"ok"}`, rr.Body.String())
}

func TestHandleProcess_MultipartCodeFieldWithoutFile(t *testing.T) {
	h, proc := newTestHandler(1 << 20)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("code", "DISPLAY 'X'."))
	require.NoError(t, mw.WriteField("sourceLanguage", "COBOL"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/process", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	h.HandleProcess(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "DISPLAY 'X'.", proc.got.Code)
	assert.Empty(t, proc.got.FileName)
}

func TestHandleProcess_TooLarge(t *testing.T) {
	h, proc := newTestHandler(16)
	body := `{"code":"` + strings.Repeat("x", 64) + `","sourceLanguage":"C","modelType":"gemini"}`

	req := httptest.NewRequest(http.MethodPost, "/api/process", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.HandleProcess(rr, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.Zero(t, proc.calls)
}

func TestHandleProcess_MalformedJSON(t *testing.T) {
	h, proc := newTestHandler(1 << 20)
	req := httptest.NewRequest(http.MethodPost, "/api/process", strings.NewReader(`{"code":`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rr := httptest.NewRecorder()
	h.HandleProcess(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Zero(t, proc.calls)
}

func TestHandleProcess_MethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(1 << 20)
	rr := httptest.NewRecorder()
	h.HandleProcess(rr, httptest.NewRequest(http.MethodGet, "/api/process", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestWriteJSON_DoesNotEscapeCode(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusOK, types.Response{TranslatedCode: "if a < b and c > d: pass"})
	assert.Contains(t, rr.Body.String(), "a < b and c > d")
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}
