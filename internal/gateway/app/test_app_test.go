package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polyglotshift/internal/config"
	"polyglotshift/internal/gateway/handler"
	"polyglotshift/internal/gateway/handler/rpc"
	"polyglotshift/internal/task"
	"polyglotshift/internal/types"
)

func offlineServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.Config{
		Port:           ":0",
		MaxUploadBytes: 1 << 20,
		LLM:            config.LLMConfig{Offline: true, MaxAttempts: 1},
	}
	srv := httptest.NewServer(NewWithConfig(cfg, log.New(io.Discard, "", 0)).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func multipartBody(t *testing.T, fields map[string]string, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decodeResponse(t *testing.T, res *http.Response) types.Response {
	t.Helper()
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	var out types.Response
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return out
}

func TestProcess_MultipartInfersDialect(t *testing.T) {
	srv := offlineServer(t)
	body, ct := multipartBody(t, map[string]string{"modelType": "deepseek"}, "PAYROLL.cbl", "       IDENTIFICATION DIVISION.\n")

	res, err := http.Post(srv.URL+"/api/process", ct, body)
	require.NoError(t, err)
	out := decodeResponse(t, res)

	assert.Empty(t, out.Error)
	assert.NotEmpty(t, out.Summary)
	assert.NotEmpty(t, out.TranslatedCode)
	assert.NotEmpty(t, out.StructureAnalysis)
	assert.Len(t, out.Diagrams, 2)
	assert.Equal(t, "PAYROLL_converted.py", out.SuggestedFileName)
}

func TestProcess_JSONValidationErrorRidesInBody(t *testing.T) {
	srv := offlineServer(t)

	res, err := http.Post(srv.URL+"/api/process", "application/json",
		strings.NewReader(`{"code":"","sourceLanguage":"C","modelType":"gemini"}`))
	require.NoError(t, err)
	out := decodeResponse(t, res)

	assert.Equal(t, "Code content cannot be empty.", out.Error)
	assert.Equal(t, types.ErrorKindValidation, out.ErrorKind)
	assert.Empty(t, out.Summary)
}

func TestProcess_RejectsBadContentType(t *testing.T) {
	srv := offlineServer(t)

	res, err := http.Post(srv.URL+"/api/process", "text/plain", strings.NewReader("int main(){}"))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestSchemasAndHealth(t *testing.T) {
	srv := offlineServer(t)

	res, err := http.Get(srv.URL + "/api/schemas")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	var schemas map[string]map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&schemas))
	for _, name := range task.Names {
		assert.Contains(t, schemas, name)
	}
	assert.Equal(t, []any{"diagramSyntax"}, schemas[task.NameGenerateDiagrams]["required"])

	res, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	srv := offlineServer(t)
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/process", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	assert.Equal(t, "http://localhost:3000", res.Header.Get("Access-Control-Allow-Origin"))
}

func TestConnectProcess(t *testing.T) {
	srv := offlineServer(t)
	client := rpc.NewConversionClient(srv.Client(), srv.URL)

	res, err := client.CallUnary(context.Background(), connect.NewRequest(&types.RawRequest{
		Code:           "int main(){return 0;}",
		SourceLanguage: "C",
		ModelType:      "gemini",
		FileName:       "main.c",
	}))
	require.NoError(t, err)
	assert.Empty(t, res.Msg.Error)
	assert.Equal(t, "main_converted.py", res.Msg.SuggestedFileName)
	assert.NotEmpty(t, res.Msg.TranslatedCode)
}

func TestConnectProcess_InvalidArgument(t *testing.T) {
	srv := offlineServer(t)
	client := rpc.NewConversionClient(srv.Client(), srv.URL)

	_, err := client.CallUnary(context.Background(), connect.NewRequest(&types.RawRequest{Code: "x"}))
	require.Error(t, err)
	var cerr *connect.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, connect.CodeInvalidArgument, cerr.Code())
	assert.Contains(t, cerr.Message(), "Please select a source language.")
}

func TestProcessStream(t *testing.T) {
	srv := offlineServer(t)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/process"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(types.RawRequest{
		Code:           "int main(){return 0;}",
		SourceLanguage: "C",
		ModelType:      "deepseek",
	}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var events []handler.StreamEvent
	for {
		var evt handler.StreamEvent
		if err := conn.ReadJSON(&evt); err != nil {
			break
		}
		events = append(events, evt)
	}

	require.NotEmpty(t, events)
	assert.Equal(t, "state", events[0].Type)
	assert.Equal(t, "validating", events[0].State)

	last := events[len(events)-1]
	require.Equal(t, "result", last.Type)
	require.NotNil(t, last.Result)
	assert.Empty(t, last.Result.Error)
	assert.Equal(t, "code_converted.py", last.Result.SuggestedFileName)

	var starts, dones, requests, responses int
	for _, e := range events {
		switch e.Type {
		case "task_start":
			starts++
		case "llm_request":
			requests++
			assert.Positive(t, e.Bytes, e.Task)
		case "llm_response":
			responses++
			assert.True(t, e.OK, e.Task)
			assert.Positive(t, e.Bytes, e.Task)
		case "task_done":
			dones++
			assert.True(t, e.OK, e.Task)
		}
	}
	assert.Equal(t, 4, starts)
	assert.Equal(t, 4, requests)
	assert.Equal(t, 4, responses)
	assert.Equal(t, 4, dones)
}
