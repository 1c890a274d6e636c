package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// OllamaClient calls a locally hosted model through Ollama's /api/chat.
type OllamaClient struct {
	http    *http.Client
	model   string
	baseURL string
}

// NewOllamaClient creates a client for baseURL. A zero timeout leaves the
// request bounded only by the caller's context.
func NewOllamaClient(baseURL, model string, timeout time.Duration) *OllamaClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/api")
	return &OllamaClient{
		http:    &http.Client{Timeout: timeout},
		model:   model,
		baseURL: baseURL,
	}
}

func (c *OllamaClient) Name() string { return "Ollama:" + c.model }
func (c *OllamaClient) Close() error { return nil }

type ollamaChatReq struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   json.RawMessage `json:"format,omitempty"`
	Options  map[string]any  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResp struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

// GenerateJSON sends a single user message. Structured output is requested
// through Ollama's format field: the JSON schema when one is given, otherwise "json".
func (c *OllamaClient) GenerateJSON(ctx context.Context, prompt string, cfg InvocationConfig, schema *jsonschema.Schema) (json.RawMessage, error) {
	reqBody := ollamaChatReq{
		Model:    c.model,
		Messages: []ollamaMessage{{Role: "user", Content: prompt}},
		Stream:   false,
	}
	if cfg.StructuredOutput {
		reqBody.Format = json.RawMessage(`"json"`)
		if schema != nil {
			if b, err := json.Marshal(schema); err == nil {
				reqBody.Format = b
			}
		}
	}
	if cfg.Temperature != nil {
		reqBody.Options = map[string]any{"temperature": *cfg.Temperature}
	}
	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("ollama: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		const max = 2048
		if len(body) > max {
			body = body[:max]
		}
		err := fmt.Errorf("ollama: unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, NewCredentialError(err.Error())
		case resp.StatusCode == http.StatusNotFound:
			// Model not pulled on this host.
			return nil, NewPermanentError(err)
		}
		return nil, err
	}

	var out ollamaChatResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("ollama: decode response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("ollama: %s", out.Error)
	}
	content := strings.TrimSpace(out.Message.Content)
	if content == "" {
		return nil, ErrInvalidJSON
	}
	return json.RawMessage(content), nil
}
