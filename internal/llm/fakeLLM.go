package llm

import (
	"context"
	"encoding/json"

	"github.com/invopop/jsonschema"

	llmclient "polyglotshift/internal/llm/client"
	"polyglotshift/internal/task"
)

// FakeClient returns deterministic, minimal JSON payloads per task for offline use.
type FakeClient struct{}

func NewFakeClient() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) GenerateJSON(ctx context.Context, prompt string, cfg llmclient.InvocationConfig, schema *jsonschema.Schema) (json.RawMessage, error) {
	var obj any
	switch PhaseFrom(ctx) {
	case task.NameSummarize:
		obj = map[string]any{"summary": "## Overview\nFake summary of the submitted program."}
	case task.NameTranslate:
		obj = map[string]any{"pythonCode": "def main():\n    return 0\n\n\nif __name__ == \"__main__\":\n    main()\n"}
	case task.NameAnalyzeStructure:
		obj = map[string]any{"structureAnalysis": "### Functions\n- `main`: program entry point."}
	case task.NameGenerateDiagrams:
		obj = map[string]any{"diagramSyntax": "graph TD\n  A[Start] --> B[main]" + task.DiagramSeparator + "graph TD\n  B[main] --> C[End]"}
	default:
		// generic empty JSON object
		obj = map[string]any{}
	}
	b, _ := json.Marshal(obj)
	return json.RawMessage(b), nil
}
