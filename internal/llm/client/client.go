package llmclient

import (
	"context"
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// HarmCategory and HarmThreshold use the Gemini API enum names so configs
// can be passed through without translation.
type HarmCategory string

type HarmThreshold string

const (
	HarmCategoryDangerousContent HarmCategory = "HARM_CATEGORY_DANGEROUS_CONTENT"
	HarmCategoryHarassment       HarmCategory = "HARM_CATEGORY_HARASSMENT"
	HarmCategoryHateSpeech       HarmCategory = "HARM_CATEGORY_HATE_SPEECH"
	HarmCategorySexuallyExplicit HarmCategory = "HARM_CATEGORY_SEXUALLY_EXPLICIT"

	HarmThresholdBlockNone           HarmThreshold = "BLOCK_NONE"
	HarmThresholdBlockOnlyHigh       HarmThreshold = "BLOCK_ONLY_HIGH"
	HarmThresholdBlockMediumAndAbove HarmThreshold = "BLOCK_MEDIUM_AND_ABOVE"
	HarmThresholdBlockLowAndAbove    HarmThreshold = "BLOCK_LOW_AND_ABOVE"
)

// SafetySetting is one content-safety threshold.
type SafetySetting struct {
	Category  HarmCategory
	Threshold HarmThreshold
}

// InvocationConfig is the per-call configuration handed to a backend.
type InvocationConfig struct {
	SafetySettings []SafetySetting
	// StructuredOutput asks the backend to answer with JSON matching the schema.
	StructuredOutput bool
	Temperature      *float32
}

// LLMClient defines the interface for model backends.
type LLMClient interface {
	Name() string
	Close() error
	// GenerateJSON sends one prompt and returns the model's JSON answer.
	// schema may be nil when no structured output is requested.
	GenerateJSON(ctx context.Context, prompt string, cfg InvocationConfig, schema *jsonschema.Schema) (json.RawMessage, error)
}
