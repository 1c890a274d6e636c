package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"

	"polyglotshift/internal/util/jsonutil"
)

// ErrInvalidOutput marks a backend answer that does not satisfy the output schema.
var ErrInvalidOutput = errors.New("task: output does not match schema")

// Contract binds a task's prompt template to its output schema. Contracts are
// immutable and safe for concurrent use.
type Contract[In, Out any] interface {
	Name() string
	Render(in In) string
	Schema() *jsonschema.Schema
	Decode(raw json.RawMessage) (Out, error)
}

type contract[In, Out any] struct {
	name   string
	schema *jsonschema.Schema
	prompt func(In) PromptSpec
	check  func(Out) error
}

func newContract[In, Out any](name string, prompt func(In) PromptSpec, check func(Out) error) *contract[In, Out] {
	return &contract[In, Out]{
		name:   name,
		schema: reflectSchema[Out](),
		prompt: prompt,
		check:  check,
	}
}

func (c *contract[In, Out]) Name() string { return c.name }

func (c *contract[In, Out]) Schema() *jsonschema.Schema { return c.schema }

func (c *contract[In, Out]) Render(in In) string {
	spec := c.prompt(in)
	spec.OutputFields = FieldsFromSchema(c.schema)
	return RenderPrompt(spec)
}

// Decode parses the raw answer and checks every required string field of the
// schema is present and not blank.
func (c *contract[In, Out]) Decode(raw json.RawMessage) (Out, error) {
	var zero Out
	var obj map[string]any
	if err := jsonutil.UnmarshalFlex(raw, &obj); err != nil {
		return zero, fmt.Errorf("%w: %s: not a JSON object: %v", ErrInvalidOutput, c.name, err)
	}
	if obj == nil {
		return zero, fmt.Errorf("%w: %s: null answer", ErrInvalidOutput, c.name)
	}
	for _, field := range c.schema.Required {
		v, ok := obj[field]
		if !ok {
			return zero, fmt.Errorf("%w: %s: missing field %q", ErrInvalidOutput, c.name, field)
		}
		s, ok := v.(string)
		if !ok {
			return zero, fmt.Errorf("%w: %s: field %q is %T, want string", ErrInvalidOutput, c.name, field, v)
		}
		if strings.TrimSpace(s) == "" {
			return zero, fmt.Errorf("%w: %s: field %q is empty", ErrInvalidOutput, c.name, field)
		}
	}
	// Re-encode the validated object so repaired answers decode too.
	b, err := json.Marshal(obj)
	if err != nil {
		return zero, fmt.Errorf("%w: %s: %v", ErrInvalidOutput, c.name, err)
	}
	var out Out
	if err := json.Unmarshal(b, &out); err != nil {
		return zero, fmt.Errorf("%w: %s: %v", ErrInvalidOutput, c.name, err)
	}
	if c.check != nil {
		if err := c.check(out); err != nil {
			return zero, fmt.Errorf("%w: %s: %v", ErrInvalidOutput, c.name, err)
		}
	}
	return out, nil
}

func reflectSchema[T any]() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	var v T
	s := r.Reflect(&v)
	s.Version = ""
	s.ID = ""
	return s
}
