package task

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"

	"polyglotshift/internal/types"
)

// PromptField describes one output field listed in the [OUTPUT] section.
type PromptField struct {
	Name        string
	Type        string
	Required    bool
	Description string
}

// PromptSpec defines the sections of a task prompt. Empty sections are skipped.
type PromptSpec struct {
	Purpose      string
	Background   string
	Language     types.Dialect
	Code         string
	OutputFields []PromptField
	Rules        []string
	OutputFormat string
}

// RenderPrompt lays the spec out as [TITLE] sections.
func RenderPrompt(spec PromptSpec) string {
	var buf bytes.Buffer
	writeSection(&buf, "PURPOSE", spec.Purpose)
	writeSection(&buf, "BACKGROUND", spec.Background)
	writeSection(&buf, "INPUT", formatInput(spec.Language, spec.Code))
	writeSection(&buf, "OUTPUT", formatFields(spec.OutputFields))
	writeSection(&buf, "RULES", formatList(spec.Rules))
	writeSection(&buf, "OUTPUT_FORMAT", spec.OutputFormat)
	return strings.TrimSpace(buf.String()) + "\n"
}

// FieldsFromSchema lists the top-level properties of an object schema in
// declaration order.
func FieldsFromSchema(s *jsonschema.Schema) []PromptField {
	if s == nil || s.Properties == nil {
		return nil
	}
	required := make(map[string]bool, len(s.Required))
	for _, r := range s.Required {
		required[r] = true
	}
	var out []PromptField
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		f := PromptField{Name: pair.Key, Required: required[pair.Key]}
		if pair.Value != nil {
			f.Type = pair.Value.Type
			f.Description = pair.Value.Description
		}
		out = append(out, f)
	}
	return out
}

func formatInput(lang types.Dialect, code string) string {
	if code == "" {
		return ""
	}
	fence := codeFence(code)
	var buf strings.Builder
	fmt.Fprintf(&buf, "Language: %s\n", string(lang))
	buf.WriteString("Source code:\n")
	buf.WriteString(fence)
	buf.WriteString(strings.ToLower(string(lang)))
	buf.WriteString("\n")
	buf.WriteString(code)
	if !strings.HasSuffix(code, "\n") {
		buf.WriteString("\n")
	}
	buf.WriteString(fence)
	return buf.String()
}

// codeFence returns a backtick run longer than any run inside code so the
// submitted program cannot close the block early.
func codeFence(code string) string {
	longest, cur := 0, 0
	for _, r := range code {
		if r == '`' {
			cur++
			if cur > longest {
				longest = cur
			}
			continue
		}
		cur = 0
	}
	if longest < 3 {
		return "```"
	}
	return strings.Repeat("`", longest+1)
}

func formatFields(fields []PromptField) string {
	if len(fields) == 0 {
		return ""
	}
	var buf strings.Builder
	for _, f := range fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			continue
		}
		req := "optional"
		if f.Required {
			req = "required"
		}
		if f.Description != "" {
			fmt.Fprintf(&buf, "- %s (%s, %s): %s\n", name, f.Type, req, f.Description)
		} else {
			fmt.Fprintf(&buf, "- %s (%s, %s)\n", name, f.Type, req)
		}
	}
	return strings.TrimRight(buf.String(), "\n")
}

func formatList(items []string) string {
	if len(items) == 0 {
		return ""
	}
	var buf strings.Builder
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		fmt.Fprintf(&buf, "- %s\n", item)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func writeSection(buf *bytes.Buffer, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	buf.WriteString("[")
	buf.WriteString(title)
	buf.WriteString("]\n")
	buf.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		buf.WriteString("\n")
	}
	buf.WriteString("\n")
}
