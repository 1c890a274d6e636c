package types

import (
	"strings"
	"unicode"
)

const maxCredentialBytes = 512

// ValidationError reports every problem found in a RawRequest.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, ", ")
}

// ParseRequest validates a RawRequest once and returns the immutable Request.
// When the source language is omitted it is inferred from the file name.
func ParseRequest(raw RawRequest) (Request, error) {
	var problems []string

	if strings.TrimSpace(raw.Code) == "" {
		problems = append(problems, "Code content cannot be empty.")
	}

	dialect, ok := ParseDialect(raw.SourceLanguage)
	if !ok && strings.TrimSpace(raw.SourceLanguage) == "" {
		dialect, ok = InferDialect(raw.FileName)
	}
	if !ok {
		problems = append(problems, "Please select a source language.")
	}

	credential := strings.TrimSpace(raw.APIKey)
	var backend Backend
	if strings.TrimSpace(raw.ModelType) == "" {
		problems = append(problems, "Model type not selected.")
	} else {
		b, err := ParseBackend(raw.ModelType, credential)
		if err != nil {
			problems = append(problems, "Please select a supported model type.")
		} else {
			backend = b
		}
	}
	// Local backends ignore the credential, so only Cloud checks it.
	if _, cloud := backend.(Cloud); cloud && credential != "" {
		if msg := checkCredential(credential); msg != "" {
			problems = append(problems, msg)
		}
	}

	if len(problems) > 0 {
		return Request{}, &ValidationError{Problems: problems}
	}
	return Request{
		Code:     raw.Code,
		Dialect:  dialect,
		Backend:  backend,
		FileName: strings.TrimSpace(raw.FileName),
	}, nil
}

func checkCredential(c string) string {
	if len(c) > maxCredentialBytes {
		return "API key is too long."
	}
	for _, r := range c {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return "API key must not contain whitespace."
		}
	}
	return ""
}
