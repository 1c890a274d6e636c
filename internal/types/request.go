package types

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Dialect is the source language of the submitted code.
type Dialect string

const (
	DialectC     Dialect = "C"
	DialectCOBOL Dialect = "COBOL"
)

// ParseDialect accepts the wire value case-insensitively.
func ParseDialect(s string) (Dialect, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(DialectC):
		return DialectC, true
	case string(DialectCOBOL):
		return DialectCOBOL, true
	default:
		return "", false
	}
}

// InferDialect guesses the dialect from a file name extension.
func InferDialect(fileName string) (Dialect, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(strings.TrimSpace(fileName)), "."))
	switch ext {
	case "c", "h":
		return DialectC, true
	case "cob", "cbl", "cpy":
		return DialectCOBOL, true
	default:
		return "", false
	}
}

// Backend is a closed variant: Cloud or Local. Consumers dispatch with a
// type switch; no other implementations exist outside this package.
type Backend interface {
	// WireName is the value the UI sends in the modelType field.
	WireName() string
	isBackend()
}

// Cloud routes to the hosted Gemini API. An empty Credential means the
// process-wide default credential applies.
type Cloud struct {
	Credential string
}

func (Cloud) WireName() string { return "gemini" }
func (Cloud) isBackend()       {}

// Local routes to the locally hosted coder model.
type Local struct{}

func (Local) WireName() string { return "deepseek" }
func (Local) isBackend()       {}

// ParseBackend maps a modelType wire value to a Backend. The credential only
// attaches to Cloud.
func ParseBackend(modelType, credential string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(modelType)) {
	case "gemini", "cloud":
		return Cloud{Credential: strings.TrimSpace(credential)}, nil
	case "deepseek", "local":
		return Local{}, nil
	case "":
		return nil, fmt.Errorf("model type is empty")
	default:
		return nil, fmt.Errorf("unknown model type %q", modelType)
	}
}

// RawRequest is the untyped submission as it arrives over the wire.
type RawRequest struct {
	Code           string `json:"code"`
	SourceLanguage string `json:"sourceLanguage,omitempty"`
	ModelType      string `json:"modelType,omitempty"`
	APIKey         string `json:"apiKey,omitempty"`
	FileName       string `json:"fileName,omitempty"`
}

// Request is a validated submission. It is never mutated after ParseRequest
// returns it and is handed to each task by value.
type Request struct {
	Code     string
	Dialect  Dialect
	Backend  Backend
	FileName string
}

// Credential returns the per-request credential, if any.
func (r Request) Credential() string {
	if c, ok := r.Backend.(Cloud); ok {
		return c.Credential
	}
	return ""
}
