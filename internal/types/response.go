package types

import (
	"path/filepath"
	"strings"
)

// ErrorKind tells the caller which failure channel produced Response.Error.
type ErrorKind string

const (
	ErrorKindValidation         ErrorKind = "validation"
	ErrorKindCredential         ErrorKind = "credential"
	ErrorKindBackendUnavailable ErrorKind = "backend_unavailable"
	ErrorKindInvalidOutput      ErrorKind = "invalid_output"
)

// Response is the aggregate of the four task results for one request.
// Error is set iff at least one task failed.
type Response struct {
	Summary           string            `json:"summary,omitempty"`
	TranslatedCode    string            `json:"translatedCode,omitempty"`
	StructureAnalysis string            `json:"structureAnalysis,omitempty"`
	Diagrams          []string          `json:"diagrams,omitempty"`
	SuggestedFileName string            `json:"suggestedFileName,omitempty"`
	Error             string            `json:"error,omitempty"`
	ErrorKind         ErrorKind         `json:"errorKind,omitempty"`
	TaskErrors        map[string]string `json:"taskErrors,omitempty"`
}

// Failed reports whether the response carries an error.
func (r Response) Failed() bool { return r.Error != "" }

const convertedSuffix = "_converted.py"

// SuggestedFileName derives the download name for the translated code:
// everything before the first dot of the base name, plus "_converted.py".
func SuggestedFileName(original string) string {
	base := filepath.Base(strings.TrimSpace(original))
	if base == "." || base == string(filepath.Separator) {
		base = ""
	}
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	if base == "" {
		base = "code"
	}
	return base + convertedSuffix
}
