package llmclient

import (
	"errors"
	"strings"
)

var (
	ErrInvalidJSON = errors.New("invalid json from LLM")
	// ErrCredential marks a missing or rejected API credential.
	ErrCredential = errors.New("llm credential rejected")
)

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// credentialError keeps the provider message while matching ErrCredential.
type credentialError struct {
	msg string
}

func (e *credentialError) Error() string        { return e.msg }
func (e *credentialError) Is(target error) bool { return target == ErrCredential }

// NewCredentialError wraps a provider message as a permanent credential failure.
func NewCredentialError(msg string) error {
	return NewPermanentError(&credentialError{msg: strings.TrimSpace(msg)})
}

// LooksLikeCredentialRejection matches the messages Google returns for bad keys.
func LooksLikeCredentialRejection(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "api key not valid") ||
		strings.Contains(m, "api_key_invalid") ||
		(strings.Contains(m, "permission_denied") && strings.Contains(m, "api key"))
}
