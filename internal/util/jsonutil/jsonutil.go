package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

var (
	ErrEmpty = errors.New("jsonutil: empty payload")
	// ErrTruncated reports a payload whose outermost value never closes.
	ErrTruncated = errors.New("jsonutil: truncated payload")
)

// MarshalNoEscape encodes v into JSON without escaping <, >, & into <, etc.
// Source code payloads are full of those characters.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// Remove trailing newline from json.Encoder.Encode
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalFlex tries to unmarshal JSON bytes into v with best effort:
// 1) Direct unmarshal
// 2) Strip a surrounding markdown code fence and retry
// 3) Repair cosmetic damage (trailing commas, single quotes, comments) and retry
// Hosted models honour the JSON mime type; local models often don't.
// A payload cut off mid-value is never repaired: it fails with ErrTruncated.
func UnmarshalFlex(raw []byte, v any) error {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return ErrEmpty
	}
	firstErr := json.Unmarshal([]byte(text), v)
	if firstErr == nil {
		return nil
	}
	if stripped, ok := StripCodeFence(text); ok {
		text = stripped
		if err := json.Unmarshal([]byte(text), v); err == nil {
			return nil
		}
	}
	if !Closed(text) {
		return fmt.Errorf("%w: %v", ErrTruncated, firstErr)
	}
	fixed, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return firstErr
	}
	if err := json.Unmarshal([]byte(fixed), v); err != nil {
		return firstErr
	}
	return nil
}

// StripCodeFence removes a single ```lang ... ``` wrapper around s.
func StripCodeFence(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s, false
	}
	body := strings.TrimSuffix(s, "```")
	nl := strings.IndexByte(body, '\n')
	if nl < 0 {
		return s, false
	}
	return strings.TrimSpace(body[nl+1:]), true
}

// Closed reports whether every string, object and array opened in s is also
// closed, and s ends on the bracket that closes its outermost value.
// Single-quoted strings count as strings when they start a key or a value.
func Closed(s string) bool {
	s = strings.TrimSpace(s)
	var (
		stack   []byte
		quote   byte
		escaped bool
		opened  bool
		prev    byte
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				quote = 0
				prev = c
			}
			continue
		}
		switch c {
		case '"':
			quote = c
		case '\'':
			if len(stack) > 0 && strings.IndexByte("{[:,", prev) >= 0 {
				quote = c
			}
		case '{':
			stack = append(stack, '}')
			opened = true
		case '[':
			stack = append(stack, ']')
			opened = true
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return false
			}
			stack = stack[:len(stack)-1]
		}
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			prev = c
		}
	}
	if !opened || quote != 0 || len(stack) != 0 {
		return false
	}
	last := s[len(s)-1]
	return last == '}' || last == ']'
}
