package jsonutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalFlex_Direct(t *testing.T) {
	var out map[string]string
	require.NoError(t, UnmarshalFlex([]byte(`{"summary":"ok"}`), &out))
	assert.Equal(t, "ok", out["summary"])
}

func TestUnmarshalFlex_CodeFence(t *testing.T) {
	var out map[string]string
	raw := "```json\n{\"pythonCode\": \"print(1)\"}\n```"
	require.NoError(t, UnmarshalFlex([]byte(raw), &out))
	assert.Equal(t, "print(1)", out["pythonCode"])
}

func TestUnmarshalFlex_Repair(t *testing.T) {
	var out map[string]string
	require.NoError(t, UnmarshalFlex([]byte(`{"summary": "ok",}`), &out))
	assert.Equal(t, "ok", out["summary"])
}

func TestUnmarshalFlex_TruncatedIsNotRepaired(t *testing.T) {
	cases := map[string]string{
		"open string":        "{\"pythonCode\": \"def main():\\n    total = 0\\n    for i in range(10):\\n        tot",
		"open brace in text": "{\"diagramSyntax\": \"graph TD\\n  A[Start] --> B{x > ",
		"brace inside text":  "{\"diagramSyntax\": \"graph TD\\n  A --> B{x}",
		"open object":        `{"summary": "ok"`,
		"fenced and cut":     "```json\n{\"summary\": \"o",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			var out map[string]string
			err := UnmarshalFlex([]byte(raw), &out)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrTruncated), "got %v", err)
		})
	}
}

func TestClosed(t *testing.T) {
	assert.True(t, Closed(`{"a": "x}", "b": [1, 2]}`))
	assert.True(t, Closed(`{'a': 'it is', "b": "it's",}`))
	assert.True(t, Closed(`{"a": "escaped \" quote"}`))
	assert.False(t, Closed(`{"a": "x"`))
	assert.False(t, Closed(`{"a": "x"}}`))
	assert.False(t, Closed(`{"a": "x"} and more`))
	assert.False(t, Closed(`plain text`))
}

func TestUnmarshalFlex_Empty(t *testing.T) {
	var out map[string]string
	err := UnmarshalFlex([]byte("  \n"), &out)
	assert.True(t, errors.Is(err, ErrEmpty))
}

func TestStripCodeFence(t *testing.T) {
	got, ok := StripCodeFence("```\n{}\n```")
	assert.True(t, ok)
	assert.Equal(t, "{}", got)

	_, ok = StripCodeFence("{}")
	assert.False(t, ok)
}

func TestMarshalNoEscape(t *testing.T) {
	b, err := MarshalNoEscape(map[string]string{"code": "if (a < b && c > d) {}"})
	require.NoError(t, err)
	assert.Equal(t, `{"code":"if (a < b && c > d) {}"}`, string(b))
}
