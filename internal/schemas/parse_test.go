package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/showcase-forge/internal/llm"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantKey string
		wantOK  bool
	}{
		{name: "plain object", raw: `{"name": "x"}`, wantKey: "name", wantOK: true},
		{name: "json fence", raw: "```json\n{\"name\": \"x\"}\n```", wantKey: "name", wantOK: true},
		{name: "bare fence", raw: "```\n{\"name\": \"x\"}\n```", wantKey: "name", wantOK: true},
		{name: "preamble and fence", raw: "Sure! Here it is:\n```json\n{\"name\": \"x\"}\n```", wantKey: "name", wantOK: true},
		{name: "chatter around object", raw: "Here you go: {\"name\": \"x\"} hope it helps", wantKey: "name", wantOK: true},
		{name: "braces inside strings", raw: "note {\"name\": \"a } b { c\", \"n\": 1} end", wantKey: "n", wantOK: true},
		{name: "skips broken first object", raw: "{oops} then {\"name\": \"x\"}", wantKey: "name", wantOK: true},
		{name: "nested object", raw: "x {\"outer\": {\"inner\": true}} y", wantKey: "outer", wantOK: true},
		{name: "empty", raw: "   ", wantOK: false},
		{name: "array only", raw: `[1, 2, 3]`, wantOK: false},
		{name: "prose", raw: "I cannot help with that.", wantOK: false},
		{name: "unterminated", raw: `{"name": "x"`, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseResponse(tt.raw)
			assert.Equal(t, tt.wantOK, got.Success)
			if !tt.wantOK {
				assert.Nil(t, got.Data)
				require.Error(t, got.Error)
				var parseErr *ParseError
				assert.True(t, errors.As(got.Error, &parseErr))
				assert.True(t, llm.IsRetryable(got.Error))
				return
			}
			require.NoError(t, got.Error)
			assert.Contains(t, got.Data, tt.wantKey)
		})
	}
}
