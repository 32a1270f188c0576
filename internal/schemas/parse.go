package schemas

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/jonathan/showcase-forge/internal/llm"
)

// ParseResult is the outcome of ParseResponse. Exactly one of Data and Error is set.
type ParseResult struct {
	Success bool
	Data    map[string]any
	Error   error
}

// ParseResponse recovers a JSON object from raw backend text. Code fences and
// chatter around the object are tolerated; if the cleaned text does not parse,
// the first balanced {...} that does parse is used. It never panics.
func ParseResponse(raw string) ParseResult {
	text := llm.CleanJSONBlock(raw)
	if text == "" {
		return ParseResult{Error: &ParseError{Message: "empty response"}}
	}

	var data map[string]any
	directErr := json.Unmarshal([]byte(text), &data)
	if directErr == nil && data != nil {
		return ParseResult{Success: true, Data: data}
	}

	// Fences may have been stripped incorrectly; scan the original text too
	for _, candidate := range []string{text, raw} {
		if obj, ok := firstBalancedObject(candidate); ok {
			return ParseResult{Success: true, Data: obj}
		}
	}

	if directErr == nil {
		directErr = errNotObject
	}
	return ParseResult{Error: &ParseError{Message: "no JSON object found in response", Cause: directErr}}
}

var errNotObject = errors.New("top-level value is not an object")

// firstBalancedObject returns the first brace-balanced substring that decodes
// as a JSON object. Braces inside string literals are ignored.
func firstBalancedObject(text string) (map[string]any, bool) {
	for start := strings.IndexByte(text, '{'); start >= 0; {
		if end := matchingBrace(text, start); end > start {
			var obj map[string]any
			if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err == nil && obj != nil {
				return obj, true
			}
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return nil, false
}

func matchingBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
