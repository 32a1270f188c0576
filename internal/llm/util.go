package llm

import "strings"

const fence = "```"

// CleanJSONBlock strips a markdown code fence and any chatter around it from
// a model reply. Text without a fence is only trimmed. An unterminated fence
// keeps everything after the info string.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	open := strings.Index(text, fence)
	if open < 0 {
		return text
	}
	body := text[open+len(fence):]

	// The info string ("json", "JSON", "javascript") runs to the first newline
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && isInfoString(body[:nl]) {
		body = body[nl+1:]
	} else if nl < 0 && isInfoString(body) {
		return ""
	}

	if end := strings.Index(body, fence); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

func isInfoString(line string) bool {
	line = strings.TrimSpace(line)
	return len(line) < 20 && !strings.ContainsAny(line, " {[\"")
}
