package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	thinkBlock  = regexp.MustCompile(`(?s)<think>.*?</think>`)
	braceObject = regexp.MustCompile(`(?s)(\{.*\})`)
)

// StripThinking removes reasoning blocks and surrounding whitespace.
func StripThinking(text string) string {
	return strings.TrimSpace(thinkBlock.ReplaceAllString(text, ""))
}

// parseJSONObject decodes the object spanning the first '{' to the last '}'
// of text, falling back to a brace-delimited regex match.
func parseJSONObject(text string) (map[string]any, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < 0 {
		return nil, false
	}

	var obj map[string]any
	if start < end {
		if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err == nil {
			return obj, true
		}
	}

	m := braceObject.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	if err := json.Unmarshal([]byte(m[1]), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// stringField returns obj[key] when it holds a usable name.
func stringField(obj map[string]any, key string) string {
	s, ok := obj[key].(string)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "null", "none", "n/a":
		return ""
	}
	return s
}
