package llm

import (
	"encoding/json"
	"strings"
)

// ExtractJSON returns the first complete JSON object or array in text,
// skipping markdown fences and any prose around it. Text holding no valid
// JSON value is returned trimmed.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)
	for i := 0; i < len(text); i++ {
		if text[i] != '{' && text[i] != '[' {
			continue
		}
		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(text[i:])).Decode(&raw); err == nil {
			return string(raw)
		}
	}
	return text
}
