package explain

import (
	"encoding/json"
	"strings"
)

// parserStrategy attempts to extract explanation text from one known
// response shape. It reports failure instead of guessing so the next
// strategy in the chain gets a clean try.
type parserStrategy func(raw string) (string, bool)

// parserChain is the ordered list of response shapes external generators
// have been observed to produce. Strategies are tried in sequence; the
// caller falls through to the rule-based generator when all fail.
var parserChain = []parserStrategy{
	parseJSONObject,
	parseJSONString,
	parseLabeledBlock,
	parsePlainText,
}

// ParseResponse runs the raw generator output through the strategy chain.
func ParseResponse(raw string) (string, bool) {
	for _, strategy := range parserChain {
		if text, ok := strategy(raw); ok {
			return text, true
		}
	}
	return "", false
}

// parseJSONObject handles {"text": "..."} and {"explanation": "..."}.
func parseJSONObject(raw string) (string, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return "", false
	}
	for _, key := range []string{"text", "explanation"} {
		if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), true
		}
	}
	return "", false
}

// parseJSONString handles a bare JSON-quoted string.
func parseJSONString(raw string) (string, bool) {
	var s string
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// parseLabeledBlock handles line-oriented output with an EXPLANATION:
// marker, taking everything after the marker.
func parseLabeledBlock(raw string) (string, bool) {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if rest, found := strings.CutPrefix(trimmed, "EXPLANATION:"); found {
			parts := append([]string{strings.TrimSpace(rest)}, lines[i+1:]...)
			text := strings.TrimSpace(strings.Join(parts, "\n"))
			if text != "" {
				return text, true
			}
		}
	}
	return "", false
}

// parsePlainText accepts any non-empty text that does not look like a
// failed structured payload.
func parsePlainText(raw string) (string, bool) {
	text := strings.TrimSpace(raw)
	if text == "" || strings.HasPrefix(text, "{") || strings.HasPrefix(text, "[") {
		return "", false
	}
	return text, true
}
