package llm

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrMalformedJSON indicates the model response did not contain a parseable
// JSON object. Callers substitute step-specific defaults rather than failing.
var ErrMalformedJSON = eris.New("llm: malformed json response")

// CleanJSON attempts to extract a JSON object from text that may contain
// markdown code fences or surrounding prose.
func CleanJSON(text string) string {
	text = strings.TrimSpace(text)

	// Strip markdown code fences.
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	// Find first { and last }.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// DecodeJSON cleans the model response and unmarshals the embedded object
// into out. Unparseable responses return ErrMalformedJSON.
func DecodeJSON(text string, out any) error {
	cleaned := CleanJSON(text)
	if cleaned == "" || !strings.HasPrefix(cleaned, "{") {
		return ErrMalformedJSON
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return eris.Wrap(ErrMalformedJSON, err.Error())
	}
	return nil
}

// DecodeMap cleans the model response and unmarshals the embedded object
// into a generic map, for steps that coerce loosely-typed fields themselves.
func DecodeMap(text string) (map[string]any, error) {
	var m map[string]any
	if err := DecodeJSON(text, &m); err != nil {
		return nil, err
	}
	return m, nil
}
