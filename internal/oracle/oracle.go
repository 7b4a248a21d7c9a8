// Package oracle implements the LLM-backed match arbitration and ETA
// adjustment oracles on top of the Anthropic client.
package oracle

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/openings-cli/pkg/anthropic"
)

// responseText concatenates the text blocks of a message response.
func responseText(resp *anthropic.MessageResponse) string {
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

// extractJSON pulls the first JSON object out of a model response,
// tolerating surrounding prose and markdown fences.
func extractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "```json"); idx >= 0 {
		text = text[idx+len("```json"):]
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
	} else if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+len("```"):]
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", eris.New("oracle: no JSON object in response")
	}
	return text[start : end+1], nil
}

// decodeJSON unmarshals an extracted JSON object into v.
func decodeJSON(text string, v any) error {
	obj, err := extractJSON(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return eris.Wrap(err, "oracle: decode response")
	}
	return nil
}
