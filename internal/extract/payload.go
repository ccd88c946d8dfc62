package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/longevityfoodlab/citegate/internal/model"
)

// ParsePayload decodes a researchEvidence payload from raw assistant output.
// Assistants routinely wrap the JSON in Markdown code fences or surround it
// with prose, so decoding starts at the outermost object span.
func ParsePayload(text string) ([]model.RawCitation, error) {
	span, err := objectSpan(stripFences(text))
	if err != nil {
		return nil, err
	}

	var payload model.EvidencePayload
	if err := json.Unmarshal([]byte(span), &payload); err != nil {
		return nil, fmt.Errorf("decode evidence payload: %w", err)
	}
	if len(payload.ResearchEvidence) == 0 {
		return nil, fmt.Errorf("payload contains no research evidence")
	}

	return payload.ResearchEvidence, nil
}

// stripFences removes Markdown code fence markers anywhere in the text
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return s
}

// objectSpan cuts the text down to the outermost JSON object: from the first
// opening brace to the last closing one.
func objectSpan(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("no JSON object found in payload")
	}
	return s[start : end+1], nil
}
