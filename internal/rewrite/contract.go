package rewrite

import (
	"encoding/json"
	"fmt"
	"strings"
)

// The model must answer with exactly these delimited sections, in order.
// Parsing is positional but defensive: a missing section triggers the
// documented per-section recovery instead of rejecting the response.
var contractMarkers = []string{
	"===DESCRIPTION===",
	"===HTML===",
	"===TAGS===",
}

// minPlausibleHTML is the minimum fragment length (after stripping
// document-level tags) accepted from the model.
const minPlausibleHTML = 50

// decodedResponse is the structured intermediate parsed out of the raw
// model output, before validation.
type decodedResponse struct {
	Description string
	HTML        string
	TagsRaw     string
}

// decodeResponse splits the raw output on the contract markers. Content
// before the first marker is ignored; each field runs until the next
// marker or end of input.
func decodeResponse(raw string) decodedResponse {
	var out decodedResponse
	positions := make([]int, len(contractMarkers))
	for i, marker := range contractMarkers {
		positions[i] = strings.Index(raw, marker)
	}
	extract := func(i int) string {
		if positions[i] < 0 {
			return ""
		}
		start := positions[i] + len(contractMarkers[i])
		end := len(raw)
		for j := i + 1; j < len(positions); j++ {
			if positions[j] > start && positions[j] < end {
				end = positions[j]
			}
		}
		return strings.TrimSpace(raw[start:end])
	}
	out.Description = extract(0)
	out.HTML = extract(1)
	out.TagsRaw = extract(2)
	return out
}

// parseTags decodes the TAGS payload as a JSON string array. Code fences
// are tolerated; anything else fails so the caller can fall back to the
// extractor's tags.
func parseTags(raw string) ([]string, error) {
	raw = strings.TrimSpace(fenceRe.ReplaceAllString(strings.TrimSpace(raw), ""))
	if raw == "" {
		return nil, fmt.Errorf("empty tags payload")
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("decode tags array: %w", err)
	}
	if len(tags) == 0 {
		return nil, fmt.Errorf("tags array is empty")
	}
	return tags, nil
}
