// Package parser extracts structured data from LLM responses. Models asked
// for JSON routinely wrap it in prose or markdown fences, so extraction
// walks from the strictest reading to the most permissive.
package parser

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoJSON means no parsable JSON object was found in the response.
var ErrNoJSON = errors.New("no parsable JSON in response")

var fencedBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\n?(.*?)\n?```")

// ExtractJSON unmarshals the first JSON object found in text into v.
// Attempted in order: the whole text, the contents of a fenced code block,
// and the substring between the first '{' and the last '}'.
func ExtractJSON(text string, v any) error {
	if err := json.Unmarshal([]byte(text), v); err == nil {
		return nil
	}

	if m := fencedBlockPattern.FindStringSubmatch(text); m != nil {
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), v); err == nil {
			return nil
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), v); err == nil {
			return nil
		}
	}

	return ErrNoJSON
}
