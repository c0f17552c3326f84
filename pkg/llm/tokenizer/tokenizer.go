// Package tokenizer provides client-side token counting for prompt budget
// checks before a request is sent.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// encodingName is the cl100k_base encoding used by current OpenAI-compatible
// chat models. Counts for other backends are approximations, which is fine
// for budget warnings.
const encodingName = "cl100k_base"

// Tokenizer counts tokens in text.
type Tokenizer struct {
	encoding *tiktoken.Tiktoken
}

// New creates a tokenizer. Initialization can fail when the encoding data
// cannot be loaded; callers may keep a nil tokenizer and rely on the
// estimate fallback.
func New() (*Tokenizer, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("load %s encoding: %w", encodingName, err)
	}
	return &Tokenizer{encoding: encoding}, nil
}

// CountTokens returns the token count for text. A nil tokenizer falls back
// to the rough chars/4 estimate.
func (t *Tokenizer) CountTokens(text string) int {
	if t == nil || t.encoding == nil {
		return EstimateTokens(text)
	}
	return len(t.encoding.Encode(text, nil, nil))
}

// EstimateTokens is the fallback heuristic used when no encoding is
// available: roughly four characters per token.
func EstimateTokens(text string) int {
	return len(text) / 4
}
