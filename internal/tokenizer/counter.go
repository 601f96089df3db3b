// Package tokenizer provides token counting, prompt trimming, and budget governance.
package tokenizer

import (
	"log"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter measures text length in model tokens.
type TokenCounter interface {
	Count(text string) int
}

// Counter counts tokens with the cl100k_base BPE encoding. When the encoding
// cannot be loaded (first run without the cached vocabulary), it falls back
// to the ~4 characters per token rule of thumb.
type Counter struct {
	enc *tiktoken.Tiktoken
}

// NewCounter creates a Counter.
func NewCounter() *Counter {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		log.Printf("tokenizer: cl100k_base unavailable, using char estimate: %v", err)
		return &Counter{}
	}
	return &Counter{enc: enc}
}

// Count returns the token count of text.
func (c *Counter) Count(text string) int {
	if c.enc == nil {
		return EstimateTokens(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}

// EstimateTokens estimates the token count of a text string.
// Uses the rule of thumb: ~4 characters per token.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + 3) / 4
}
