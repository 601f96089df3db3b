package tokenizer

import (
	"github.com/yourusername/decisiond/internal/splitter"
)

// charsPerToken is the average character-per-token ratio used to convert a
// token overflow into a character budget. The ratio varies by language, so
// the trim loop re-measures after every cut instead of trusting it.
const charsPerToken = 3

// DefaultMinChunkSize is the hard floor for trimmed text. Below this the
// trimmer stops chunking and truncates outright, which is what guarantees
// the fixed-point loop terminates.
const DefaultMinChunkSize = 256

// Trimmer shrinks text to a token budget using the splitter to cut on
// natural boundaries where possible.
type Trimmer struct {
	counter    TokenCounter
	minChunk   int
	separators []string
}

// NewTrimmer creates a Trimmer. minChunk <= 0 selects DefaultMinChunkSize.
func NewTrimmer(counter TokenCounter, minChunk int) *Trimmer {
	if minChunk <= 0 {
		minChunk = DefaultMinChunkSize
	}
	return &Trimmer{
		counter:    counter,
		minChunk:   minChunk,
		separators: splitter.DefaultSeparators,
	}
}

// Trim returns text unchanged when it fits within budget tokens. Otherwise
// it estimates a character budget from the token overflow, takes the first
// chunk at that size, and recurses to re-measure. When the chunker cannot
// shrink the text (no separators, or estimator disagreement) the cut is
// forced by hard truncation. Once the character budget falls below the
// configured floor the first floor characters are returned unconditionally.
func (t *Trimmer) Trim(text string, budget int) string {
	tokens := t.counter.Count(text)
	if tokens <= budget {
		return text
	}

	overflow := tokens - budget
	charBudget := len(text) - overflow*charsPerToken
	if charBudget < t.minChunk {
		if len(text) <= t.minChunk {
			return text
		}
		return text[:t.minChunk]
	}

	trimmed := splitter.Split(text, charBudget, 0, t.separators)[0]
	if len(trimmed) >= len(text) {
		// No shrinkage — the chunker returned the whole text.
		trimmed = text[:charBudget]
	}
	return t.Trim(trimmed, budget)
}
