package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// charCounter is a deterministic stub: one token per chunk of n characters.
type charCounter struct{ n int }

func (c charCounter) Count(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + c.n - 1) / c.n
}

func TestTrim_IdentityWithinBudget(t *testing.T) {
	tr := NewTrimmer(charCounter{n: 4}, 10)
	text := "short prompt"
	assert.Equal(t, text, tr.Trim(text, 1000))
}

func TestTrim_ShrinksToBudget(t *testing.T) {
	tr := NewTrimmer(charCounter{n: 4}, 10)
	text := strings.Repeat("word ", 200) // 1000 chars, 250 tokens
	got := tr.Trim(text, 100)
	assert.LessOrEqual(t, charCounter{n: 4}.Count(got), 100)
	assert.Less(t, len(got), len(text))
	// Cut on a word boundary, not mid-word.
	assert.True(t, strings.HasSuffix(got, "word"), "got %q", got[len(got)-10:])
}

func TestTrim_AdversarialNoSeparators(t *testing.T) {
	tr := NewTrimmer(charCounter{n: 4}, 32)
	text := strings.Repeat("x", 5000)
	got := tr.Trim(text, 10)
	assert.GreaterOrEqual(t, len(got), 32)
	assert.Less(t, len(got), len(text))
}

func TestTrim_FloorBaseCase(t *testing.T) {
	// Counter that wildly overestimates forces the char budget below the
	// floor immediately.
	tr := NewTrimmer(charCounter{n: 1}, 16)
	text := strings.Repeat("y", 100)
	got := tr.Trim(text, 1)
	assert.Equal(t, strings.Repeat("y", 16), got)
}

func TestTrim_TextAlreadyBelowFloor(t *testing.T) {
	tr := NewTrimmer(charCounter{n: 1}, 64)
	text := "tiny"
	assert.Equal(t, text, tr.Trim(text, 1))
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("test"))
	assert.Equal(t, 15, EstimateTokens("The quick brown fox jumps over the lazy dog. This is a test."))
}
