package splitter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit_ParagraphSeparator(t *testing.T) {
	got := Split("a\n\nb\n\nc", 3, 0, DefaultSeparators)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestSplit_ShortTextUnchanged(t *testing.T) {
	assert.Equal(t, []string{"hello"}, Split("hello", 100, 0, DefaultSeparators))
	assert.Nil(t, Split("", 100, 0, DefaultSeparators))
}

func TestSplit_PacksSegmentsUpToChunkSize(t *testing.T) {
	// "aa bb" fits in one 5-char chunk, "cc" overflows it.
	got := Split("aa bb cc", 5, 0, DefaultSeparators)
	assert.Equal(t, []string{"aa bb", "cc"}, got)
}

func TestSplit_ChunksNeverExceedSize(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog.\n\n", 20)
	for _, size := range []int{10, 25, 80} {
		for _, c := range Split(text, size, 0, DefaultSeparators) {
			assert.LessOrEqual(t, len(c), size)
		}
	}
}

func TestSplit_OversizeSegmentResplit(t *testing.T) {
	got := Split("aaaaaa bb", 4, 0, []string{" ", ""})
	assert.Equal(t, []string{"aaaa", "aa", "bb"}, got)
}

func TestSplit_WindowFallbackNoSeparators(t *testing.T) {
	// No listed separator occurs and no empty-string sentinel: window mode.
	got := Split("abcdefghij", 4, 0, []string{"\n\n", "\n"})
	assert.Equal(t, []string{"abcd", "efgh", "ij"}, got)
	assert.Equal(t, "abcdefghij", strings.Join(got, ""))
}

func TestSplit_WindowOverlap(t *testing.T) {
	got := Split("abcdefghij", 4, 1, []string{"\n"})
	assert.Equal(t, []string{"abcd", "defg", "ghij"}, got)
	// Dropping each window's leading overlap reconstructs the input.
	rebuilt := got[0]
	for _, c := range got[1:] {
		rebuilt += c[1:]
	}
	assert.Equal(t, "abcdefghij", rebuilt)
}

func TestSplit_EmptySentinelPerCharacter(t *testing.T) {
	got := Split("abcdef", 2, 0, []string{""})
	assert.Equal(t, []string{"ab", "cd", "ef"}, got)
}
