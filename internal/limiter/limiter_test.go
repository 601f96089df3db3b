package limiter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLimit_OpenAI(t *testing.T) {
	d := New("openai")
	assert.True(t, d.DetectLimit("Error: rate limit exceeded, please try again"))
	assert.True(t, d.DetectLimit("429 Too Many Requests"))
	assert.True(t, d.DetectLimit("You exceeded your current quota: insufficient_quota"))
	assert.False(t, d.DetectLimit("analysis completed successfully"))
}

func TestDetectLimit_Ollama(t *testing.T) {
	d := New("ollama")
	assert.True(t, d.DetectLimit("dial tcp 127.0.0.1:11434: connection refused"))
	assert.False(t, d.DetectLimit("response generated successfully"))
}

func TestDetectLimit_UnknownProviderFallsBack(t *testing.T) {
	d := New("mystery")
	assert.True(t, d.DetectLimit("rate limit reached"))
}

func TestErrRateLimit(t *testing.T) {
	err := &ErrRateLimit{Line: "rate limit hit"}
	assert.Contains(t, err.Error(), "rate limit detected")
}
