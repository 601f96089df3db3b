package worker

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/decisiond/internal/llm"
	"github.com/yourusername/decisiond/internal/prompts"
	"github.com/yourusername/decisiond/internal/tree"
)

// cannedProvider returns the same three-child expansion for every call.
type cannedProvider struct{}

func (cannedProvider) Name() string                         { return "canned" }
func (cannedProvider) Model() string                        { return "canned-model" }
func (cannedProvider) ContextTokens() int                   { return 8192 }
func (cannedProvider) TrimPrompt(text string, _ int) string { return text }
func (cannedProvider) HealthCheck(_ context.Context) error  { return nil }

func (cannedProvider) Generate(_ context.Context, _, _, _ string, _ *jsonschema.Definition) (json.RawMessage, llm.Usage, error) {
	raw := json.RawMessage(`{"children":[
		{"description":"left","type":"outcome","risk":5,"opportunity":5,"probability":50},
		{"description":"middle","type":"outcome","risk":5,"opportunity":5,"probability":30},
		{"description":"right","type":"outcome","risk":5,"opportunity":5,"probability":20}]}`)
	return raw, llm.Usage{InputTokens: 10, OutputTokens: 5}, nil
}

func TestSaveThrottle(t *testing.T) {
	th := newSaveThrottle(50 * time.Millisecond)
	assert.False(t, th.allow(), "interval starts at creation")

	time.Sleep(60 * time.Millisecond)
	assert.True(t, th.allow())
	assert.False(t, th.allow(), "second call inside the interval is rejected")
}

func TestProgressCallbackSharesThrottleAcrossBranches(t *testing.T) {
	// Sibling expansions finish concurrently and every completion invokes the
	// progress callback, so all goroutines contend on one throttle. A zero
	// interval makes every call mutate the last-save timestamp, which lets
	// the race detector catch any unguarded access.
	library := prompts.Load("")
	tally := &tree.UsageTally{}
	expander := tree.NewExpander(cannedProvider{}, library, 1000, tally, nil)
	walker := tree.NewWalker(expander, 2, 3)

	throttle := newSaveThrottle(0)
	var saves atomic.Int64
	onProgress := func(p tree.Progress) {
		if throttle.allow() {
			saves.Add(1)
		}
	}

	root := &tree.Node{ID: "root", Description: "root decision", Type: tree.TypeDecision}
	result, err := walker.Analyze(context.Background(), root, "test problem", onProgress)
	require.NoError(t, err)

	assert.Equal(t, 13, result.CountNodes()) // 1 + 3 + 9
	assert.Positive(t, saves.Load())
}

func TestProgressCallbackThrottleSuppressesBursts(t *testing.T) {
	library := prompts.Load("")
	tally := &tree.UsageTally{}
	expander := tree.NewExpander(cannedProvider{}, library, 1000, tally, nil)
	walker := tree.NewWalker(expander, 2, 3)

	// A full walk finishes far faster than an hour, so nothing gets through.
	throttle := newSaveThrottle(time.Hour)
	var saves atomic.Int64
	onProgress := func(p tree.Progress) {
		if throttle.allow() {
			saves.Add(1)
		}
	}

	root := &tree.Node{ID: "root", Description: "root decision", Type: tree.TypeDecision}
	_, err := walker.Analyze(context.Background(), root, "test problem", onProgress)
	require.NoError(t, err)
	assert.Zero(t, saves.Load())
}
