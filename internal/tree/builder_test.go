package tree

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/decisiond/internal/llm"
	"github.com/yourusername/decisiond/internal/prompts"
)

// fixedProvider returns a canned payload, for exercising normalization paths
// the deterministic stub never produces.
type fixedProvider struct {
	raw json.RawMessage
	err error
}

func (f *fixedProvider) Name() string                         { return "fixed" }
func (f *fixedProvider) Model() string                        { return "fixed-model" }
func (f *fixedProvider) ContextTokens() int                   { return 8192 }
func (f *fixedProvider) TrimPrompt(text string, _ int) string { return text }
func (f *fixedProvider) HealthCheck(_ context.Context) error  { return nil }

func (f *fixedProvider) Generate(_ context.Context, _, _, _ string, _ *jsonschema.Definition) (json.RawMessage, llm.Usage, error) {
	if f.err != nil {
		return nil, llm.Usage{}, f.err
	}
	return f.raw, llm.Usage{InputTokens: 10, OutputTokens: 5}, nil
}

func TestBuilderBuild(t *testing.T) {
	provider := &stubProvider{breadth: 3}
	tally := &UsageTally{}
	b := NewBuilder(provider, prompts.Load(""), 1000, tally)

	root, err := b.Build(context.Background(), "should we migrate the database", 3)
	require.NoError(t, err)

	assert.NotEmpty(t, root.ID)
	assert.Equal(t, "root decision", root.Description)
	assert.Equal(t, TypeDecision, root.Type)
	assert.Empty(t, root.ParentID)
	require.Len(t, root.Children, 3)
	for _, c := range root.Children {
		assert.Equal(t, root.ID, c.ParentID)
		assert.Empty(t, c.Children)
	}

	in, out := tally.Totals()
	assert.Equal(t, 100, in)
	assert.Equal(t, 50, out)
}

func TestBuilderTruncatesToBreadth(t *testing.T) {
	provider := &stubProvider{breadth: 5}
	b := NewBuilder(provider, prompts.Load(""), 1000, &UsageTally{})

	root, err := b.Build(context.Background(), "problem", 2)
	require.NoError(t, err)
	assert.Len(t, root.Children, 2)
}

func TestBuilderRepairsSparseOutput(t *testing.T) {
	risk := 99
	payload := map[string]any{
		"description": "",
		"options": []map[string]any{
			{"risk": risk},
		},
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	b := NewBuilder(&fixedProvider{raw: raw}, prompts.Load(""), 1000, &UsageTally{})
	root, err := b.Build(context.Background(), "problem", 3)
	require.NoError(t, err)

	assert.Equal(t, DefaultDescription, root.Description)
	require.Len(t, root.Children, 1)
	child := root.Children[0]
	assert.NotEmpty(t, child.ID)
	assert.Equal(t, DefaultDescription, child.Description)
	assert.Equal(t, TypeChance, child.Type)
	require.NotNil(t, child.Risk)
	assert.Equal(t, 10, *child.Risk)
	assert.Nil(t, child.Opportunity)
	assert.Nil(t, child.Probability)
}

func TestBuilderGenerateErrorIsFatal(t *testing.T) {
	b := NewBuilder(&fixedProvider{err: errors.New("rate limit exceeded")}, prompts.Load(""), 1000, &UsageTally{})

	root, err := b.Build(context.Background(), "problem", 3)
	assert.Nil(t, root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit exceeded")
}
