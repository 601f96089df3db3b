package tree

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/decisiond/internal/prompts"
)

func TestExpanderExpand(t *testing.T) {
	provider := &stubProvider{breadth: 2, childType: "outcome"}
	tally := &UsageTally{}
	e := NewExpander(provider, prompts.Load(""), 1000, tally, nil)

	node := &Node{ID: "n1", Description: "adopt the new system", Type: TypeChance}
	got := e.Expand(context.Background(), node, "root -> adopt the new system", 2, "problem")

	require.Len(t, got.Children, 2)
	for _, c := range got.Children {
		assert.Equal(t, "n1", c.ParentID)
		assert.Equal(t, TypeOutcome, c.Type)
		require.NotNil(t, c.Probability)
		assert.Equal(t, 50, *c.Probability)
	}
}

func TestExpanderIdempotent(t *testing.T) {
	provider := &stubProvider{breadth: 2}
	e := NewExpander(provider, prompts.Load(""), 1000, &UsageTally{}, nil)

	existing := &Node{ID: "c1", Description: "already there"}
	node := &Node{ID: "n1", Description: "expanded before", Children: []*Node{existing}}

	got := e.Expand(context.Background(), node, "path", 2, "problem")
	require.Len(t, got.Children, 1)
	assert.Same(t, existing, got.Children[0])
	assert.Equal(t, int64(0), provider.calls.Load())
}

func TestExpanderTruncatesToBreadth(t *testing.T) {
	provider := &stubProvider{breadth: 6}
	e := NewExpander(provider, prompts.Load(""), 1000, &UsageTally{}, nil)

	node := &Node{ID: "n1", Description: "busy node"}
	got := e.Expand(context.Background(), node, "path", 3, "problem")
	assert.Len(t, got.Children, 3)
}

func TestExpanderFailureDegradesToLeaf(t *testing.T) {
	genErr := errors.New("connection refused")
	var seen error
	e := NewExpander(&fixedProvider{err: genErr}, prompts.Load(""), 1000, &UsageTally{}, func(err error) {
		seen = err
	})

	node := &Node{ID: "n1", Description: "doomed branch"}
	got := e.Expand(context.Background(), node, "path", 2, "problem")

	assert.Empty(t, got.Children)
	assert.ErrorIs(t, seen, genErr)
}

func TestExpanderClearsProbabilityOnDecisions(t *testing.T) {
	prob := 80
	payload := map[string]any{
		"children": []map[string]any{
			{"description": "follow-up choice", "type": "decision", "probability": prob},
		},
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	e := NewExpander(&fixedProvider{raw: raw}, prompts.Load(""), 1000, &UsageTally{}, nil)
	node := &Node{ID: "n1", Description: "parent"}
	got := e.Expand(context.Background(), node, "path", 2, "problem")

	require.Len(t, got.Children, 1)
	assert.Equal(t, TypeDecision, got.Children[0].Type)
	assert.Nil(t, got.Children[0].Probability)
}
