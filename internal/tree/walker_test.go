package tree

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/decisiond/internal/prompts"
)

type progressLog struct {
	mu        sync.Mutex
	snapshots []Progress
}

func (p *progressLog) record(s Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = append(p.snapshots, s)
}

func (p *progressLog) last() Progress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshots[len(p.snapshots)-1]
}

func maxNodeDepth(n *Node) int {
	deepest := 0
	for _, c := range n.Children {
		if d := 1 + maxNodeDepth(c); d > deepest {
			deepest = d
		}
	}
	return deepest
}

func newTestWalker(provider *stubProvider, maxDepth, breadth int) *Walker {
	e := NewExpander(provider, prompts.Load(""), 1000, &UsageTally{}, nil)
	return NewWalker(e, maxDepth, breadth)
}

func TestWalkerAnalyzeFullTree(t *testing.T) {
	provider := &stubProvider{breadth: 2, childType: "decision"}
	w := newTestWalker(provider, 2, 2)

	root := &Node{ID: "r", Description: "root decision", Type: TypeDecision}
	log := &progressLog{}

	got, err := w.Analyze(context.Background(), root, "problem", log.record)
	require.NoError(t, err)

	// 1 root + 2 children + 4 grandchildren.
	assert.Equal(t, 7, got.CountNodes())
	assert.Equal(t, 2, maxNodeDepth(got))
	// Root and the two depth-1 nodes expand; leaves do not.
	assert.Equal(t, int64(3), provider.calls.Load())

	for _, c := range got.Children {
		assert.Equal(t, got.ID, c.ParentID)
		require.Len(t, c.Children, 2)
		for _, gc := range c.Children {
			assert.Equal(t, c.ID, gc.ParentID)
			assert.Empty(t, gc.Children)
		}
	}

	final := log.last()
	assert.Equal(t, 7, final.CompletedBranches)
	assert.Equal(t, 5, final.TotalBranches)
	assert.Equal(t, 2, final.TotalDepth)
}

func TestWalkerProgressPaths(t *testing.T) {
	provider := &stubProvider{breadth: 2, childType: "decision"}
	w := newTestWalker(provider, 1, 2)

	root := &Node{ID: "r", Description: "root decision", Type: TypeDecision}
	log := &progressLog{}

	_, err := w.Analyze(context.Background(), root, "problem", log.record)
	require.NoError(t, err)

	var leafPaths int
	for _, s := range log.snapshots {
		assert.True(t, strings.HasPrefix(s.CurrentBranch, "root decision"))
		if strings.Contains(s.CurrentBranch, PathSeparator) {
			leafPaths++
			assert.Equal(t, 1, s.CurrentDepth)
		}
	}
	assert.Equal(t, 2, leafPaths)
}

func TestWalkerExpansionFailureDegrades(t *testing.T) {
	provider := &stubProvider{breadth: 2, err: errors.New("model unavailable")}
	w := newTestWalker(provider, 2, 2)

	root := &Node{ID: "r", Description: "root decision", Type: TypeDecision}
	log := &progressLog{}

	got, err := w.Analyze(context.Background(), root, "problem", log.record)
	require.NoError(t, err)

	assert.Equal(t, 1, got.CountNodes())
	assert.Equal(t, 1, log.last().CompletedBranches)
}

func TestWalkerPreservesExistingChildren(t *testing.T) {
	provider := &stubProvider{breadth: 2, childType: "decision"}
	w := newTestWalker(provider, 1, 2)

	child := &Node{ID: "c1", Description: "pre-built option", ParentID: "r"}
	root := &Node{ID: "r", Description: "root decision", Type: TypeDecision, Children: []*Node{child}}

	got, err := w.Analyze(context.Background(), root, "problem", nil)
	require.NoError(t, err)

	// The root is not re-expanded; its single child is walked as-is.
	require.Len(t, got.Children, 1)
	assert.Equal(t, "pre-built option", got.Children[0].Description)
	assert.Equal(t, int64(0), provider.calls.Load())
}

func TestWalkerCancellation(t *testing.T) {
	provider := &stubProvider{breadth: 2, childType: "decision"}
	w := newTestWalker(provider, 3, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	root := &Node{ID: "r", Description: "root decision", Type: TypeDecision}
	_, err := w.Analyze(ctx, root, "problem", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWalkerZeroDepth(t *testing.T) {
	provider := &stubProvider{breadth: 2}
	w := newTestWalker(provider, 0, 2)

	root := &Node{ID: "r", Description: "root decision", Type: TypeDecision}
	got, err := w.Analyze(context.Background(), root, "problem", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, got.CountNodes())
	assert.Equal(t, int64(0), provider.calls.Load())
}
