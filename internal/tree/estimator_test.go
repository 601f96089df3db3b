package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateUnexpandedRoot(t *testing.T) {
	root := &Node{ID: "r", Description: "root"}

	// Root plus the predicted terminal level only.
	assert.Equal(t, 5, Estimate(root, 2, 2))
	assert.Equal(t, 10, Estimate(root, 2, 3))
	assert.Equal(t, 28, Estimate(root, 3, 3))
}

func TestEstimateRealizedChildren(t *testing.T) {
	root := &Node{ID: "r", Description: "root", Children: []*Node{
		{ID: "a", Description: "a"},
		{ID: "b", Description: "b"},
	}}

	// Each unexpanded child contributes 1 + 2^1 = 3.
	assert.Equal(t, 7, Estimate(root, 2, 2))
}

func TestEstimateDepthExhausted(t *testing.T) {
	root := &Node{ID: "r", Description: "root", Children: []*Node{
		{ID: "a", Description: "a"},
	}}

	assert.Equal(t, 1, Estimate(root, 0, 4))
}

func TestEstimateUndercountsIntermediateLevels(t *testing.T) {
	// The realized walk of a breadth-2 depth-2 tree completes 7 nodes; the
	// prediction from a bare root skips the intermediate level.
	root := &Node{ID: "r", Description: "root"}
	predicted := Estimate(root, 2, 2)

	realized := 1 + 2 + 4
	assert.Less(t, predicted, realized)
	assert.Equal(t, 5, predicted)
}
