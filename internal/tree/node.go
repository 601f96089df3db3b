// Package tree implements the decision tree model and the recursive
// concurrent expansion engine.
package tree

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/yourusername/decisiond/internal/llm"
)

// NodeType classifies a decision tree vertex.
type NodeType string

const (
	TypeDecision NodeType = "decision"
	TypeChance   NodeType = "chance"
	TypeOutcome  NodeType = "outcome"
)

// DefaultDescription fills in for nodes the generator returned without one.
const DefaultDescription = "No description provided"

// Node is a decision tree vertex. Children are exclusively owned by their
// parent — every node is freshly created from generator output, so the
// structure is a tree by construction. Children stay empty until expansion
// and are never re-expanded once populated.
type Node struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Type        NodeType `json:"type"`
	ParentID    string   `json:"parentId,omitempty"`
	Risk        *int     `json:"risk,omitempty"`
	Opportunity *int     `json:"opportunity,omitempty"`
	Probability *int     `json:"probability,omitempty"`
	Children    []*Node  `json:"children,omitempty"`
}

// CountNodes returns the total number of nodes in the subtree rooted at n.
func (n *Node) CountNodes() int {
	total := 1
	for _, c := range n.Children {
		total += c.CountNodes()
	}
	return total
}

// Progress is an immutable snapshot of walk progress. A fresh value is
// created per event and never mutated afterwards.
type Progress struct {
	CurrentDepth      int    `json:"current_depth"`
	TotalDepth        int    `json:"total_depth"`
	CurrentBranch     string `json:"current_branch"`
	TotalBranches     int    `json:"total_branches"`
	CompletedBranches int    `json:"completed_branches"`
}

// ProgressFunc receives progress snapshots. Called synchronously from the
// walk; sibling completions carry no ordering guarantee.
type ProgressFunc func(Progress)

// UsageTally accumulates token usage across the generation calls of one run.
// Safe for concurrent use by sibling expansions.
type UsageTally struct {
	input  atomic.Int64
	output atomic.Int64
}

// Add records the usage of one generation call.
func (t *UsageTally) Add(u llm.Usage) {
	if t == nil {
		return
	}
	t.input.Add(int64(u.InputTokens))
	t.output.Add(int64(u.OutputTokens))
}

// Totals returns the accumulated input and output token counts.
func (t *UsageTally) Totals() (inputTokens, outputTokens int) {
	if t == nil {
		return 0, 0
	}
	return int(t.input.Load()), int(t.output.Load())
}

// genNode is the tolerant shape decoded from generator output. Any field may
// be missing or out of range; normalize repairs rather than rejects.
type genNode struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Risk        *int   `json:"risk"`
	Opportunity *int   `json:"opportunity"`
	Probability *int   `json:"probability"`
}

// normalize repairs a generated node: fresh id when missing, placeholder
// description, fallback type on unknown values, ratings clamped into range,
// probability kept only on outcome nodes.
func normalize(g genNode, parentID string, fallback NodeType) *Node {
	n := &Node{
		ID:          g.ID,
		Description: g.Description,
		ParentID:    parentID,
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Description == "" {
		n.Description = DefaultDescription
	}
	switch NodeType(g.Type) {
	case TypeDecision, TypeChance, TypeOutcome:
		n.Type = NodeType(g.Type)
	default:
		n.Type = fallback
	}
	n.Risk = clamp(g.Risk, 1, 10)
	n.Opportunity = clamp(g.Opportunity, 1, 10)
	if n.Type == TypeOutcome {
		n.Probability = clamp(g.Probability, 0, 100)
	}
	return n
}

func clamp(v *int, lo, hi int) *int {
	if v == nil {
		return nil
	}
	w := *v
	if w < lo {
		w = lo
	}
	if w > hi {
		w = hi
	}
	return &w
}
