package tree

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/yourusername/decisiond/internal/llm"
	"github.com/yourusername/decisiond/internal/prompts"
)

// PathSeparator joins ancestor descriptions into the branch path shown to
// the generator and reported in progress snapshots.
const PathSeparator = " -> "

// Expander expands exactly one node's children via one generation call.
type Expander struct {
	provider llm.Provider
	library  *prompts.Library
	budget   int
	tally    *UsageTally
	onError  func(error)
}

// NewExpander creates an Expander. onError, if non-nil, receives every
// expansion failure in addition to the log (the caller uses it for
// rate-limit detection); it may be called from concurrent expansions.
func NewExpander(provider llm.Provider, library *prompts.Library, budget int, tally *UsageTally, onError func(error)) *Expander {
	return &Expander{provider: provider, library: library, budget: budget, tally: tally, onError: onError}
}

// Expand fills node.Children with at most breadth consequence nodes.
// Idempotent: a node with children is returned unchanged. On generation
// failure the error is recorded and the node is returned with empty children,
// so the branch silently stops instead of aborting the whole analysis.
func (e *Expander) Expand(ctx context.Context, node *Node, path string, breadth int, problem string) *Node {
	if len(node.Children) > 0 {
		return node
	}

	user := e.provider.TrimPrompt(e.library.ExpanderUser(problem, path, node.Description, breadth), e.budget)
	raw, usage, err := e.provider.Generate(ctx, e.library.ExpanderSystem(), user, "decision_branches", branchSchema(breadth))
	e.tally.Add(usage)
	if err != nil {
		e.fail(node, err)
		return node
	}

	var gen struct {
		Children []genNode `json:"children"`
	}
	if err := json.Unmarshal(raw, &gen); err != nil {
		e.fail(node, fmt.Errorf("decode: %w", err))
		return node
	}

	children := gen.Children
	if len(children) > breadth {
		children = children[:breadth]
	}
	for _, c := range children {
		node.Children = append(node.Children, normalize(c, node.ID, TypeDecision))
	}
	return node
}

func (e *Expander) fail(node *Node, err error) {
	log.Printf("tree: expand %q: %v", node.Description, err)
	if e.onError != nil {
		e.onError(err)
	}
}
