package tree

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/yourusername/decisiond/internal/llm"
	"github.com/yourusername/decisiond/internal/prompts"
)

// Builder produces the root node and first-level options from a problem
// statement via one generation call.
type Builder struct {
	provider llm.Provider
	library  *prompts.Library
	budget   int
	tally    *UsageTally
}

// NewBuilder creates a Builder. budget is the per-prompt token budget fed to
// the provider's trimmer.
func NewBuilder(provider llm.Provider, library *prompts.Library, budget int, tally *UsageTally) *Builder {
	return &Builder{provider: provider, library: library, budget: budget, tally: tally}
}

// Build returns a root decision node with at most breadth chance children and
// no deeper structure. Partially-conformant generator output is repaired by
// defaulting fields, never rejected. A generation failure here is fatal:
// there is no tree yet to degrade to.
func (b *Builder) Build(ctx context.Context, problem string, breadth int) (*Node, error) {
	user := b.provider.TrimPrompt(b.library.BuilderUser(problem, breadth), b.budget)
	raw, usage, err := b.provider.Generate(ctx, b.library.BuilderSystem(), user, "decision_root", rootSchema(breadth))
	b.tally.Add(usage)
	if err != nil {
		return nil, fmt.Errorf("tree.Builder.Build: %w", err)
	}

	var gen struct {
		Description string    `json:"description"`
		Options     []genNode `json:"options"`
	}
	if err := json.Unmarshal(raw, &gen); err != nil {
		return nil, fmt.Errorf("tree.Builder.Build: decode: %w", err)
	}

	root := &Node{ID: uuid.NewString(), Description: gen.Description, Type: TypeDecision}
	if root.Description == "" {
		root.Description = DefaultDescription
	}
	options := gen.Options
	if len(options) > breadth {
		options = options[:breadth]
	}
	for _, opt := range options {
		root.Children = append(root.Children, normalize(opt, root.ID, TypeChance))
	}
	return root, nil
}
