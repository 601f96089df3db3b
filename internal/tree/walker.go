package tree

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Walker orchestrates the recursive, concurrent, depth-bounded expansion of
// a whole tree. A Walker holds the state of one walk — create one per
// analysis run.
type Walker struct {
	expander *Expander
	maxDepth int
	breadth  int

	problem    string
	onProgress ProgressFunc
	total      int
	completed  atomic.Int64
}

// NewWalker creates a Walker.
func NewWalker(expander *Expander, maxDepth, breadth int) *Walker {
	return &Walker{expander: expander, maxDepth: maxDepth, breadth: breadth}
}

// Analyze expands the tree rooted at root to the configured depth and
// returns it fully built. Children of each node are analyzed concurrently;
// a parent's children are assigned only after every child analysis has
// completed, so a caller never observes a half-expanded parent. onProgress
// (optional) receives a fresh snapshot per completed node plus one final
// completion snapshot. The only error returned is context cancellation —
// expansion failures degrade branches to leaves instead.
func (w *Walker) Analyze(ctx context.Context, root *Node, problem string, onProgress ProgressFunc) (*Node, error) {
	w.problem = problem
	w.onProgress = onProgress
	w.total = Estimate(root, w.maxDepth, w.breadth)
	w.completed.Store(0)

	result, err := w.walk(ctx, root, 0, root.Description)
	if err != nil {
		return result, fmt.Errorf("tree.Walker.Analyze: %w", err)
	}
	w.emit(0, root.Description) // overall completion snapshot
	return result, nil
}

func (w *Walker) walk(ctx context.Context, node *Node, depth int, path string) (*Node, error) {
	if err := ctx.Err(); err != nil {
		return node, err
	}

	// Terminal: the depth limit is reached, no expansion attempted.
	if depth >= w.maxDepth {
		w.finish(depth, path)
		return node, nil
	}

	node = w.expander.Expand(ctx, node, path, w.breadth, w.problem)
	if len(node.Children) == 0 {
		// Degraded or naturally childless — this branch ends here.
		w.finish(depth, path)
		return node, nil
	}

	children := node.Children
	results := make([]*Node, len(children))
	g, gctx := errgroup.WithContext(ctx)
	for i, child := range children {
		g.Go(func() error {
			res, err := w.walk(gctx, child, depth+1, path+PathSeparator+child.Description)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return node, err
	}

	// Fan-in barrier: only now does the parent see its analyzed children.
	node.Children = results
	w.finish(depth, path)
	return node, nil
}

// finish marks one node complete. Siblings finish concurrently, so the
// counter is atomic: a lost update would desynchronize completedBranches
// from the number of nodes actually finished.
func (w *Walker) finish(depth int, path string) {
	w.completed.Add(1)
	w.emit(depth, path)
}

func (w *Walker) emit(depth int, path string) {
	if w.onProgress == nil {
		return
	}
	w.onProgress(Progress{
		CurrentDepth:      depth,
		TotalDepth:        w.maxDepth,
		CurrentBranch:     path,
		TotalBranches:     w.total,
		CompletedBranches: int(w.completed.Load()),
	})
}
