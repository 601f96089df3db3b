package tree

// Estimate predicts how many nodes the walk will complete, for use as the
// progress denominator. For an unexpanded node it assumes a full B-ary
// subtree but adds only its terminal level (1 + B^(D-depth)), so the
// prediction undercounts the realized total whenever intermediate levels
// materialize — and overcounts when expansions fail or under-deliver. It is
// invoked once before expansion and never re-derived mid-run: percentage
// complete is approximate by design.
func Estimate(node *Node, maxDepth, breadth int) int {
	return estimate(node, 0, maxDepth, breadth)
}

func estimate(node *Node, depth, maxDepth, breadth int) int {
	if depth >= maxDepth {
		return 1
	}
	if len(node.Children) > 0 {
		total := 1
		for _, c := range node.Children {
			total += estimate(c, depth+1, maxDepth, breadth)
		}
		return total
	}
	return 1 + pow(breadth, maxDepth-depth)
}

func pow(base, exp int) int {
	total := 1
	for i := 0; i < exp; i++ {
		total *= base
	}
	return total
}
