package unroll

import "github.com/vrtl-hdl/vrtlc/pkg/ast"

// bodyTooLarge is C2: the body-size estimator. It returns true if the
// subtree rooted at body (following child slots and sibling links)
// contains more than budget nodes, short-circuiting as soon as the budget
// is exceeded.
func bodyTooLarge(tree *ast.Tree, body ast.Handle, budget int) bool {
	exceeds, _ := tree.NodeCount(body, budget)
	return exceeds
}

// perIterationBudget computes the per-iteration node budget from the
// configured unroll_stmts value and the estimated trip count, per spec.md
// §4.1: "derived from a configuration value divided by the estimated trip
// count (minimum 1)". Per spec.md §9's preserved asymmetry, this division
// is only performed in non-generate mode; generate mode (where C6/the trip
// estimator never runs ahead of C7) uses unrollStmts directly.
func perIterationBudget(unrollStmts, estimatedTripCount int, generateMode bool) int {
	if generateMode {
		return unrollStmts
	}
	if estimatedTripCount < 1 {
		estimatedTripCount = 1
	}
	budget := unrollStmts / estimatedTripCount
	if budget < 1 {
		budget = 1
	}
	return budget
}
